package combat

// Detect reports the encounter status implied by the current state. It is pure
// and idempotent: once terminal, the status never changes.
func Detect(s *State) Status {
	if s.Status.Terminal() {
		return s.Status
	}
	if s.partyFled {
		return FledSuccessfully
	}
	if len(s.ActiveOn(SideMonster)) == 0 {
		return Victory
	}
	if len(s.ActiveOn(SidePlayer)) == 0 {
		for _, c := range s.Party {
			if c.Lifecycle == Fled {
				return FledSuccessfully
			}
		}
		return Defeat
	}
	return InProgress
}
