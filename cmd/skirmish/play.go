package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

var errQuit = errors.New("quit")

// partyInput chooses party actions.
type partyInput interface {
	Choose(sess *encounter.Session, actor combat.CombatantID) (combat.TurnAction, error)
	Rejected(reason string)
}

// play drives sess until it ends, handing party turns to in and running
// monster turns in between.
//
// Postcondition: returns nil once the encounter is terminal, errQuit when the
// player quits, or the first input error.
func play(sess *encounter.Session, in partyInput) error {
	for !sess.Status().Terminal() {
		cur, ok := sess.Current()
		if !ok {
			return nil
		}
		if cur.Side != combat.SidePlayer {
			if _, err := sess.RunMonsters(); err != nil && !sess.Status().Terminal() {
				return err
			}
			continue
		}
		action, err := in.Choose(sess, cur)
		if err != nil {
			return err
		}
		_, err = sess.Submit(cur, action)
		var verr *combat.ValidationError
		switch {
		case errors.As(err, &verr):
			in.Rejected(verr.Message())
		case err != nil && !sess.Status().Terminal():
			return err
		}
	}
	return nil
}

// autoInput attacks the monster with the fewest hit points.
type autoInput struct{}

func (autoInput) Choose(sess *encounter.Session, _ combat.CombatantID) (combat.TurnAction, error) {
	var target *combat.CombatantView
	snap := sess.State()
	for i := range snap.Monsters {
		m := &snap.Monsters[i]
		if m.Lifecycle != combat.Active {
			continue
		}
		if target == nil || m.HP.Current < target.HP.Current {
			target = m
		}
	}
	if target == nil {
		return combat.Defend{}, nil
	}
	return combat.Attack{Target: target.ID}, nil
}

func (autoInput) Rejected(string) {}

const helpText = `commands:
  attack <target>           attack a monster (m0, m1, ...)
  defend                    take a defensive stance
  flee                      try to escape
  cast <spell> [target]     cast a spell; targets are p0.. or m0..
  use <item> [target]       use a carried item
  spells                    list the spells you can cast now
  status                    show the battlefield
  quit                      abandon the encounter`

// prompt reads party actions from a line-oriented reader.
type prompt struct {
	in    *bufio.Scanner
	out   io.Writer
	rules *combat.Rules
}

func newPrompt(in *bufio.Scanner, out io.Writer, rules *combat.Rules) *prompt {
	return &prompt{in: in, out: out, rules: rules}
}

func (p *prompt) Rejected(reason string) {
	fmt.Fprintln(p.out, reason)
}

func (p *prompt) Choose(sess *encounter.Session, actor combat.CombatantID) (combat.TurnAction, error) {
	snap := sess.State()
	for {
		fmt.Fprintf(p.out, "%s> ", nameOf(snap, actor))
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return nil, err
			}
			return nil, errQuit
		}
		fields := strings.Fields(p.in.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "q":
			return nil, errQuit
		case "status", "s":
			printStatus(p.out, snap)
			if chance, ok := sess.FleeChance(actor); ok {
				fmt.Fprintf(p.out, "flee chance: %d%%\n", chance)
			}
			continue
		case "spells":
			printSpells(p.out, p.rules, snap, actor)
			continue
		case "help", "?":
			fmt.Fprintln(p.out, helpText)
			continue
		}
		action, err := parseAction(fields)
		if err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		return action, nil
	}
}

// parseAction turns a command line into an action.
func parseAction(fields []string) (combat.TurnAction, error) {
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	switch fields[0] {
	case "attack", "a":
		target, err := parseTarget(arg(1))
		if err != nil {
			return nil, err
		}
		if target.IsZero() {
			return nil, errors.New("attack needs a target")
		}
		return combat.Attack{Target: target}, nil
	case "defend", "d":
		return combat.Defend{}, nil
	case "flee", "f":
		return combat.Flee{}, nil
	case "cast", "c":
		if arg(1) == "" {
			return nil, errors.New("cast needs a spell")
		}
		target, err := parseTarget(arg(2))
		if err != nil {
			return nil, err
		}
		return combat.CastSpell{SpellID: arg(1), Target: target}, nil
	case "use", "u":
		if arg(1) == "" {
			return nil, errors.New("use needs an item")
		}
		target, err := parseTarget(arg(2))
		if err != nil {
			return nil, err
		}
		return combat.UseItem{ItemID: arg(1), Target: target}, nil
	}
	return nil, fmt.Errorf("unknown command %q (try help)", fields[0])
}

// parseTarget reads "p<n>" or "m<n>"; the empty string is the zero ID.
func parseTarget(s string) (combat.CombatantID, error) {
	if s == "" {
		return combat.CombatantID{}, nil
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 {
		return combat.CombatantID{}, fmt.Errorf("bad target %q", s)
	}
	switch s[0] {
	case 'p':
		return combat.PlayerID(n), nil
	case 'm':
		return combat.MonsterID(n), nil
	}
	return combat.CombatantID{}, fmt.Errorf("bad target %q", s)
}

// parseGroups reads "goblin:2,shaman" into roster groups.
func parseGroups(s string) ([]npc.Group, error) {
	var groups []npc.Group
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, count, found := strings.Cut(part, ":")
		g := npc.Group{TemplateID: id, Count: 1}
		if found {
			n, err := strconv.Atoi(count)
			if err != nil {
				return nil, fmt.Errorf("bad count in %q: %w", part, err)
			}
			g.Count = n
		}
		groups = append(groups, g)
	}
	if len(groups) == 0 {
		return nil, errors.New("no monsters given")
	}
	return groups, nil
}

func nameOf(snap combat.Snapshot, id combat.CombatantID) string {
	for _, side := range [][]combat.CombatantView{snap.Party, snap.Monsters} {
		for _, c := range side {
			if c.ID == id {
				return c.Name
			}
		}
	}
	return id.String()
}

func printStatus(w io.Writer, snap combat.Snapshot) {
	fmt.Fprintf(w, "round %d\n", snap.Round)
	for _, side := range [][]combat.CombatantView{snap.Party, snap.Monsters} {
		for _, c := range side {
			tag := "p"
			if c.ID.Side == combat.SideMonster {
				tag = "m"
			}
			fmt.Fprintf(w, "  %s%d %-12s HP %3d/%-3d SP %3d/%-3d %s\n",
				tag, c.ID.Index, c.Name, c.HP.Current, c.HP.Max, c.SP.Current, c.SP.Max, c.Lifecycle)
		}
	}
}

// printSpells lists the spells of the actor's school that its level allows,
// with their costs. It says nothing about the actor's current SP.
func printSpells(w io.Writer, rules *combat.Rules, snap combat.Snapshot, actor combat.CombatantID) {
	var view *combat.CombatantView
	for i := range snap.Party {
		if snap.Party[i].ID == actor {
			view = &snap.Party[i]
		}
	}
	if view == nil {
		return
	}
	class, ok := rules.Classes.Class(view.Class)
	if !ok || class.SpellSchool == "" {
		fmt.Fprintf(w, "%s casts no spells\n", view.Name)
		return
	}
	listed := 0
	for _, sp := range rules.Spells.BySchool(class.SpellSchool) {
		if !sp.PermitsCombat() || class.RequiredLevel(sp.RequiredLevel()) > view.Level {
			continue
		}
		cost := fmt.Sprintf("%d SP", sp.SPCost)
		if sp.GemCost > 0 {
			cost += fmt.Sprintf(", %d gem", sp.GemCost)
		}
		fmt.Fprintf(w, "  %-12s %-18s %s (%s)\n", sp.ID, sp.Name, sp.Target, cost)
		listed++
	}
	if listed == 0 {
		fmt.Fprintf(w, "%s knows no spells yet\n", view.Name)
	}
}

func printReport(w io.Writer, rep encounter.Report) {
	fmt.Fprintf(w, "\nencounter %s: %s after %d rounds (seed %d)\n",
		rep.ID, rep.Final.Status, rep.Final.Round, rep.Final.Seed)
	if rep.Final.Diagnostic != "" {
		fmt.Fprintf(w, "  %s\n", rep.Final.Diagnostic)
	}
	printStatus(w, rep.Final)
	if rep.Rewards == nil {
		return
	}
	purse := inventory.Purse{Gold: rep.Rewards.Currency(), Gems: rep.Rewards.Gems()}
	fmt.Fprintf(w, "rewards: %d xp, %s\n", rep.Rewards.Experience(), purse)
	for _, s := range rep.Rewards.Shares() {
		fmt.Fprintf(w, "  %s gains %d xp\n", s.Name, s.Experience)
	}
	for _, it := range rep.Rewards.Items() {
		fmt.Fprintf(w, "  loot: %s x%d\n", it.ItemDefID, it.Quantity)
	}
}
