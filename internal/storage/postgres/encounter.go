package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

// ErrEncounterNotFound is returned when an archived encounter lookup yields no results.
var ErrEncounterNotFound = errors.New("encounter not found")

// ErrEncounterExists is returned when archiving an encounter ID twice.
var ErrEncounterExists = errors.New("encounter already archived")

// EncounterSummary is the top-level row of an archived encounter.
type EncounterSummary struct {
	ID         uuid.UUID
	Seed       int64
	Status     string
	Rounds     int
	Diagnostic string
	Experience int
	Currency   int
	Gems       int
	Draws      int64
	CreatedAt  time.Time
}

// ArchivedCombatant is a combatant's final state.
type ArchivedCombatant struct {
	Combatant   string
	Name        string
	TemplateID  string
	Class       string
	Level       int
	HP          int
	MaxHP       int
	SP          int
	MaxSP       int
	Lifecycle   string
	DamageDealt int
}

// ArchivedEvent is one event of the battle log.
type ArchivedEvent struct {
	Seq       int
	Round     int
	Kind      string
	Actor     string
	Target    string
	Amount    int
	Roll      int
	Condition string
	Spell     string
	Item      string
	Message   string
}

// ArchivedShare is one party member's experience award.
type ArchivedShare struct {
	Combatant  string
	Name       string
	Experience int
}

// ArchivedEncounter is an encounter as read back from the archive, without its events.
type ArchivedEncounter struct {
	EncounterSummary
	Combatants []ArchivedCombatant
	Loot       []npc.LootItem
	Shares     []ArchivedShare
}

// EncounterRepository archives finished encounters as battle reports.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

func pgUUID(id uuid.UUID) pgtype.UUID { return pgtype.UUID{Bytes: id, Valid: true} }

func idString(id combat.CombatantID) string {
	if id.IsZero() {
		return ""
	}
	return id.String()
}

// Save writes the report in a single transaction.
//
// Precondition: rep.ID must be non-zero.
// Postcondition: Returns ErrEncounterExists if rep.ID was already archived.
func (r *EncounterRepository) Save(ctx context.Context, rep encounter.Report) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	final := rep.Final
	var xp, currency, gems int
	if rep.Rewards != nil {
		xp, currency, gems = rep.Rewards.Experience(), rep.Rewards.Currency(), rep.Rewards.Gems()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO encounters
			(id, seed, status, rounds, diagnostic, experience, currency, gems, draws)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		pgUUID(rep.ID), final.Seed, final.Status.String(), final.Round, final.Diagnostic,
		xp, currency, gems, int64(final.Draws),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrEncounterExists
		}
		return fmt.Errorf("inserting encounter: %w", err)
	}

	var combatants [][]any
	for _, views := range [][]combat.CombatantView{final.Party, final.Monsters} {
		for _, v := range views {
			combatants = append(combatants, []any{
				pgUUID(rep.ID), v.ID.String(), v.Name, v.TemplateID, v.Class, v.Level,
				v.HP.Current, v.HP.Max, v.SP.Current, v.SP.Max, v.Lifecycle.String(),
				final.DamageDealt[v.ID],
			})
		}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"encounter_combatants"},
		[]string{"encounter_id", "combatant", "name", "template_id", "class", "level",
			"current_hp", "max_hp", "current_sp", "max_sp", "lifecycle", "damage_dealt"},
		pgx.CopyFromRows(combatants),
	); err != nil {
		return fmt.Errorf("inserting combatants: %w", err)
	}

	events := make([][]any, 0, len(rep.Events))
	for i, e := range rep.Events {
		events = append(events, []any{
			pgUUID(rep.ID), i, e.Round, string(e.Kind), idString(e.Actor), idString(e.Target),
			e.Amount, e.Roll, e.Condition, e.Spell, e.Item, e.Message,
		})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"encounter_events"},
		[]string{"encounter_id", "seq", "round", "kind", "actor", "target",
			"amount", "roll", "condition_id", "spell_id", "item_id", "message"},
		pgx.CopyFromRows(events),
	); err != nil {
		return fmt.Errorf("inserting events: %w", err)
	}

	if rep.Rewards != nil {
		for _, item := range rep.Rewards.Items() {
			instance, err := uuid.Parse(item.InstanceID)
			if err != nil {
				return fmt.Errorf("loot instance id %q: %w", item.InstanceID, err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO encounter_loot (instance_id, encounter_id, item_def_id, quantity)
				VALUES ($1,$2,$3,$4)`,
				pgUUID(instance), pgUUID(rep.ID), item.ItemDefID, item.Quantity,
			); err != nil {
				return fmt.Errorf("inserting loot: %w", err)
			}
		}
		for _, sh := range rep.Rewards.Shares() {
			if _, err := tx.Exec(ctx, `
				INSERT INTO encounter_shares (encounter_id, combatant, name, experience)
				VALUES ($1,$2,$3,$4)`,
				pgUUID(rep.ID), sh.Member.String(), sh.Name, sh.Experience,
			); err != nil {
				return fmt.Errorf("inserting share: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing encounter: %w", err)
	}
	return nil
}

const summaryColumns = `id, seed, status, rounds, diagnostic, experience, currency, gems, draws, created_at`

func scanSummary(row pgx.Row) (EncounterSummary, error) {
	var s EncounterSummary
	var id pgtype.UUID
	err := row.Scan(&id, &s.Seed, &s.Status, &s.Rounds, &s.Diagnostic,
		&s.Experience, &s.Currency, &s.Gems, &s.Draws, &s.CreatedAt)
	s.ID = uuid.UUID(id.Bytes)
	return s, err
}

// Get returns the archived encounter with its combatants and rewards.
//
// Postcondition: Returns ErrEncounterNotFound if id was never archived.
func (r *EncounterRepository) Get(ctx context.Context, id uuid.UUID) (*ArchivedEncounter, error) {
	summary, err := scanSummary(r.db.QueryRow(ctx,
		`SELECT `+summaryColumns+` FROM encounters WHERE id = $1`, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEncounterNotFound
		}
		return nil, fmt.Errorf("querying encounter: %w", err)
	}
	out := &ArchivedEncounter{EncounterSummary: summary}

	rows, err := r.db.Query(ctx, `
		SELECT combatant, name, template_id, class, level, current_hp, max_hp,
		       current_sp, max_sp, lifecycle, damage_dealt
		FROM encounter_combatants WHERE encounter_id = $1 ORDER BY combatant`, pgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("querying combatants: %w", err)
	}
	out.Combatants, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (ArchivedCombatant, error) {
		var c ArchivedCombatant
		err := row.Scan(&c.Combatant, &c.Name, &c.TemplateID, &c.Class, &c.Level,
			&c.HP, &c.MaxHP, &c.SP, &c.MaxSP, &c.Lifecycle, &c.DamageDealt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning combatants: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT instance_id, item_def_id, quantity
		FROM encounter_loot WHERE encounter_id = $1 ORDER BY item_def_id, instance_id`, pgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("querying loot: %w", err)
	}
	out.Loot, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (npc.LootItem, error) {
		var item npc.LootItem
		var instance pgtype.UUID
		err := row.Scan(&instance, &item.ItemDefID, &item.Quantity)
		item.InstanceID = uuid.UUID(instance.Bytes).String()
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning loot: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT combatant, name, experience
		FROM encounter_shares WHERE encounter_id = $1 ORDER BY combatant`, pgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("querying shares: %w", err)
	}
	out.Shares, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (ArchivedShare, error) {
		var sh ArchivedShare
		err := row.Scan(&sh.Combatant, &sh.Name, &sh.Experience)
		return sh, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning shares: %w", err)
	}
	return out, nil
}

// Events returns the battle log of an archived encounter in order.
//
// Postcondition: Returns an empty slice for unknown IDs.
func (r *EncounterRepository) Events(ctx context.Context, id uuid.UUID) ([]ArchivedEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT seq, round, kind, actor, target, amount, roll, condition_id, spell_id, item_id, message
		FROM encounter_events WHERE encounter_id = $1 ORDER BY seq`, pgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ArchivedEvent, error) {
		var e ArchivedEvent
		err := row.Scan(&e.Seq, &e.Round, &e.Kind, &e.Actor, &e.Target,
			&e.Amount, &e.Roll, &e.Condition, &e.Spell, &e.Item, &e.Message)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning events: %w", err)
	}
	return events, nil
}

// ListRecent returns up to limit encounters, newest first.
//
// Precondition: limit > 0.
func (r *EncounterRepository) ListRecent(ctx context.Context, limit int) ([]EncounterSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+summaryColumns+` FROM encounters ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing encounters: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (EncounterSummary, error) {
		return scanSummary(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning encounters: %w", err)
	}
	return out, nil
}

// Delete removes an archived encounter and everything attached to it.
//
// Postcondition: Returns ErrEncounterNotFound if id was never archived.
func (r *EncounterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM encounters WHERE id = $1`, pgUUID(id))
	if err != nil {
		return fmt.Errorf("deleting encounter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEncounterNotFound
	}
	return nil
}
