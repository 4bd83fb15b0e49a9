// Package main runs a single party-vs-monsters encounter from the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/magic"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	partyPath := flag.String("party", "content/parties/default.yaml", "path to the party YAML file")
	monsters := flag.String("monsters", "goblin:2", "monster groups as template[:count], comma separated")
	seed := flag.Int64("seed", 0, "encounter seed; 0 uses the configured seed")
	handicap := flag.String("handicap", "", "initiative handicap override: even, party_advantage, monster_advantage")
	auto := flag.Bool("auto", false, "let the party attack the weakest monster each turn")
	archive := flag.Bool("archive", false, "store the finished encounter in PostgreSQL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	rules, templates, domains, err := loadContent(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	scriptSeed, err := dice.NewSeed()
	if err != nil {
		logger.Fatal("seeding script dice", zap.Error(err))
	}
	scripts := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(scriptSeed), logger.Named("lua")), logger.Named("scripting"))
	defer scripts.Close()
	if err := loadScripts(scripts, cfg.Scripting, domains); err != nil {
		logger.Fatal("loading scripts", zap.Error(err))
	}
	rules.Hook = scripts

	strategies := ai.NewRegistry(ai.Defensive{HealBelow: cfg.Combat.HealBelow, DefendBelow: cfg.Combat.DefendBelow})
	for _, d := range domains {
		if err := strategies.RegisterDomain(d, scripts.Caller(d.ID)); err != nil {
			logger.Fatal("registering ai domain", zap.String("domain", d.ID), zap.Error(err))
		}
	}

	party, err := character.LoadParty(*partyPath, rules.Classes)
	if err != nil {
		logger.Fatal("loading party", zap.Error(err))
	}
	groups, err := parseGroups(*monsters)
	if err != nil {
		logger.Fatal("parsing monsters", zap.Error(err))
	}
	roster, err := npc.BuildRoster(templates, groups)
	if err != nil {
		logger.Fatal("building monster roster", zap.Error(err))
	}

	opts := combat.Options{
		CanFlee:                cfg.Combat.CanFlee,
		PartyFleeEndsEncounter: cfg.Combat.PartyFleeEndsEncounter,
		Outdoors:               cfg.Combat.Outdoors,
		Handicap:               combat.Handicap(cfg.Combat.Handicap),
		Seed:                   cfg.Combat.Seed,
	}
	if *seed != 0 {
		opts.Seed = *seed
	}
	if *handicap != "" {
		opts.Handicap = combat.Handicap(*handicap)
	}

	mgr := encounter.NewManager(rules, strategies, logger)
	mgr.AddSink(observability.NewEventLogger(logger, zapcore.DebugLevel))
	mgr.AddSink(encounter.SinkFunc(func(_ uuid.UUID, events []combat.Event) {
		for _, e := range events {
			fmt.Println(e.Message)
		}
	}))

	logger.Info("content ready",
		zap.Strings("scopes", scripts.Scopes()),
		zap.Int("domains", len(domains)),
		zap.Duration("elapsed", time.Since(start)),
	)

	sess, err := mgr.Start(party, roster, opts)
	if err != nil {
		logger.Fatal("starting encounter", zap.Error(err))
	}

	var in partyInput = autoInput{}
	if !*auto {
		in = newPrompt(bufio.NewScanner(os.Stdin), os.Stdout, rules)
	}
	switch err := play(sess, in); {
	case errors.Is(err, errQuit):
		sess.Abort("quit")
	case err != nil:
		logger.Fatal("playing encounter", zap.Error(err))
	}

	rep := sess.Report()
	printReport(os.Stdout, rep)

	if *archive {
		if err := archiveReport(cfg.Database, rep, logger); err != nil {
			logger.Fatal("archiving encounter", zap.Error(err))
		}
	}
}

// loadContent reads every reference-data directory named by cfg.
//
// Postcondition: the returned Rules pass Validate and carry no tick hook.
func loadContent(cfg config.ContentConfig, logger *zap.Logger) (*combat.Rules, *npc.Registry, []*ai.Domain, error) {
	conds, err := condition.LoadDirectory(cfg.Path(cfg.Conditions))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("conditions: %w", err)
	}
	spells, err := magic.LoadDirectory(cfg.Path(cfg.Spells))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("spells: %w", err)
	}
	items, err := inventory.LoadRegistry(cfg.Path(cfg.Items))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("items: %w", err)
	}
	rulesetDir := cfg.Path(cfg.Ruleset)
	classes, err := ruleset.Load(filepath.Join(rulesetDir, "classes"), filepath.Join(rulesetDir, "races"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ruleset: %w", err)
	}
	tmpls, err := npc.LoadTemplates(cfg.Path(cfg.Monsters))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("monsters: %w", err)
	}
	templates, err := npc.NewRegistry(tmpls)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("monsters: %w", err)
	}
	domains, err := ai.LoadDomains(cfg.Path(cfg.AI))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ai: %w", err)
	}

	rules := &combat.Rules{Conditions: conds, Spells: spells, Items: items, Classes: classes}
	if err := rules.Validate(); err != nil {
		return nil, nil, nil, err
	}
	logger.Info("content loaded",
		zap.Int("conditions", len(conds.All())),
		zap.Int("items", len(items.AllItems())),
		zap.Int("monsters", len(tmpls)),
		zap.Int("domains", len(domains)),
	)
	return rules, templates, domains, nil
}

// loadScripts loads the condition hooks into the global scope and each AI
// domain's subdirectory, when present, into a scope named after the domain.
func loadScripts(mgr *scripting.Manager, cfg config.ScriptingConfig, domains []*ai.Domain) error {
	if err := mgr.LoadGlobal(cfg.Dir, cfg.InstructionLimit); err != nil {
		return err
	}
	for _, d := range domains {
		dir := filepath.Join(cfg.Dir, d.ID)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := mgr.LoadScope(d.ID, dir, cfg.InstructionLimit); err != nil {
			return err
		}
	}
	return nil
}

func archiveReport(cfg config.DatabaseConfig, rep encounter.Report, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewEncounterRepository(pool.DB())
	if err := repo.Save(ctx, rep); err != nil {
		return err
	}
	logger.Info("encounter archived", zap.String("encounter", rep.ID.String()))
	return nil
}
