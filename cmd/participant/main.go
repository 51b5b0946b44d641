// Package main provides the participant binary: a terminal console that joins
// the session relay as a game master or player and resolves the damage
// routed to it.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/config"
	"github.com/cory-johannsen/targeted-damage/internal/console"
	"github.com/cory-johannsen/targeted-damage/internal/game/condition"
	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/injury"
	"github.com/cory-johannsen/targeted-damage/internal/game/report"
	"github.com/cory-johannsen/targeted-damage/internal/game/routing"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
	"github.com/cory-johannsen/targeted-damage/internal/game/soak"
	"github.com/cory-johannsen/targeted-damage/internal/observability"
	"github.com/cory-johannsen/targeted-damage/internal/relay"
	"github.com/cory-johannsen/targeted-damage/internal/scripting"
	"github.com/cory-johannsen/targeted-damage/internal/storage/postgres"
)

// backend is the store-facing half of a participant: entity state, benny
// pools, and an optional transcript sink.
type backend struct {
	store      entity.Store
	pool       soak.ResourcePool
	transcript report.Publisher
	close      func()
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Participant.ID == "" {
		log.Fatalf("participant.id is required")
	}

	base, err := observability.NewLogger(cfg.Logging, "participant")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer base.Sync()
	logger := observability.ForParticipant(base, cfg.Participant)

	rules := config.NewRuleSource(v)
	rules.Watch(func(r config.RulesConfig) {
		logger.Info("rules reloaded",
			zap.Bool("wound_cap", r.WoundCap),
			zap.Bool("gritty_damage", r.GrittyDamage),
			zap.Bool("unarmored_hero", r.UnarmoredHero),
			zap.String("injury_table", r.InjuryTable),
		)
	})

	self := session.Participant{
		ID:          cfg.Participant.ID,
		Name:        cfg.Participant.Name,
		Authority:   cfg.Participant.IsAuthority(),
		Active:      true,
		CharacterID: entity.Ref(cfg.Participant.CharacterID),
	}

	be, err := openBackend(ctx, cfg, self, logger)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}
	defer be.close()

	conditions, err := condition.LoadDirectory(cfg.Content.ConditionsDir)
	if err != nil {
		logger.Fatal("loading conditions", zap.Error(err))
	}

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)

	client, err := relay.Dial(ctx, cfg.Relay.URL, relay.JoinParams{
		ID:          self.ID,
		Name:        self.Name,
		Authority:   self.Authority,
		CharacterID: string(self.CharacterID),
		Key:         cfg.Relay.JoinKey,
	}, logger)
	if err != nil {
		logger.Fatal("joining relay", zap.String("url", cfg.Relay.URL), zap.Error(err))
	}
	defer client.Close()

	sinks := []report.Publisher{client, report.NewLogPublisher(logger)}
	if be.transcript != nil {
		sinks = append(sinks, be.transcript)
	}
	publisher := report.NewMultiPublisher(logger, sinks...)

	deps := soak.Deps{
		Store:     be.store,
		Contester: soak.NewDiceContester(be.store, roller),
		Pool:      be.pool,
		Publisher: publisher,
		Rules:     soak.RulesFunc(rules.Rules),
		Logger:    logger,
	}
	if cfg.Content.InjuryTablesDir != "" {
		tables, err := injury.LoadDirectory(cfg.Content.InjuryTablesDir)
		if err != nil {
			logger.Fatal("loading injury tables", zap.Error(err))
		}
		deps.Injuries = injury.NewDrawer(tables, roller, publisher, logger)
	}

	var scripts *scripting.Manager
	if cfg.Content.ScriptsDir != "" {
		scripts = scripting.NewManager(roller, logger)
		defer scripts.Close()
		if err := scripts.LoadDirectory(cfg.Content.ScriptsDir, cfg.Content.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading scripts", zap.String("dir", cfg.Content.ScriptsDir), zap.Error(err))
		}
		deps.Hooks = scripting.NewDamageHooks(scripts)
	}

	negotiator, err := soak.NewNegotiator(deps)
	if err != nil {
		logger.Fatal("creating negotiator", zap.Error(err))
	}

	con := console.New(console.Config{
		Self:       self,
		Out:        os.Stdout,
		Negotiator: negotiator,
		Roster:     client,
		Rules:      soak.RulesFunc(rules.Rules),
		Store:      be.store,
		Conditions: conditions,
		Logger:     logger,
	})
	con.Attach(routing.NewRouter(self.ID, client, be.store, client, con, con, logger))
	if scripts != nil {
		scripts.Notify = con.NoticeReceived
	}

	relayDone := make(chan error, 1)
	go func() {
		relayDone <- client.Run(ctx, relay.Handlers{
			OnPrompt: con.PromptReceived,
			OnReport: con.ReportReceived,
			OnNotice: func(n relay.Notice) { con.NoticeReceived(n.Message) },
			OnRoster: con.RosterChanged,
		})
		stop()
	}()

	logger.Info("participant initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("store", cfg.Store.Backend),
		zap.String("relay", cfg.Relay.URL),
	)

	if err := con.Run(ctx, os.Stdin); err != nil {
		logger.Error("console error", zap.Error(err))
	}
	stop()
	client.Close()
	if err := <-relayDone; err != nil && !errors.Is(err, relay.ErrClosed) {
		logger.Warn("relay connection ended", zap.Error(err))
	}
}

// openBackend builds the configured store. The memory backend is seeded from
// YAML and keeps state for the life of the process; the postgres backend
// registers self on first run.
func openBackend(ctx context.Context, cfg config.Config, self session.Participant, logger *zap.Logger) (backend, error) {
	if cfg.Store.Backend != "postgres" {
		seeded, err := entity.LoadSeedDirectory(cfg.Store.SeedDir)
		if err != nil {
			return backend{}, err
		}
		mem := entity.NewMemoryStore(seeded...)
		mem.SetParticipantBennies(self.ID, cfg.Participant.Bennies)
		logger.Info("memory store seeded", zap.Int("entities", len(seeded)))
		return backend{store: mem, pool: mem, close: func() {}}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return backend{}, err
	}
	if err := pool.RequireSchema(ctx); err != nil {
		pool.Close()
		return backend{}, err
	}
	participants := postgres.NewParticipantRepository(pool.DB())
	err = participants.Create(ctx, postgres.ParticipantRecord{Participant: self, Bennies: cfg.Participant.Bennies})
	switch {
	case err == nil:
		logger.Info("participant registered", zap.Int("bennies", cfg.Participant.Bennies))
	case errors.Is(err, postgres.ErrParticipantExists):
	default:
		pool.Close()
		return backend{}, err
	}
	return backend{
		store:      postgres.NewEntityRepository(pool.DB()),
		pool:       postgres.NewResourcePool(pool.DB()),
		transcript: postgres.NewTranscriptRepository(pool.DB()),
		close:      pool.Close,
	}, nil
}
