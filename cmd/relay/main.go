// Package main provides the session relay binary. The relay keeps the table's
// roster and forwards prompts and reports between participant processes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/config"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
	"github.com/cory-johannsen/targeted-damage/internal/observability"
	"github.com/cory-johannsen/targeted-damage/internal/relay"
	"github.com/cory-johannsen/targeted-damage/internal/server"
	"github.com/cory-johannsen/targeted-damage/internal/storage/postgres"
)

const healthService = "targeted_damage.Relay"

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	hashKey := flag.String("hash-key", "", "print the bcrypt hash of the given join key and exit")
	flag.Parse()

	if *hashKey != "" {
		hash, err := relay.HashJoinKey(*hashKey)
		if err != nil {
			log.Fatalf("hashing join key: %v", err)
		}
		fmt.Fprintln(os.Stdout, hash)
		return
	}

	ctx := context.Background()

	cfg, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "relay")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	roster := session.NewRoster()
	lifecycle := server.NewLifecycle(logger)

	if cfg.Store.Backend == "postgres" {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		if err := pool.RequireSchema(ctx); err != nil {
			logger.Fatal("checking schema", zap.Error(err))
		}
		known, err := postgres.NewParticipantRepository(pool.DB()).List(ctx)
		if err != nil {
			logger.Fatal("listing participants", zap.Error(err))
		}
		for _, p := range known {
			p.Active = false
			roster.Upsert(p)
		}
		logger.Info("roster seeded from database", zap.Int("participants", len(known)))

		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				for {
					time.Sleep(30 * time.Second)
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			},
			StopFn: func() {
				pool.Close()
			},
		})
	}

	hub := relay.NewHub(roster, logger)
	srv := relay.NewServer(hub, cfg.Relay.JoinKeyHash, cfg.Relay.WriteTimeout, logger)
	lifecycle.Add("http", server.NewHTTPService(cfg.Relay.Addr(), srv.Router(), 5*time.Second, logger))

	if cfg.Relay.GRPCPort > 0 {
		health := server.NewGRPCHealthService(cfg.Relay.GRPCAddr(), logger, healthService)
		lifecycle.Add("grpc-health", health)
	}

	logger.Info("relay initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Relay.Addr()),
		zap.Bool("join_key_required", cfg.Relay.JoinKeyHash != ""),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("relay error", zap.Error(err))
	}
}
