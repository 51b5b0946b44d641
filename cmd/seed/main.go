// Package main provides a CLI tool that loads entity YAML into PostgreSQL and
// adjusts participant benny pools.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/targeted-damage/internal/config"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	entitiesDir := flag.String("entities", "", "directory of entity YAML files to upsert (default: store.seed_dir)")
	participant := flag.String("participant", "", "participant whose benny pool to set")
	bennies := flag.Int("bennies", -1, "benny count for -participant")
	flag.Parse()

	if *participant != "" && *bennies < 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	dir := *entitiesDir
	if dir == "" {
		dir = cfg.Store.SeedDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	if err := pool.RequireSchema(ctx); err != nil {
		log.Fatalf("%v", err)
	}

	seeded, err := entity.LoadSeedDirectory(dir)
	if err != nil {
		log.Fatalf("loading entities from %s: %v", dir, err)
	}
	repo := postgres.NewEntityRepository(pool.DB())
	for _, e := range seeded {
		if err := repo.Upsert(ctx, e); err != nil {
			log.Fatalf("upserting %s: %v", e.ID, err)
		}
	}
	fmt.Fprintf(os.Stdout, "upserted %d entities from %s\n", len(seeded), dir)

	if *participant != "" {
		participants := postgres.NewParticipantRepository(pool.DB())
		rec, err := participants.Get(ctx, *participant)
		if err != nil {
			log.Fatalf("looking up participant %q: %v", *participant, err)
		}
		if err := participants.SetBennies(ctx, rec.ID, *bennies); err != nil {
			log.Fatalf("setting bennies: %v", err)
		}
		fmt.Fprintf(os.Stdout, "set bennies for %s: %d -> %d\n", rec.ID, rec.Bennies, *bennies)
	}

	fmt.Fprintf(os.Stdout, "done [%s]\n", time.Since(start).Round(time.Millisecond))
}
