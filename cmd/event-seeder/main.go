package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ecommerce-warehouse/internal/config"
	"ecommerce-warehouse/internal/database"
	"ecommerce-warehouse/internal/generator"
	"ecommerce-warehouse/internal/staging"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	configPath := flag.String("config", "config.yaml", "path to the config file")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for the generated batch")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		exitCode = 1
		return
	}

	events := generator.New(*seed).Batch(cfg.Seeder)
	ctx := context.Background()

	var inserted int
	switch cfg.Staging.Driver {
	case "mongo":
		src := database.NewMongoSource(cfg.Staging.Database)
		if err := src.Connect(cfg.Staging.DSN); err != nil {
			log.Printf("Failed to connect to staging: %v", err)
			exitCode = 1
			return
		}
		defer src.Close()
		inserted, err = staging.InsertEventsMongo(ctx, src, events)
	default:
		var driver database.Driver
		switch cfg.Staging.Driver {
		case "mysql":
			driver = &database.MySQLDriver{}
		case "postgres":
			driver = &database.PostgresDriver{}
		default:
			log.Printf("Unsupported staging driver: %s", cfg.Staging.Driver)
			exitCode = 1
			return
		}
		if err := driver.Connect(cfg.Staging.DSN); err != nil {
			log.Printf("Failed to connect to staging: %v", err)
			exitCode = 1
			return
		}
		defer driver.Close()
		if err := staging.EnsureSchema(ctx, driver); err != nil {
			log.Printf("Failed to ensure staging schema: %v", err)
			exitCode = 1
			return
		}
		inserted, err = staging.InsertEvents(ctx, driver, events)
	}
	if err != nil {
		log.Printf("Failed to load events: %v", err)
		exitCode = 1
		return
	}

	fmt.Printf("Seeded %d of %d generated events into staging\n", inserted, len(events))
}
