package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"ecommerce-warehouse/internal/config"
	"ecommerce-warehouse/internal/database"
	"ecommerce-warehouse/internal/pipeline"
	"ecommerce-warehouse/internal/pkg/logger"
	"ecommerce-warehouse/internal/staging"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		exitCode = 1
		return
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Printf("Failed to build logger: %v", err)
		exitCode = 1
		return
	}
	defer logg.Sync()

	reader, closeStaging, err := openStaging(cfg.Staging)
	if err != nil {
		logg.Error("failed to connect to staging", "driver", cfg.Staging.Driver, "err", err)
		exitCode = 1
		return
	}
	defer closeStaging()

	wh, err := openWarehouse(cfg.Warehouse)
	if err != nil {
		logg.Error("failed to connect to warehouse", "driver", cfg.Warehouse.Driver, "err", err)
		exitCode = 1
		return
	}
	defer wh.Close()

	p := pipeline.New(reader, wh, cfg.Segments, logg)
	report, err := p.Run(context.Background())
	if err != nil {
		if errors.Is(err, pipeline.ErrRunLockHeld) {
			logg.Warn("transform already running against this warehouse")
		} else {
			logg.Error("transform run failed", "err", err)
		}
		exitCode = 1
		return
	}

	jsonOutput, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logg.Error("failed to marshal report", "err", err)
		exitCode = 1
		return
	}
	fmt.Println(string(jsonOutput))
}

func openStaging(ep config.Endpoint) (staging.Reader, func() error, error) {
	switch ep.Driver {
	case "mongo":
		src := database.NewMongoSource(ep.Database)
		if err := src.Connect(ep.DSN); err != nil {
			return nil, nil, err
		}
		return &staging.MongoReader{Source: src}, src.Close, nil
	default:
		driver, err := openSQL(ep)
		if err != nil {
			return nil, nil, err
		}
		return &staging.SQLReader{DB: driver}, driver.Close, nil
	}
}

func openWarehouse(ep config.Endpoint) (database.Driver, error) {
	return openSQL(ep)
}

func openSQL(ep config.Endpoint) (database.Driver, error) {
	var driver database.Driver
	switch ep.Driver {
	case "mysql":
		driver = &database.MySQLDriver{}
	case "postgres":
		driver = &database.PostgresDriver{}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", ep.Driver)
	}
	if err := driver.Connect(ep.DSN); err != nil {
		return nil, err
	}
	return driver, nil
}
