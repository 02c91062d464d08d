package main

import (
	"flag"
	"fmt"
	"os"

	"cine-catalog/logging"
	"cine-catalog/storage"
)

func main() {
	var (
		dataPath = flag.String("data", "./data", "Path to database directory")
		command  = flag.String("cmd", "up", "Command: up, down, status, version, reset, stats, history")
		limit    = flag.Int("limit", 10, "Number of refresh log entries for history")
	)
	flag.Parse()

	logging.Configure(logging.Config{Level: "info"})
	logger := logging.WithComponent("migrate")

	snapshots := storage.NewSQLiteStorage(*dataPath)
	if err := snapshots.Initialize(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer snapshots.Close()

	mm, err := snapshots.Migrations()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize migrations")
	}

	switch *command {
	case "up", "down", "status", "reset":
		if err := mm.Run(*command); err != nil {
			logger.Fatal().Err(err).Str("command", *command).Msg("migration command failed")
		}
		if *command != "status" {
			fmt.Printf("Migration command %q completed successfully\n", *command)
		}

	case "version":
		version, err := mm.Version()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to get database version")
		}
		fmt.Printf("Database version: %d\n", version)

	case "stats":
		stats, err := snapshots.GetStats()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to read snapshot stats")
		}
		fmt.Printf("Titles: %d (movies: %d, series: %d)\n", stats["total"], stats["movies"], stats["series"])

	case "history":
		records, err := snapshots.LastRefreshes(*limit)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to read refresh log")
		}
		for _, r := range records {
			fmt.Printf("%s  items=%d movies=%d series=%d\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"), r.Items, r.Movies, r.Series)
		}

	default:
		fmt.Printf("Unknown command: %s\n", *command)
		fmt.Println("Available commands: up, down, status, version, reset, stats, history")
		os.Exit(1)
	}
}
