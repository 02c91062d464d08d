package main

import (
	"flag"
	"fmt"

	"cine-catalog/catalog"
	"cine-catalog/config"
	"cine-catalog/logging"
	"cine-catalog/notifier"
	"cine-catalog/storage"
)

// Sends a refresh summary for the stored snapshot, or a sample catalog when
// no snapshot exists, so SMTP settings can be checked without a full refresh.
func main() {
	useSample := flag.Bool("sample", false, "Send a sample catalog instead of the stored snapshot")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		baseLogger := logging.Base()
		baseLogger.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Configure(logging.Config{Level: cfg.LogLevel})
	logger := logging.WithComponent("notify")

	if !cfg.Email.Enabled() {
		logger.Fatal().Msg("email is not configured: set EMAIL_SMTP_HOST and EMAIL_RECIPIENT")
	}

	items := sampleItems()
	if !*useSample {
		var snapshots storage.StorageInterface = storage.NewSQLiteStorage(cfg.DataPath)
		if err := snapshots.Initialize(); err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize storage")
		}
		defer snapshots.Close()

		stored, err := snapshots.LoadSnapshot()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load snapshot")
		}
		if len(stored) > 0 {
			items = stored
		}
	}

	n, err := notifier.NewEmailNotifier(cfg.Email)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create email notifier")
	}
	if err := n.NotifyRefresh(items, 0); err != nil {
		logger.Fatal().Err(err).Msg("failed to send email")
	}
	fmt.Printf("Summary for %d titles sent to %s\n", len(items), cfg.Email.RecipientEmail)
}

func sampleItems() []catalog.Item {
	return []catalog.Item{
		{ID: 1, Title: "Sample Movie", Year: 2024, Rating: "12", Genre: "Drama", Kind: catalog.KindMovie, Language: "English"},
		{ID: 2, Title: "Sample Series", Rating: "15", Genre: "Crime", Kind: catalog.KindSeries, Language: "Portuguese"},
	}
}
