package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"amanah/internal/config"
	"amanah/internal/database"
	"amanah/internal/services"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	var (
		store database.Store
		err   error
	)
	if cfg.CloudMode() {
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		store, err = database.NewFirestoreStore(ctx, cfg.ProjectID, opts...)
	} else {
		store, err = database.NewSQLiteStore(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer func() { _ = store.Close() }()

	res := services.NewSyncService(store, cfg.BatchLimit).SyncDonationTypes(ctx)
	if !res.Success {
		log.Fatalf("Sync failed: %s", res.Message)
	}

	fmt.Printf("Donation sync complete: %d documents updated\n", res.UpdatedCount)
}
