package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"amanah/internal/config"
	"amanah/internal/database"
	"amanah/internal/identity"
	"amanah/internal/services"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Show what would be erased without deleting anything")
	preserve := flag.String("preserve", "", "Comma-separated uids/emails to keep, in addition to PRESERVED_ADMINS")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if !cfg.CloudMode() {
		log.Fatal("GOOGLE_CLOUD_PROJECT must be set; erase only runs against the hosted backends")
	}

	preserved := append([]string{}, cfg.PreservedAdmins...)
	for _, id := range strings.Split(*preserve, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			preserved = append(preserved, trimmed)
		}
	}
	if len(preserved) == 0 {
		log.Fatal("Refusing to run without at least one preserved admin (set PRESERVED_ADMINS or --preserve)")
	}

	ctx := context.Background()

	fbConfig := &firebase.Config{ProjectID: cfg.ProjectID, StorageBucket: cfg.StorageBucket}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize firebase app: %v", err)
	}

	store, err := database.NewFirestoreStore(ctx, cfg.ProjectID, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize document store: %v", err)
	}
	defer func() { _ = store.Close() }()

	dir, err := identity.NewFirebaseDirectory(ctx, app)
	if err != nil {
		log.Fatalf("Failed to initialize identity service: %v", err)
	}

	eraser := services.NewEraseService(store, dir, cfg.BatchLimit)

	if *dryRun {
		fmt.Println("Running erase in DRY RUN mode (no changes will be made)")
	} else {
		fmt.Println("Running erase in EXECUTE mode (DESTRUCTIVE CHANGES)")
		fmt.Printf("Every account and user document except %v will be deleted!\n", preserved)
		fmt.Print("Are you sure you want to continue? (type 'yes' to confirm): ")

		var response string
		_, _ = fmt.Scanln(&response)
		if response != "yes" {
			fmt.Println("Erase cancelled.")
			return
		}
	}

	report, err := eraser.EraseAllExcept(ctx, preserved, *dryRun)
	if err != nil {
		log.Fatalf("Erase failed: %v", err)
	}

	verb := "Deleted"
	if *dryRun {
		verb = "Would delete"
	}
	fmt.Printf("%s %d auth users and %d documents (%d preserved)\n",
		verb, report.AuthUsersDeleted, report.DocsDeleted, report.Preserved)

	if !*dryRun && report.AuthUsersDeleted == 0 && report.DocsDeleted == 0 {
		fmt.Println("Nothing to erase.")
		os.Exit(0)
	}
}
