package main

import (
	"context"
	"log"
	"net/http"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"amanah/internal/auth"
	"amanah/internal/config"
	"amanah/internal/database"
	"amanah/internal/handlers"
	"amanah/internal/identity"
	"amanah/internal/secrets"
	"amanah/internal/services"
	"amanah/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if result := cfg.Validate(); !result.Valid() {
		for _, e := range result.Errors {
			log.Printf("Config error: %s", e)
		}
		log.Fatal("Invalid configuration")
	} else {
		for _, w := range result.Warnings {
			log.Printf("Config warning: %s", w)
		}
	}

	ctx := context.Background()

	var (
		store    database.Store
		blobs    storage.BlobStore
		dir      identity.Directory
		verifier identity.TokenVerifier
	)

	if cfg.CloudMode() {
		app, err := newFirebaseApp(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize firebase app: ", err)
		}

		store, err = database.NewFirestoreStore(ctx, cfg.ProjectID)
		if err != nil {
			log.Fatal("Failed to initialize document store: ", err)
		}

		blobs, err = storage.NewCloudStore(ctx, app)
		if err != nil {
			log.Fatal("Failed to initialize blob store: ", err)
		}

		fbDir, err := identity.NewFirebaseDirectory(ctx, app)
		if err != nil {
			log.Fatal("Failed to initialize identity service: ", err)
		}
		dir, verifier = fbDir, fbDir
	} else {
		log.Printf("No project id set, running in local mode")

		var err error
		store, err = database.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			log.Fatal("Failed to initialize local store: ", err)
		}

		blobs, err = storage.NewDiskStore(cfg.BlobDir)
		if err != nil {
			log.Fatal("Failed to initialize local blob store: ", err)
		}
	}
	defer func() { _ = store.Close() }()

	campaignService := services.NewCampaignService(store, blobs, cfg.BatchLimit)
	userService := services.NewUserService(store, dir)
	syncService := services.NewSyncService(store, cfg.BatchLimit)
	handler := handlers.NewAdminHandler(campaignService, userService, syncService)

	if os.Getenv("GIN_MODE") == "" && cfg.CloudMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := auth.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	api := r.Group("/api")
	api.Use(auth.RateLimitMiddleware(limiter))
	api.Use(auth.RequireAdmin(verifier))
	{
		campaigns := api.Group("/campaigns", handlers.SetKind(database.KindCampaign))
		{
			campaigns.GET("", handler.ListAggregates)
			campaigns.POST("/:id/copy", handler.CopyAggregate)
			campaigns.DELETE("/:id", handler.DeleteAggregate)
		}

		leads := api.Group("/leads", handlers.SetKind(database.KindLead))
		{
			leads.GET("", handler.ListAggregates)
			leads.POST("/:id/copy", handler.CopyAggregate)
			leads.DELETE("/:id", handler.DeleteAggregate)
		}

		api.POST("/donations/sync", handler.SyncDonations)
		api.DELETE("/users/:email", handler.DeleteUser)
		api.PUT("/users/:email/contact", handler.UpdateUserContact)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(r.Run(":" + cfg.Port))
}

// newFirebaseApp wires the admin SDK with explicit credentials when a
// file is configured or stored in Secret Manager, otherwise with
// application default credentials.
func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	fbConfig := &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}

	if cfg.CredentialsFile != "" {
		return firebase.NewApp(ctx, fbConfig, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	if creds, err := secrets.GetServiceAccountJSON(ctx); err == nil {
		return firebase.NewApp(ctx, fbConfig, option.WithCredentialsJSON(creds))
	}

	return firebase.NewApp(ctx, fbConfig)
}
