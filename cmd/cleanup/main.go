package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/shopfloor/shopfloor/internal/config"
	"github.com/shopfloor/shopfloor/internal/observability/logger"
	"github.com/shopfloor/shopfloor/internal/session"
	"github.com/shopfloor/shopfloor/internal/store/postgres"
	"github.com/shopfloor/shopfloor/internal/store/redis"
)

// cleanup purges expired sessions from the configured session store once.
// It is meant for cron when the server's own sweep is not enough.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	ctx := context.Background()
	var repo session.Repository
	if cfg.Session.Store == config.SessionStoreRedis {
		client, err := redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to redis: %v\n", err)
			os.Exit(1)
		}
		defer client.Close()
		repo = redis.NewSessionRepository(client)
	} else {
		db, err := postgres.New(ctx, postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			Database:     cfg.Database.Database,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: 1,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = postgres.NewSessionRepository(db)
	}

	n, err := repo.DeleteExpired(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cleanup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d expired sessions.\n", n)
}
