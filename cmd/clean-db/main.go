package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

// clean-db empties every application table of a development database. The
// connection string comes from the first argument or DATABASE_URL.
func main() {
	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		url = os.Args[1]
	}
	if url == "" {
		fmt.Fprintln(os.Stderr, "usage: clean-db <postgres-url> (or set DATABASE_URL)")
		os.Exit(2)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	tables := []string{
		"quotes",
		"vehicles",
		"memberships",
		"role_permissions",
		"custom_roles",
		"organizations",
		"sessions",
		"credentials",
		"users",
	}
	for _, table := range tables {
		if _, err := conn.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{table}.Sanitize()+" CASCADE"); err != nil {
			fmt.Printf("Warning: failed to truncate %s: %v\n", table, err)
			continue
		}
		fmt.Printf("✓ Cleared %s\n", table)
	}
}
