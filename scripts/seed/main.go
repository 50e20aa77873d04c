// seed inserts fixture todos for a user. Run from project root:
// go run ./scripts/seed -user seed-user -n 1000
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/NarekNk/todo-task/internal/config"
	"github.com/NarekNk/todo-task/internal/database"
)

func main() {
	_ = godotenv.Load()

	user := flag.String("user", "seed-user", "owner of the seeded todos")
	total := flag.Int("n", 1000, "number of todos to insert")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Config failed:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL not set")
		os.Exit(1)
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "DB connection failed:", err)
		os.Exit(1)
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	const batchSize = 500
	start := time.Now()
	inserted := 0
	for inserted < *total {
		n := batchSize
		if remaining := *total - inserted; remaining < n {
			n = remaining
		}
		args := make([]interface{}, 0, n*3)
		placeholders := make([]string, 0, n)
		for i := 0; i < n; i++ {
			placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,FALSE,$%d,NOW())",
				3*i+1, 3*i+2, 3*i+3))
			args = append(args,
				uuid.New().String(),
				fmt.Sprintf("Todo %d", inserted+i+1),
				*user,
			)
		}
		q := `INSERT INTO todos (id, title, done, user_id, created_at) VALUES ` +
			strings.Join(placeholders, ",")
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			fmt.Fprintln(os.Stderr, "Insert failed:", err)
			os.Exit(1)
		}
		inserted += n
		fmt.Printf("\rInserted %d / %d", inserted, *total)
	}

	fmt.Printf("\nDone: %d todos in %v\n", inserted, time.Since(start))
}
