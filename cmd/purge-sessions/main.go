// purge-sessions removes expired gateway sessions. Meant to run from cron
// when several gateway instances share one database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/EmpoweredVote/jobmarket/internal/logger"
)

func main() {
	_ = godotenv.Load(".env.local")
	logger.Setup(os.Getenv("LOG_LEVEL"))

	dryRun := flag.Bool("dry-run", false, "count expired sessions without deleting them")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal().Msg("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("DB connection error")
	}
	defer pool.Close()

	if *dryRun {
		var n int64
		err := pool.QueryRow(ctx, `SELECT count(*) FROM gateway.sessions WHERE expires_at < now()`).Scan(&n)
		if err != nil {
			log.Fatal().Err(err).Msg("count expired sessions")
		}
		fmt.Printf("%d expired sessions\n", n)
		return
	}

	tag, err := pool.Exec(ctx, `DELETE FROM gateway.sessions WHERE expires_at < now()`)
	if err != nil {
		log.Fatal().Err(err).Msg("delete expired sessions")
	}
	fmt.Printf("✓ Deleted %d expired sessions\n", tag.RowsAffected())
}
