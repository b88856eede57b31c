// Command cookiectl performs operator tasks against the bakery database.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	_ "time/tzdata"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/xenking/great-cookie/internal/storage/postgres"
)

type rootOptions struct {
	DatabaseURL string
	Pepper      string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("cookiectl failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "cookiectl",
		Short:         "Operator tooling for the bakery API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if opts.DatabaseURL == "" {
				opts.DatabaseURL = os.Getenv("DATABASE_URL")
			}
			if opts.DatabaseURL == "" {
				return errors.New("database URL is required: set --database-url or DATABASE_URL")
			}
			if opts.Pepper == "" {
				opts.Pepper = os.Getenv("BAKERY_API_KEY_PEPPER")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", os.Getenv("BAKERY_DATABASE_URL"), "PostgreSQL connection URL (or DATABASE_URL env)")
	cmd.PersistentFlags().StringVar(&opts.Pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or BAKERY_API_KEY_PEPPER env)")

	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newAPIKeyCommand(opts))
	cmd.AddCommand(newExportCommand(opts))

	return cmd
}

// connect opens the pool and brings the schema up to date.
func connect(ctx context.Context, opts *rootOptions) (*pgxpool.Pool, error) {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return pool, nil
}
