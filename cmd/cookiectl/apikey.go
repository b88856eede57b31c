package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/great-cookie/internal/seed"
	"github.com/xenking/great-cookie/internal/storage/postgres"
)

const secretBytes = 32

func newAPIKeyCommand(opts *rootOptions) *cobra.Command {
	var (
		name   string
		secret string
	)

	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Register an admin API key",
		Long: `Register an admin API key and print its secret.

Only the HMAC hash of the secret is stored; the secret cannot be recovered
later. A random secret is generated unless --secret is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Pepper == "" {
				slog.Warn("api key pepper is empty, hashes will not match a peppered server")
			}
			if secret == "" {
				buf := make([]byte, secretBytes)
				if _, err := rand.Read(buf); err != nil {
					return errors.Wrap(err, "generate secret")
				}
				secret = hex.EncodeToString(buf)
			}

			pool, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer pool.Close()

			id, err := seed.APIKey(cmd.Context(), postgres.NewAPIKeyRepository(pool), []byte(opts.Pepper), name, secret)
			if err != nil {
				return err
			}
			slog.Info("api key registered", slog.String("id", id), slog.String("name", name))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), secret)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "admin", "key owner label")
	cmd.Flags().StringVar(&secret, "secret", "", "use this secret instead of a random one")

	return cmd
}
