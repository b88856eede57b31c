package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/great-cookie/db"
	"github.com/xenking/great-cookie/internal/seed"
	"github.com/xenking/great-cookie/internal/storage/postgres"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var menuFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the starter menu",
		Long: `Load the starter menu into the cookies table.

Cookies that already exist by name are left untouched, so the command can
be run repeatedly. Without --menu-file the embedded menu is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := db.SeedCookies
			if menuFile != "" {
				slog.Info("reading menu file", slog.String("path", menuFile))
				b, err := os.ReadFile(menuFile)
				if err != nil {
					return errors.Wrap(err, "read menu file")
				}
				data = b
			}
			cookies, err := seed.ParseCookies(data)
			if err != nil {
				return err
			}

			pool, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer pool.Close()

			added, err := seed.Cookies(cmd.Context(), postgres.NewCookieRepository(pool), cookies, time.Now())
			if err != nil {
				return errors.Wrap(err, "seed cookies")
			}
			slog.Info("menu seeded", slog.Int("added", added), slog.Int("total", len(cookies)))
			return nil
		},
	}
	cmd.Flags().StringVar(&menuFile, "menu-file", "", "path to a menu JSON file")

	return cmd
}
