package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/spf13/cobra"

	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/domain/order"
	"github.com/xenking/great-cookie/internal/storage/postgres"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		status   string
		output   string
		gzipped  bool
		location string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export orders as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (rerr error) {
			loc, err := time.LoadLocation(location)
			if err != nil {
				return errors.Wrapf(err, "load location %q", location)
			}

			pool, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer pool.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(err, "create output")
				}
				defer func() {
					if err := f.Close(); err != nil && rerr == nil {
						rerr = errors.Wrap(err, "close output")
					}
				}()
				w = f
			}
			if gzipped {
				zw := pgzip.NewWriter(w)
				defer func() {
					if err := zw.Close(); err != nil && rerr == nil {
						rerr = errors.Wrap(err, "close gzip")
					}
				}()
				w = zw
			}

			var filter *order.Status
			if status != "" {
				s := order.Status(status)
				filter = &s
			}

			// Operator tooling acts with full admin rights.
			ctx := auth.WithSession(cmd.Context(), auth.Session{
				KeyID:  "cookiectl",
				Name:   "cookiectl",
				Scopes: []string{auth.ScopeAdmin},
			})
			repo := postgres.NewOrderRepository(pool)
			svc := order.NewService(postgres.NewCookieRepository(pool), repo, order.WithLocation(loc))
			if err := svc.Export(ctx, w, filter); err != nil {
				return errors.Wrap(err, "export orders")
			}
			slog.Info("orders exported", slog.String("status", status), slog.String("output", output))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only export orders in this status")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&gzipped, "gzip", false, "gzip the output")
	cmd.Flags().StringVar(&location, "location", "Asia/Manila", "time zone for the Order Date column")

	return cmd
}
