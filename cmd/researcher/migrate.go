package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/runtime"
	"github.com/mohammad-safakhou/researcher/internal/store"
)

func migrateCMD(cfgPath *string) *cobra.Command {
	var direction string
	var steps int

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if direction != "up" && direction != "down" {
				return fmt.Errorf("direction must be up or down, got %q", direction)
			}
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			driver, dsn, err := runtime.DataSource(cfg)
			if err != nil {
				return err
			}
			if err := store.Migrate(context.Background(), driver, dsn, direction, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s migrations applied (%s)\n", driver, direction)
			return nil
		},
	}
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
