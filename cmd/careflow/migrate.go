package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Reaishma/Healthcare-informatics-solution/config"
	"github.com/Reaishma/Healthcare-informatics-solution/storage"
)

func newMigrateCommand(load func() (config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	withMigrator := func(run func(cmd *cobra.Command, mg *storage.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("postgres.dsn is not set (CAREFLOW_POSTGRES_DSN)")
			}
			pg, err := storage.NewPostgresStorage(storage.PostgresOptions{DSN: cfg.Postgres.DSN})
			if err != nil {
				return err
			}
			mg, err := storage.NewMigrator(pg.DB())
			if err != nil {
				_ = pg.Close()
				return err
			}
			defer mg.Close()
			return run(cmd, mg)
		}
	}

	stepsArg := func(args []string) (int, error) {
		if len(args) == 0 {
			return 0, nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid step count %q", args[0])
		}
		return n, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up [N]",
		Short: "Apply N pending migrations, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := stepsArg(args)
			if err != nil {
				return err
			}
			return withMigrator(func(cmd *cobra.Command, mg *storage.Migrator) error {
				applied, err := mg.Up(steps)
				if err != nil {
					return err
				}
				return report(cmd, mg, applied)
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [N]",
		Short: "Roll back N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := stepsArg(args)
			if err != nil {
				return err
			}
			return withMigrator(func(cmd *cobra.Command, mg *storage.Migrator) error {
				reverted, err := mg.Down(steps)
				if err != nil {
					return err
				}
				return report(cmd, mg, reverted)
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, mg *storage.Migrator) error {
			return report(cmd, mg, false)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force V",
		Short: "Mark the schema as version V without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(func(cmd *cobra.Command, mg *storage.Migrator) error {
				if err := mg.Force(v); err != nil {
					return err
				}
				return report(cmd, mg, true)
			})(cmd, args)
		},
	})

	return cmd
}

func report(cmd *cobra.Command, mg *storage.Migrator, changed bool) error {
	v, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	state := "unchanged"
	if changed {
		state = "changed"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t, %s)\n", v, dirty, state)
	return err
}
