package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"plantao/backend/pkg/database"
)

// NewMigrateCommand groups the migration subcommands.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrações do banco de dados",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Aplica todas as migrações pendentes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQL(rootOpts, func(a *app) error {
				sqlDB, err := a.db.DB()
				if err != nil {
					return err
				}
				return database.RunMigrations(sqlDB, a.logger)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Reverte migrações",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps deve ser positivo")
			}
			return withSQL(rootOpts, func(a *app) error {
				sqlDB, err := a.db.DB()
				if err != nil {
					return err
				}
				return database.RollbackMigrations(sqlDB, steps, a.logger)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "quantidade de migrações a reverter")
	cmd.AddCommand(down)

	return cmd
}

func withSQL(rootOpts *RootOptions, fn func(a *app) error) error {
	a, err := newApp(rootOpts, false)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
