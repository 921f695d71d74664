package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/jobkit/pkg/engine"
)

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the relational schema of the configured store",
		Long: `Apply the embedded migrations of the Postgres or Sqlite store. Other commands
migrate on start as well; use this to prepare the database ahead of a deploy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind := a.cfg.StoreKind()
			if kind != engine.KindPostgres && kind != engine.KindSqlite {
				fmt.Fprintf(cmd.OutOrStdout(), "%s store has no schema to migrate\n", kind)
				return nil
			}

			b, err := engine.OpenStore(cmd.Context(), a.cfg, a.log, true)
			if err != nil {
				return err
			}
			defer b.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", kind)
			return nil
		},
	}
}
