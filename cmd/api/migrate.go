package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the prediction store's table and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeStore, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer closeStore() //nolint:errcheck

		if err := repo.EnsureIndexes(cmd.Context()); err != nil {
			return eris.Wrap(err, "ensure indexes")
		}
		zap.L().Info("prediction store migrated", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
