/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/pointsboard/apiserver/config"
	"github.com/pointsboard/apiserver/internal/db"
	"github.com/pointsboard/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// resetScoresCmd represents the reset-scores command.
var resetScoresCmd = &cobra.Command{
	Use:   "reset-scores",
	Short: "Reset all user scores to 0",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		affected, err := store.NewUserRepository(dbConn).ResetAllPoints(cmd.Context())
		if err != nil {
			return fmt.Errorf("reset scores: %w", err)
		}

		fmt.Printf("All scores have been reset to 0 (%d users)\n", affected)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetScoresCmd)
}
