/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pointsboard",
	Short: "Backend for the pointsboard score tracker",
	Long: `Backend for the pointsboard score tracker: a CRUD API over user
records with a points leaderboard, QR artifact generation for inserted
users, and a periodic winner-selection job.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
