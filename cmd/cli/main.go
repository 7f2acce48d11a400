package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kinshiphq/backend/internal/database"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kinshipctl",
	Short: "Kinship CLI - operational tooling for the kinship backend",
	Long: `Kinship CLI provides operational commands that run against the
kinship database directly: retention sweeps and development seeding.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
		return database.Initialize()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return database.Close()
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
