package cmd

import (
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/mission-control/configs"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "mcctl",
	Short:         "Mission Control maintenance commands",
	Long:          color.CyanString("mcctl") + " syncs markdown trackers into the store and triggers publish runs.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command and prints any error in red.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		color.Red("error: %v", err)
	}
	return err
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(publishDueCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.PostgresURI == "" {
		return nil, fmt.Errorf("POSTGRES_URI is not set")
	}
	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}
	return db, nil
}
