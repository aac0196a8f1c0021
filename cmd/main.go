// cmd is the application entry point. It wires together all layers behind
// a small cobra CLI: serve, migrate and reconcile.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/config"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:           "motorsport-club",
	Short:         "Motorsport club API: members, cars, events, mechanics and academy",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		log.Init(os.Stderr, log.ParseLevel(cfg.Log.Level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (YAML); environment variables override it")
	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
