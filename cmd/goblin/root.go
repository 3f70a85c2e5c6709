package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"goblin/internal/config"
	"goblin/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exit = os.Exit
var cfgFile string

// appMetrics collects counters for the current invocation.
var appMetrics = telemetry.NewMetrics()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "goblin",
	Short: "Discord notifications for your shell",
	Long: `goblin keeps a registry of named Discord webhooks, sends one-off messages
through them, and runs commands while reporting how they went.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd.Root())
		if err := config.Load(cfgFile); err != nil {
			return err
		}
		if err := config.ValidateConfig(); err != nil {
			return err
		}
		cfg := config.Current()
		telemetry.InitLogger(cfg.Verbose, cfg.LogFile)
		slog.Debug("configuration loaded", "store", cfg.StoreType, "path", cfg.StorePath)
		return nil
	},
}

// exitCodeError carries a subprocess exit status up to Execute.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Wrap Execute in panic recovery for graceful shutdown
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	err := rootCmd.Execute()
	flushMetrics()
	if code := exitCodeFor(err, rootCmd.ErrOrStderr()); code != 0 {
		exit(code)
	}
}

// exitCodeFor prints err for the operator and returns the process exit status.
func exitCodeFor(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var ec *exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	fmt.Fprintln(stderr, errorStyle.Render("Error: "+err.Error()))
	return 1
}

func flushMetrics() {
	path := viper.GetString("metrics.textfile")
	if path == "" {
		return
	}
	if err := appMetrics.WriteTextfile(path); err != nil {
		slog.Warn("metrics not written", "path", path, "error", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.goblin-messenger/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("db", "", "SQLite database file (overrides store.path)")
}

// bindFlags ties persistent flags to their viper keys.
func bindFlags(root *cobra.Command) {
	viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("store.path", root.PersistentFlags().Lookup("db"))
}
