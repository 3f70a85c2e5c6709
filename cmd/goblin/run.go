package main

import (
	"fmt"

	"goblin/internal/config"
	"goblin/internal/notify"
	"goblin/internal/runner"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <command> [args...]",
	Short: "Execute a command and send a completion notification to Discord",
	Long: `Run a command, wait for it to finish and post a report with its exit code,
duration and resource usage. goblin exits with the command's own exit code.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhookName, _ := cmd.Flags().GetString("webhook")
		username, _ := cmd.Flags().GetString("username")
		notifyStart, _ := cmd.Flags().GetBool("notify-start")
		includeOutput, _ := cmd.Flags().GetBool("output")
		noStream, _ := cmd.Flags().GetBool("no-stream")

		if err := notify.ValidateUsername(username); err != nil {
			return err
		}

		ep, err := resolveWebhook(cmd.Context(), webhookName)
		if err != nil {
			return err
		}

		cfg := config.Current()
		n := notifierFactory(ep.URL, cfg)
		n.ErrOut = cmd.ErrOrStderr()

		r := runner.New(n, samplerFactory(cfg))
		r.Stdin = cmd.InOrStdin()
		r.Stdout = cmd.OutOrStdout()
		r.Stderr = cmd.ErrOrStderr()

		res, err := r.Run(cmd.Context(), runner.Options{
			Args:          args,
			Stream:        !noStream,
			IncludeOutput: includeOutput,
			NotifyStart:   notifyStart,
			Username:      username,
		})
		if err != nil {
			return err
		}

		appMetrics.ObserveCommand(res.Report.ExitCode, res.Report.Duration)
		if res.Delivered {
			fmt.Fprintln(cmd.OutOrStdout(), success(fmt.Sprintf("Notification sent via '%s'", ep.Name)))
		}
		if res.Report.ExitCode != 0 {
			return &exitCodeError{code: res.Report.ExitCode}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().SetInterspersed(false)
	runCmd.Flags().StringP("webhook", "w", "", "Webhook name to use")
	runCmd.Flags().StringP("username", "u", "", "Custom username (max 80 characters)")
	runCmd.Flags().Bool("notify-start", false, "Send notification when command starts")
	runCmd.Flags().BoolP("output", "o", false, "Include captured stdout/stderr in the notification (with --no-stream)")
	runCmd.Flags().Bool("no-stream", false, "Capture output instead of streaming it to the terminal")
	rootCmd.AddCommand(runCmd)
}
