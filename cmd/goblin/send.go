package main

import (
	"fmt"

	"goblin/internal/config"
	"goblin/internal/notify"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a message to Discord",
	Long:  `Send a message (at most 2000 characters) through a saved webhook.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		webhookName, _ := cmd.Flags().GetString("webhook")
		username, _ := cmd.Flags().GetString("username")

		msg, err := notify.NewMessage(args[0], username)
		if err != nil {
			return err
		}

		ep, err := resolveWebhook(cmd.Context(), webhookName)
		if err != nil {
			return err
		}

		n := notifierFactory(ep.URL, config.Current())
		n.ErrOut = cmd.ErrOrStderr()
		if !n.Deliver(cmd.Context(), msg) {
			// Deliver already reported the cause.
			return &exitCodeError{code: 1}
		}

		fmt.Fprintln(cmd.OutOrStdout(), success(fmt.Sprintf("Message sent via '%s'", ep.Name)))
		return nil
	},
}

func init() {
	sendCmd.Flags().StringP("webhook", "w", "", "Webhook name to use")
	sendCmd.Flags().StringP("username", "u", "", "Custom username (max 80 characters)")
	rootCmd.AddCommand(sendCmd)
}
