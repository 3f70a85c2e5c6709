package main

import (
	"fmt"
	"io"
	"unicode/utf8"

	"goblin/internal/db"
	"goblin/internal/registry"

	"github.com/spf13/cobra"
)

const listURLPreview = 50

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name> <url>",
		Short: "Save a Discord webhook URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			setDefault, _ := cmd.Flags().GetBool("set-default")
			ctx := cmd.Context()

			return withRegistry(ctx, func(r *registry.Registry) error {
				name, err := r.Save(ctx, args[0], args[1], setDefault)
				if err != nil {
					return err
				}
				suffix := ""
				if setDefault {
					suffix = " (set as default)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), success(fmt.Sprintf("Saved webhook '%s'%s", name, suffix)))
				return nil
			})
		},
	}
	cmd.Flags().BoolP("set-default", "d", false, "Set as default webhook")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all saved webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withRegistry(ctx, func(r *registry.Registry) error {
				endpoints, err := r.List(ctx)
				if err != nil {
					return err
				}
				printEndpoints(cmd.OutOrStdout(), endpoints)
				return nil
			})
		},
	}
}

func printEndpoints(w io.Writer, endpoints []db.Endpoint) {
	if len(endpoints) == 0 {
		fmt.Fprintln(w, "No webhooks saved")
		return
	}

	fmt.Fprintln(w, "\nSaved webhooks:")
	for _, ep := range endpoints {
		marker := ""
		if ep.IsDefault {
			marker = " " + defaultStyle.Render("[DEFAULT]")
		}
		fmt.Fprintf(w, "  • %s%s\n", nameStyle.Render(ep.Name), marker)
		fmt.Fprintf(w, "    URL: %s...\n", previewURL(ep.URL))
		fmt.Fprintf(w, "    Created: %s\n", dimStyle.Render(ep.CreatedAt.Local().Format("2006-01-02 15:04:05")))
		fmt.Fprintln(w)
	}
}

// previewURL keeps webhook tokens off the terminal.
func previewURL(u string) string {
	if utf8.RuneCountInString(u) <= listURLPreview {
		return u
	}
	return string([]rune(u)[:listURLPreview])
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withRegistry(ctx, func(r *registry.Registry) error {
				if err := r.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), success(fmt.Sprintf("Deleted webhook '%s'", args[0])))
				return nil
			})
		},
	}
}

func newSetDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <name>",
		Short: "Set a webhook as the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withRegistry(ctx, func(r *registry.Registry) error {
				if err := r.SetDefault(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), success(fmt.Sprintf("Set '%s' as default webhook", args[0])))
				return nil
			})
		},
	}
}

func init() {
	webhookCmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage Discord webhooks",
	}
	webhookCmd.AddCommand(newSaveCmd(), newListCmd(), newDeleteCmd(), newSetDefaultCmd())

	rootCmd.AddCommand(webhookCmd)
	rootCmd.AddCommand(newSaveCmd(), newListCmd(), newDeleteCmd(), newSetDefaultCmd())
}
