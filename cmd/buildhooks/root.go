package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configPath string
	ctx := newCommandContext(&configPath)

	root := &cobra.Command{
		Use:   "buildhooks",
		Short: "Post build-completion cards to subscribed webhooks",
		Long: `buildhooks announces finished builds to the webhook URLs subscribed to
each project. Run "buildhooks serve" to accept build-finished events over
HTTP, or "buildhooks notify" to announce a single build from a script.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	root.AddCommand(
		newServeCommand(ctx),
		newWebhooksCommand(ctx),
		newNotifyCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}
