package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newWebhooksCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Manage webhook subscribers",
	}
	cmd.AddCommand(newWebhooksListCommand(ctx))
	cmd.AddCommand(newWebhooksAddCommand(ctx))
	cmd.AddCommand(newWebhooksRemoveCommand(ctx))
	return cmd
}

func newWebhooksListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [project]",
		Short: "List subscribers for one or all projects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}

			projects := store.Projects()
			if len(args) == 1 {
				projects = []string{strings.TrimSpace(args[0])}
			}

			var rows [][]string
			for _, project := range projects {
				for i, url := range store.URLsFor(project) {
					rows = append(rows, []string{project, strconv.Itoa(i + 1), url})
				}
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No webhook subscribers")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Project", "#", "URL"}, rows, 1))
			return nil
		},
	}
}

func newWebhooksAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <project> <url>",
		Short: "Register a webhook URL for a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}
			if err := store.Add(args[0], args[1]); err != nil {
				return fmt.Errorf("add webhook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", strings.TrimSpace(args[1]), strings.TrimSpace(args[0]))
			return nil
		},
	}
}

func newWebhooksRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project> <url>",
		Short: "Unregister a webhook URL from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}
			if err := store.Remove(args[0], args[1]); err != nil {
				return fmt.Errorf("remove webhook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", strings.TrimSpace(args[1]), strings.TrimSpace(args[0]))
			return nil
		},
	}
}
