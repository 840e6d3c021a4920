package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"buildhooks/internal/build"
	"buildhooks/internal/notifications"
)

type notifyFlags struct {
	project      string
	name         string
	number       string
	failed       bool
	statusText   string
	buildTypeID  string
	buildID      int64
	rootURL      string
	artifactsDir string
	scmURL       string
	branch       string
	revision     string
	jsonOutput   bool
}

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	var flags notifyFlags

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a build finished notification to the project's webhooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			facts, err := flags.facts()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}

			report := notifications.NewFromConfig(cfg, store, logger).Notify(cmd.Context(), facts)
			return printReport(cmd, report, flags.jsonOutput)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.project, "project", "", "Project identifier (required)")
	f.StringVar(&flags.name, "name", "", "Build full name, e.g. \"Demo :: Build\" (required)")
	f.StringVar(&flags.number, "number", "", "Build number (required)")
	f.BoolVar(&flags.failed, "failed", false, "Mark the build as failed")
	f.StringVar(&flags.statusText, "status-text", "", "Status text shown as the failure message")
	f.StringVar(&flags.buildTypeID, "build-type", "", "Build configuration identifier")
	f.Int64Var(&flags.buildID, "build-id", 0, "Internal build identifier")
	f.StringVar(&flags.rootURL, "root-url", "", "Build server root URL (defaults to server.root_url)")
	f.StringVar(&flags.artifactsDir, "artifacts-dir", "", "Directory holding the build's archived artifacts")
	f.StringVar(&flags.scmURL, "scm-url", "", "Repository URL")
	f.StringVar(&flags.branch, "branch", "", "Branch the build ran on")
	f.StringVar(&flags.revision, "revision", "", "Revision the build ran on")
	f.BoolVar(&flags.jsonOutput, "json", false, "Print the delivery report as JSON")
	return cmd
}

func (f notifyFlags) facts() (build.Facts, error) {
	var missing []string
	for _, required := range []struct{ flag, value string }{
		{"--project", f.project},
		{"--name", f.name},
		{"--number", f.number},
	} {
		if strings.TrimSpace(required.value) == "" {
			missing = append(missing, required.flag)
		}
	}
	if len(missing) > 0 {
		return build.Facts{}, errors.New("missing required flags: " + strings.Join(missing, ", "))
	}

	facts := build.Facts{
		ProjectID:    strings.TrimSpace(f.project),
		FullName:     strings.TrimSpace(f.name),
		BuildNumber:  strings.TrimSpace(f.number),
		StatusText:   f.statusText,
		Success:      !f.failed,
		RootURL:      strings.TrimSpace(f.rootURL),
		BuildTypeID:  strings.TrimSpace(f.buildTypeID),
		BuildID:      f.buildID,
		ArtifactsDir: strings.TrimSpace(f.artifactsDir),
	}
	if f.scmURL != "" || f.branch != "" || f.revision != "" {
		facts.SCM = &build.SCM{URL: f.scmURL, Branch: f.branch, Revision: f.revision}
	}
	return facts, nil
}

func printReport(cmd *cobra.Command, report notifications.Report, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Fprintf(out, "Delivery %s for %s\n", report.DeliveryID, report.Build)
	if report.Skipped != "" {
		fmt.Fprintf(out, "Nothing delivered: %s\n", report.Skipped)
		return nil
	}
	title := cases.Title(language.Und)
	rows := make([][]string, 0, len(report.Outcomes))
	for _, outcome := range report.Outcomes {
		code := ""
		if outcome.StatusCode != 0 {
			code = strconv.Itoa(outcome.StatusCode)
		}
		rows = append(rows, []string{outcome.URL, title.String(string(outcome.Status)), code, strconv.FormatInt(outcome.ElapsedMS, 10), outcome.Detail})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Destination", "Outcome", "Code", "ms", "Detail"},
		rows, 2, 3,
	))
	fmt.Fprintf(out, "%d of %d delivered in %d ms\n", report.Delivered(), len(report.Outcomes), report.ElapsedMS)
	return nil
}
