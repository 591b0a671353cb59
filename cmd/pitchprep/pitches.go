package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/pitchprep/internal/observability"
)

var (
	pitchesUserID string
	pitchesFormat string
)

var pitchesCmd = &cobra.Command{
	Use:   "pitches",
	Short: "Inspect or clear saved pitches",
}

var pitchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the saved pitches of a user, most recent first",
	RunE:  runPitchesList,
}

var pitchesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved pitch of a user",
	RunE:  runPitchesClear,
}

func init() {
	pitchesCmd.PersistentFlags().StringVar(&pitchesUserID, "user", "", "User ID (required)")
	_ = pitchesCmd.MarkPersistentFlagRequired("user")
	pitchesListCmd.Flags().StringVar(&pitchesFormat, "format", "text", "Output format: text or json")

	pitchesCmd.AddCommand(pitchesListCmd, pitchesClearCmd)
	rootCmd.AddCommand(pitchesCmd)
}

func runPitchesList(cmd *cobra.Command, _ []string) error {
	userID, err := parseUserID(pitchesUserID)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := commandContext(cmd)
	defer stop()
	svc, err := a.services(ctx)
	if err != nil {
		return err
	}

	records, err := svc.pipeline.ListPitches(ctx, userID)
	if err != nil {
		return err
	}
	if pitchesFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), records)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRecords(records)
	return nil
}

func runPitchesClear(cmd *cobra.Command, _ []string) error {
	userID, err := parseUserID(pitchesUserID)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := commandContext(cmd)
	defer stop()
	svc, err := a.services(ctx)
	if err != nil {
		return err
	}

	res, err := svc.pipeline.ClearMatchData(ctx, userID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d saved pitches\n", res.ClearedCount)
	return nil
}
