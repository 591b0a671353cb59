package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/pitchprep/internal/observability"
	"github.com/jonathan/pitchprep/internal/pipeline"
)

var (
	genUserID    string
	genCompany   string
	genCompanyID string
	genFormat    string

	bulkCompanies []string
	bulkEventID   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and save the pitch for one company",
	RunE:  runGenerate,
}

var generateAllCmd = &cobra.Command{
	Use:   "generate-all",
	Short: "Generate pitches for a list of companies or every company of an event",
	RunE:  runGenerateAll,
}

func init() {
	generateCmd.Flags().StringVar(&genUserID, "user", "", "User ID (required)")
	generateCmd.Flags().StringVar(&genCompany, "company", "", "Company name")
	generateCmd.Flags().StringVar(&genCompanyID, "company-id", "", "Roster company ID")
	generateCmd.Flags().StringVar(&genFormat, "format", "text", "Output format: text or json")
	_ = generateCmd.MarkFlagRequired("user")
	generateCmd.MarkFlagsOneRequired("company", "company-id")

	generateAllCmd.Flags().StringVar(&genUserID, "user", "", "User ID (required)")
	generateAllCmd.Flags().StringSliceVar(&bulkCompanies, "company", nil, "Company name (repeatable)")
	generateAllCmd.Flags().StringVar(&bulkEventID, "event", "", "Generate for every roster company of this event")
	generateAllCmd.Flags().StringVar(&genFormat, "format", "text", "Output format: text or json")
	_ = generateAllCmd.MarkFlagRequired("user")
	generateAllCmd.MarkFlagsOneRequired("company", "event")
	generateAllCmd.MarkFlagsMutuallyExclusive("company", "event")

	rootCmd.AddCommand(generateCmd, generateAllCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	userID, err := parseUserID(genUserID)
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

	res, genErr := svc.pipeline.GeneratePitch(ctx, pipeline.GenerateRequest{
		UserID:      userID,
		CompanyName: genCompany,
		CompanyID:   genCompanyID,
	})
	var persistErr *pipeline.PersistenceError
	if genErr != nil && !errors.As(genErr, &persistErr) {
		return fmt.Errorf("%s: %w", pipeline.Kind(genErr), genErr)
	}

	if genFormat == "json" {
		if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		observability.NewPrinter(cmd.OutOrStdout()).PrintResult(res)
	}
	return genErr
}

func runGenerateAll(cmd *cobra.Command, _ []string) error {
	userID, err := parseUserID(genUserID)
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

	progress := func(ev pipeline.ProgressEvent) {
		fmt.Fprintln(cmd.ErrOrStderr(), ev.Message)
	}

	var res pipeline.BulkResult
	if bulkEventID != "" {
		res, err = svc.pipeline.GenerateAllForEvent(ctx, userID, bulkEventID, progress)
		if err != nil {
			return err
		}
	} else {
		refs := make([]pipeline.CompanyRef, 0, len(bulkCompanies))
		for _, name := range bulkCompanies {
			refs = append(refs, pipeline.CompanyRef{CompanyName: name})
		}
		res = svc.pipeline.GenerateAll(ctx, userID, refs, progress)
	}

	if genFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintBulk(res)
	return nil
}
