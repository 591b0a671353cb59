package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/pitchprep/internal/observability"
	"github.com/jonathan/pitchprep/internal/scoring"
	"github.com/jonathan/pitchprep/internal/types"
)

var (
	scoreProfilePath string
	scoreContextPath string
	scoreCompany     string
	scoreJobDesc     string
	scoreFormat      string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a profile against an employer offline",
	Long:  "Compute the six factor match score from a profile JSON file and an optional employer context JSON file. No network calls are made.",
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreProfilePath, "profile", "p", "", "Path to user profile JSON (required)")
	scoreCmd.Flags().StringVar(&scoreContextPath, "context", "", "Path to employer context JSON")
	scoreCmd.Flags().StringVar(&scoreCompany, "company", "", "Company name (defaults to the context's name)")
	scoreCmd.Flags().StringVar(&scoreJobDesc, "job-description", "", "Job description text")
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "text", "Output format: text or json")
	_ = scoreCmd.MarkFlagRequired("profile")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	profile, err := readProfile(scoreProfilePath)
	if err != nil {
		return err
	}

	var emp types.EmployerContext
	if scoreContextPath != "" {
		if err := readJSONFile(scoreContextPath, &emp); err != nil {
			return err
		}
	}
	company := scoreCompany
	if company == "" {
		company = emp.CompanyName
	}
	emp.CompanyName = company

	breakdown := scoring.Score(profile.Normalize(), emp.Normalize(), scoreJobDesc)
	if scoreFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"companyName":    company,
			"matchScore":     breakdown.MatchScore(),
			"matchReasoning": breakdown.Reasoning(),
			"scoreBreakdown": breakdown,
		})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintScore(company, breakdown)
	return nil
}

func readProfile(path string) (types.UserProfile, error) {
	var p types.UserProfile
	if err := readJSONFile(path, &p); err != nil {
		return p, err
	}
	return p, nil
}

func readJSONFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
