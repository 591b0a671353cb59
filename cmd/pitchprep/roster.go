package main

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/jonathan/pitchprep/internal/types"
)

var rosterFile string

// rosterDocument is the import document: an optional event and the companies on it,
// in booth order.
type rosterDocument struct {
	Event *struct {
		ID   string `json:"id" validate:"required"`
		Name string `json:"name" validate:"required"`
	} `json:"event"`
	Companies []types.RosterCompany `json:"companies" validate:"required,min=1,dive"`
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the company roster",
}

var rosterImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create or replace roster companies and their event from a JSON file",
	RunE:  runRosterImport,
}

func init() {
	rosterImportCmd.Flags().StringVarP(&rosterFile, "file", "f", "", "Path to roster JSON (required)")
	_ = rosterImportCmd.MarkFlagRequired("file")

	rosterCmd.AddCommand(rosterImportCmd)
	rootCmd.AddCommand(rosterCmd)
}

func readRoster(path string) (*rosterDocument, error) {
	var doc rosterDocument
	if err := readJSONFile(path, &doc); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid roster %s: %w", path, err)
	}
	for i, c := range doc.Companies {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("invalid roster %s: company %d needs an id and a name", path, i+1)
		}
	}
	return &doc, nil
}

func runRosterImport(cmd *cobra.Command, _ []string) error {
	doc, err := readRoster(rosterFile)
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
	database, err := a.database(ctx)
	if err != nil {
		return err
	}

	for _, c := range doc.Companies {
		if err := database.UpsertRosterCompany(ctx, c); err != nil {
			return err
		}
	}
	if doc.Event != nil {
		if err := database.UpsertEvent(ctx, doc.Event.ID, doc.Event.Name); err != nil {
			return err
		}
		for i, c := range doc.Companies {
			if err := database.AddEventCompany(ctx, doc.Event.ID, c.ID, i+1); err != nil {
				return err
			}
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d companies\n", len(doc.Companies))
	if doc.Event != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Event %s: %s\n", doc.Event.ID, doc.Event.Name)
	}
	return nil
}
