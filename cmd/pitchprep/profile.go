package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	profileUserID string
	profileFile   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user profiles",
}

var profileImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create or replace a user's profile from a JSON file",
	RunE:  runProfileImport,
}

func init() {
	profileImportCmd.Flags().StringVar(&profileUserID, "user", "", "User ID (required)")
	profileImportCmd.Flags().StringVarP(&profileFile, "file", "f", "", "Path to user profile JSON (required)")
	_ = profileImportCmd.MarkFlagRequired("user")
	_ = profileImportCmd.MarkFlagRequired("file")

	profileCmd.AddCommand(profileImportCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileImport(cmd *cobra.Command, _ []string) error {
	userID, err := parseUserID(profileUserID)
	if err != nil {
		return err
	}
	profile, err := readProfile(profileFile)
	if err != nil {
		return err
	}
	profile = profile.Normalize()

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
	if err := database.SaveUserProfile(ctx, userID, profile); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved profile for %s\n", profile.DisplayName())
	if missing := profile.MissingFields(); len(missing) > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: pitches cannot be generated until these fields are set: %s\n",
			strings.Join(missing, ", "))
	}
	return nil
}
