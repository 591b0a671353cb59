package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/pitchprep/internal/server"
)

var tokenUserID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a user",
	Long:  "Sign an HS256 token with jwt.secret for local testing of the API. Tokens expire after jwt.expiration_hours.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User ID (required)")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	userID, err := parseUserID(tokenUserID)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.RequireToken(); err != nil {
		return err
	}

	token, err := server.NewJWTService(a.cfg.JWT).GenerateToken(userID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
