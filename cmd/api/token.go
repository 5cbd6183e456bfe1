package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/auth"
)

var (
	tokenSubject string
	tokenScopes  []string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a signed bearer token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := auth.Issue(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, tokenSubject, tokenScopes, tokenTTL, time.Now())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "", "user id placed in the sub claim")
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scope", []string{auth.ScopeItineraryWrite}, "scopes to grant")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("sub")
}
