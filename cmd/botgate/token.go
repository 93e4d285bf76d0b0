package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/botgatehq/botgate/internal/auth"
	"github.com/botgatehq/botgate/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint an API token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
		if err != nil {
			return fmt.Errorf("parse jwt_expires_in: %w", err)
		}
		signed, expiresAt, err := auth.GenerateToken(args[0], cfg.Auth.JWTSecret, expiresIn)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", signed)
		fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}
