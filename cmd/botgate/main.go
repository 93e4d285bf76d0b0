package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "botgate",
	Short: "Multi-platform bot messaging gateway",
	Long: `botgate receives bot platform webhooks, reconciles them into
conversations, and dispatches outbound messages through registered
bot channels.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd, tokenCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
