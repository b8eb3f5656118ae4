package command

// root.go defines the root command and the flags shared by every subcommand.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"yamdb/cmd/cli/authentication"
	"yamdb/cmd/cli/command/client"
)

var apiURL string // Global flag for API server URL

var rootCmd = &cobra.Command{
	Use:   "yamdb",
	Short: "yamdb - command line client for the YaMDb review API",
	Long: `yamdb talks to a YaMDb API server. Use it to:
- Sign up with an email confirmation code and obtain a token
- Browse categories, genres and titles
- Post reviews and comments

Use "yamdb [command] --help" to see all available commands.`,
	SilenceUsage: true,
}

// Execute runs the root command; called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("YAMDB_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080/api/v1"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "API server URL")

	rootCmd.AddCommand(authCmd, categoryCmd, genreCmd, titleCmd, reviewCmd, commentCmd)
}

// GetAuthenticatedClient returns a client carrying the stored token, or an
// anonymous one when nobody is logged in.
func GetAuthenticatedClient() *client.HTTPClient {
	c := client.NewHTTPClient(apiURL)
	creds, err := authentication.GetTokens()
	if err == nil {
		c.SetToken(creds.AccessToken)
	} else if !errors.Is(err, authentication.ErrNotLoggedIn) {
		color.Yellow("warning: could not read stored token: %v", err)
	}
	return c
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 15*time.Second)
}

func success(format string, args ...any) {
	color.Green("✓ "+format, args...)
}

func printPageFooter(page, totalPages int, total int64) {
	fmt.Printf("\npage %d of %d, %d total\n", page, max(totalPages, 1), total)
}
