package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"yamdb/cmd/cli/authentication"
	"yamdb/internal/microservices/http-api/dto"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long: `Sign up to receive a confirmation code by email, then exchange it for a token.
The token is kept in the OS keyring.`,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Request a confirmation code by email",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.SignupRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Email, _ = cmd.Flags().GetString("email")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		resp, err := GetAuthenticatedClient().Signup(ctx, req)
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		success("Confirmation code sent to %s", resp.Email)
		fmt.Printf("Run: yamdb auth token -u %s -c <code>\n", resp.Username)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Exchange a confirmation code for an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.TokenRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.ConfirmationCode, _ = cmd.Flags().GetString("code")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		resp, err := GetAuthenticatedClient().Token(ctx, req)
		if err != nil {
			return fmt.Errorf("token request failed: %w", err)
		}
		creds := &authentication.StoredCredentials{AccessToken: resp.Token, Username: req.Username, APIURL: apiURL}
		if err := authentication.StoreTokens(creds); err != nil {
			return fmt.Errorf("could not store token: %w", err)
		}
		success("Logged in as %s", req.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		success("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the profile of the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		me, err := GetAuthenticatedClient().Me(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Username: %s\nEmail:    %s\nRole:     %s\n", me.Username, me.Email, me.Role)
		if me.Bio != "" {
			fmt.Printf("Bio:      %s\n", me.Bio)
		}
		return nil
	},
}

func init() {
	authCmd.AddCommand(signupCmd, tokenCmd, logoutCmd, whoamiCmd)

	signupCmd.Flags().StringP("username", "u", "", "Username for the account")
	signupCmd.Flags().StringP("email", "e", "", "Email address the code is sent to")
	_ = signupCmd.MarkFlagRequired("username")
	_ = signupCmd.MarkFlagRequired("email")

	tokenCmd.Flags().StringP("username", "u", "", "Username for the account")
	tokenCmd.Flags().StringP("code", "c", "", "Confirmation code from the email")
	_ = tokenCmd.MarkFlagRequired("username")
	_ = tokenCmd.MarkFlagRequired("code")
}
