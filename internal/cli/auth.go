package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldcart/backoffice/internal/client/fingerprint"
	"github.com/fieldcart/backoffice/internal/client/session"
)

func newLoginCommand() *cobra.Command {
	var password string
	var useOTP bool

	cmd := &cobra.Command{
		Use:   "login <email-or-phone>",
		Short: "Sign in with a password or a one-time code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier := args[0]
			if session.Classify(identifier) == session.KindInvalid {
				return session.ErrInvalidIdentifier
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			device, err := fingerprint.Collect(a.stateDir, Version)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			var state session.State
			if useOTP {
				if err := a.manager.RequestOTP(ctx, identifier); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "a %d-second resend cooldown is active; check your inbox\n", session.OTPResendCooldown)

				code, err := prompt(cmd, "code: ")
				if err != nil {
					return err
				}
				state, err = a.manager.VerifyOTP(ctx, identifier, code, device)
				if err != nil {
					return loginError(cmd, err)
				}
			} else {
				if password == "" {
					password, err = prompt(cmd, "password: ")
					if err != nil {
						return err
					}
				}
				state, err = a.manager.Login(ctx, identifier, password, device)
				if err != nil {
					return loginError(cmd, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", state.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&useOTP, "otp", false, "sign in with a one-time code instead of a password")

	return cmd
}

func loginError(cmd *cobra.Command, err error) error {
	var denied *session.ManagementAccessError
	if errors.As(err, &denied) {
		fmt.Fprintf(cmd.OutOrStdout(), "this account has no back-office access; visit %s instead\n", denied.RedirectURL)
		return err
	}
	return err
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session and revoke the refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.manager.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			profile, err := a.manager.FetchProfile(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:     %s\n", profile.ID)
			fmt.Fprintf(out, "name:   %s\n", profile.Name)
			fmt.Fprintf(out, "email:  %s\n", profile.Email)
			fmt.Fprintf(out, "phone:  %s\n", profile.PhoneNumber)
			return nil
		},
	}
}

func newPermissionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "permissions",
		Short: "List the modules the signed-in user may access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			modules, err := a.manager.FetchPermissions(cmd.Context())
			if err != nil {
				return err
			}

			if len(modules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no accessible modules")
				return nil
			}
			for _, m := range modules {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", os.ErrInvalid
	}
	return value, nil
}
