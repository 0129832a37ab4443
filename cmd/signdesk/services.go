package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-signdesk/pkg/commands"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/secrets"
	"github.com/goliatone/go-signdesk/pkg/settings"
	"github.com/goliatone/go-signdesk/pkg/signing"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate the signature of a PDF or XML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			validation, err := a.module.Signing().Validate(cmd.Context(), signing.ValidateRequest{
				FileName:    fileName(args[0]),
				ContentType: contentTypeOf(args[0]),
				Content:     content,
			})
			if err != nil {
				return err
			}
			r := validation.Result
			fmt.Fprintf(a.out, "valid: %t\nsigner: %s\nissuer: %s\nintegrity: %t\n", r.IsValid, r.Signer, r.Issuer, r.Integrity)
			if validation.Explanation != "" {
				fmt.Fprintf(a.out, "\n%s\n", validation.Explanation)
			}
			return nil
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask the digital signature assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, a.module.Assistant().AskAssistant(cmd.Context(), strings.Join(args, " ")))
			return nil
		},
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Read and override user settings"}

	get := &cobra.Command{
		Use:   "get PATH",
		Short: "Resolve a setting and show where it came from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := a.module.Settings().Resolver(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			value, trace, err := resolver.Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%v\n", value)
			a.log.Debug("setting resolved", logger.F("path", trace.Path), logger.F("layers", len(trace.Layers)))
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set PATH VALUE",
		Short: "Store a user override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.module.Commands().UpdateSetting.Execute(cmd.Context(), commands.UpdateSetting{
				UserID: a.userID,
				Path:   args[0],
				Value:  args[1],
			})
		},
	}

	unset := &cobra.Command{
		Use:   "unset PATH",
		Short: "Drop a user override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.module.Commands().UpdateSetting.Execute(cmd.Context(), commands.UpdateSetting{
				UserID: a.userID,
				Path:   args[0],
				Unset:  true,
			})
		},
	}

	cmd.AddCommand(get, set, unset)
	return cmd
}

func newCredentialsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "credentials", Short: "Manage API keys for the external services"}
	services := []string{secrets.ServiceDocumentCloud, secrets.ServiceAssistant}

	vault := func() (*secrets.Vault, error) {
		v := a.module.Credentials()
		if v == nil {
			return nil, fmt.Errorf("credentials are managed by a custom resolver")
		}
		return v, nil
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show which services have an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vault()
			if err != nil {
				return err
			}
			for service, info := range v.Status(cmd.Context(), a.userID, secrets.KeyAPIKey, services...) {
				if info["configured"] != true {
					fmt.Fprintf(a.out, "%s\tmissing\n", service)
					continue
				}
				fmt.Fprintf(a.out, "%s\t%s\t%s\n", service, info["scope"], info["value"])
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set SERVICE KEY",
		Short: "Save your own API key (requires SIGNDESK_SECRETS_KEY)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vault()
			if err != nil {
				return err
			}
			_, err = v.Save(cmd.Context(), userOrLocal(a.userID), args[0], secrets.KeyAPIKey, args[1])
			return err
		},
	}

	forget := &cobra.Command{
		Use:   "forget SERVICE",
		Short: "Remove your own API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vault()
			if err != nil {
				return err
			}
			return v.Forget(cmd.Context(), userOrLocal(a.userID), args[0], secrets.KeyAPIKey)
		},
	}

	cmd.AddCommand(status, set, forget)
	return cmd
}

func userOrLocal(userID string) string {
	if userID == "" {
		return settings.LocalUser
	}
	return userID
}

func fileName(path string) string {
	return filepath.Base(path)
}
