package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-signdesk/pkg/clients/documentcloud"
	"github.com/goliatone/go-signdesk/pkg/settings"
	"github.com/spf13/cobra"
)

const cloudExample = `# Point the CLI at your document-cloud account
signdesk settings set documentCloud.accountId <account>

# Upload a file and invite a signer
signdesk cloud upload contrato.pdf
signdesk cloud invite <document-id> --name "Ana Souza" --email ana@example.com`

var errNoAccount = errors.New("no document-cloud account configured, run: signdesk settings set " + settings.KeyAccountID + " <account>")

func newCloudCmd(a *app) *cobra.Command {
	var accountID string
	cmd := &cobra.Command{
		Use:     "cloud",
		Short:   "Manage documents in the remote signing workflow",
		Example: cloudExample,
	}
	cmd.PersistentFlags().StringVar(&accountID, "account", "", "account id (defaults to the "+settings.KeyAccountID+" setting)")

	account := func(cmd *cobra.Command) (string, error) {
		if strings.TrimSpace(accountID) != "" {
			return accountID, nil
		}
		id, err := a.module.Settings().AccountID(cmd.Context(), a.userID)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(id) == "" {
			return "", errNoAccount
		}
		return id, nil
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the account documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := account(cmd)
			if err != nil {
				return err
			}
			docs, err := a.module.DocumentCloud().ListDocuments(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCREATED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Status, d.CreatedAt)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "only list documents in this status")

	upload := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a file to the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := account(cmd)
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := a.module.DocumentCloud().UploadDocument(cmd.Context(), id, documentcloud.File{
				Name:        fileName(args[0]),
				ContentType: contentTypeOf(args[0]),
				Content:     content,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s\t%s\n", doc.ID, doc.Status)
			return nil
		},
	}

	var (
		signer  documentcloud.SignerInput
		message string
	)
	invite := &cobra.Command{
		Use:   "invite DOCUMENT_ID",
		Short: "Register a signer and request their signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := account(cmd)
			if err != nil {
				return err
			}
			created, assignment, err := a.module.DocumentCloud().Invite(cmd.Context(), id, args[0], signer, message)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "signer %s\tassignment %s\n", created.ID, assignment.ID)
			return nil
		},
	}
	invite.Flags().StringVar(&signer.FullName, "name", "", "signer full name")
	invite.Flags().StringVar(&signer.Email, "email", "", "signer e-mail")
	invite.Flags().StringVar(&signer.WhatsApp, "whatsapp", "", "signer WhatsApp number")
	invite.Flags().StringVar(&message, "message", "", "message sent with the invitation")
	_ = invite.MarkFlagRequired("name")
	_ = invite.MarkFlagRequired("email")

	cmd.AddCommand(list, upload, invite)
	return cmd
}

func newDriveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "drive", Short: "Connect the file storage used for backups"}

	var state string
	authURL := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the URL that grants access to your drive",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.module.FileStorage().AuthURL(state)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, u)
			return nil
		},
	}
	authURL.Flags().StringVar(&state, "state", "", "state echoed back in the redirect")

	connect := &cobra.Command{
		Use:   "connect REDIRECT",
		Short: "Store the token from the redirect URL or its fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fragment := args[0]
			if i := strings.Index(fragment, "#"); i >= 0 {
				fragment = fragment[i+1:]
			}
			if err := a.module.FileStorage().CompleteAuthorization(cmd.Context(), fragment, state); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "connected")
			return nil
		},
	}
	connect.Flags().StringVar(&state, "state", "", "state passed to auth-url")

	disconnect := &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.module.FileStorage().Disconnect(cmd.Context())
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the connected account",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := a.module.FileStorage()
			if !fs.Connected(cmd.Context()) {
				fmt.Fprintln(a.out, "not connected")
				return nil
			}
			info, err := fs.UserInfo(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s\t%s\n", info.Name, info.Email)
			return nil
		},
	}

	cmd.AddCommand(authURL, connect, disconnect, whoami)
	return cmd
}
