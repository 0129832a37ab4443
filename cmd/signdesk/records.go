package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/goliatone/go-signdesk/pkg/commands"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/signing"
	"github.com/spf13/cobra"
)

const dateLayout = "02/01/2006"

func newCertsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "certs", Short: "Manage signing certificates"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered certificates",
		RunE: func(cmd *cobra.Command, args []string) error {
			certs, err := a.module.Records().Certificates(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tSUBJECT\tVALID TO\tSTATUS")
			now := time.Now()
			for _, c := range certs {
				status := "valid"
				if c.Expired(now) {
					status = "expired"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Type, c.SubjectName, c.ValidTo.Format(dateLayout), status)
			}
			return tw.Flush()
		},
	}

	var certType string
	add := &cobra.Command{
		Use:   "add",
		Short: "Generate and register a test certificate",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cert domain.Certificate
			msg := commands.AddCertificate{Certificate: &cert, Generate: true, Type: domain.CertificateType(certType)}
			if err := a.module.Commands().AddCertificate.Execute(cmd.Context(), msg); err != nil {
				return err
			}
			fmt.Fprintln(a.out, cert.ID)
			return nil
		},
	}
	add.Flags().StringVar(&certType, "type", string(domain.CertificateTest), "certificate type (A1, A3, TEST)")

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.module.Commands().RemoveCertificate.Execute(cmd.Context(), commands.RemoveCertificate{ID: args[0]})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func newDocsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "docs", Short: "Sign and manage signed documents"}

	var recent int
	list := &cobra.Command{
		Use:   "list",
		Short: "List signed documents, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				docs []domain.SignedDocument
				err  error
			)
			if recent > 0 {
				docs, err = a.module.Records().RecentDocuments(cmd.Context(), recent)
			} else {
				docs, err = a.module.Records().Documents(cmd.Context())
			}
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tSIGNER\tSIGNED AT\tSTATUS\tBACKUP")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n", d.ID, d.SignedFileName, d.SignerName, d.SignedAt.Format(time.RFC3339), d.Status, d.IsBackedUp)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&recent, "recent", 0, "only show the N most recent documents")

	var (
		certID string
		sealID string
		pin    string
		backup bool
		output string
	)
	sign := &cobra.Command{
		Use:   "sign FILE",
		Short: "Sign a PDF or XML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var outcome signing.SignOutcome
			msg := commands.SignDocument{
				SignRequest: signing.SignRequest{
					FileName:      fileName(args[0]),
					ContentType:   contentTypeOf(args[0]),
					Content:       content,
					CertificateID: certID,
					SealID:        sealID,
					PIN:           pin,
					Backup:        backup,
				},
				Result: &outcome,
			}
			if err := a.module.Commands().SignDocument.Execute(cmd.Context(), msg); err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, outcome.Signed, 0o600); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "%s\t%s\n", outcome.Document.ID, outcome.Document.Status)
			if outcome.BackupErr != nil {
				fmt.Fprintf(a.out, "backup failed: %v\n", outcome.BackupErr)
			}
			return nil
		},
	}
	sign.Flags().StringVar(&certID, "cert", "", "certificate id")
	sign.Flags().StringVar(&sealID, "seal", "", "seal id")
	sign.Flags().StringVar(&pin, "pin", "", "certificate PIN")
	sign.Flags().BoolVar(&backup, "backup", false, "upload the signed file to the connected file storage")
	sign.Flags().StringVar(&output, "out", "", "write the signed file to this path")

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a signed document record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.module.Commands().RemoveDocument.Execute(cmd.Context(), commands.RemoveDocument{ID: args[0]})
		},
	}

	var fileID string
	backedUp := &cobra.Command{
		Use:   "backed-up ID",
		Short: "Mark a document as backed up externally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.module.Commands().MarkDocumentBackedUp.Execute(cmd.Context(), commands.MarkDocumentBackedUp{ID: args[0], ExternalFileID: fileID})
		},
	}
	backedUp.Flags().StringVar(&fileID, "file-id", "", "external file id")

	cmd.AddCommand(list, sign, remove, backedUp)
	return cmd
}

func newSealsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "seals", Short: "Manage signature seals"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom seals",
		RunE: func(cmd *cobra.Command, args []string) error {
			seals, err := a.module.Records().Seals(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tNATIVE\tDEFAULT")
			for _, s := range seals {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", s.ID, s.Name, s.IsNative, s.IsDefault)
			}
			return tw.Flush()
		},
	}

	add := &cobra.Command{
		Use:   "add FILE",
		Short: "Create a custom seal from a JSON definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var seal domain.SignatureSeal
			if err := json.Unmarshal(raw, &seal); err != nil {
				return fmt.Errorf("parse seal: %w", err)
			}
			return a.module.Commands().CreateSeal.Execute(cmd.Context(), commands.CreateSeal{Seal: seal})
		},
	}

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a custom seal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.module.Commands().RemoveSeal.Execute(cmd.Context(), commands.RemoveSeal{ID: args[0]})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Inspect the audit trail"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := a.module.Audit().List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIMESTAMP\tACTION\tENTITY\tRESULT\tDETAILS")
			for _, l := range logs {
				fmt.Fprintf(tw, "%s\t%s\t%s:%s\t%s\t%s\n", l.Timestamp.Format(time.RFC3339), l.Action, l.EntityType, l.EntityID, l.Result, l.Details)
			}
			return tw.Flush()
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove every audit entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.module.Commands().ClearAuditLog.Execute(cmd.Context(), commands.ClearAuditLog{})
		},
	}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export the audit trail as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return a.module.Audit().ExportCSV(cmd.Context(), a.out)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := a.module.Audit().ExportCSV(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	export.Flags().StringVar(&output, "out", "", "write the CSV to this path instead of stdout")

	cmd.AddCommand(list, clear, export)
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.module.Records().Stats(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "documents\t%d\n", stats.Documents)
			fmt.Fprintf(tw, "backed up\t%d\n", stats.BackedUpDocuments)
			fmt.Fprintf(tw, "certificates\t%d\n", stats.Certificates)
			fmt.Fprintf(tw, "expired certificates\t%d\n", stats.ExpiredCertificates)
			fmt.Fprintf(tw, "expiring soon\t%d\n", len(stats.ExpiringCertificates))
			fmt.Fprintf(tw, "custom seals\t%d\n", stats.CustomSeals)
			fmt.Fprintf(tw, "audit entries\t%d\n", stats.AuditLogs)
			return tw.Flush()
		},
	}
}
