package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-signdesk/pkg/config"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/signdesk"
	"github.com/spf13/cobra"
)

const rootExample = `# Register a generated test certificate
signdesk certs add --type TEST

# Sign a document with the native seal
signdesk docs sign contrato.pdf --cert <id> --pin 1234

# Export the audit trail
signdesk audit export --out audit.csv`

// app carries the flags and the module shared by every subcommand.
type app struct {
	out        io.Writer
	configPath string
	logLevel   string
	userID     string

	log    *logger.ZapLogger
	module *signdesk.Module
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "signdesk",
		Short:         "Manage certificates, signed documents, seals and the audit trail",
		Example:       rootExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a JSON configuration file")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&a.userID, "user", "", "user whose credentials and settings are used")

	root.AddCommand(
		newCertsCmd(a),
		newDocsCmd(a),
		newSealsCmd(a),
		newAuditCmd(a),
		newValidateCmd(a),
		newAskCmd(a),
		newSettingsCmd(a),
		newCredentialsCmd(a),
		newCloudCmd(a),
		newDriveCmd(a),
		newStatsCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	input, err := readConfigFile(a.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(input, config.WithEnv(env))
	if err != nil {
		return err
	}

	lgr, err := logger.NewProduction(a.logLevel)
	if err != nil {
		return err
	}
	a.log = lgr

	module, err := signdesk.NewModule(cmd.Context(), signdesk.ModuleOptions{
		Config: cfg,
		Env:    env,
		Logger: lgr,
		UserID: a.userID,
	})
	if err != nil {
		return err
	}
	a.module = module
	a.log.Debug("module ready", logger.F("driver", cfg.Storage.Driver))
	return nil
}

func (a *app) close() error {
	err := a.module.Close()
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}

func readConfigFile(path string) (map[string]any, error) {
	input := map[string]any{}
	if path == "" {
		return input, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return input, nil
}

// contentTypeOf guesses the MIME type used by file validation.
func contentTypeOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".xml":
		return "application/xml"
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
