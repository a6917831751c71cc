package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Schera-ole/phonemetrics/internal/client"
	"github.com/Schera-ole/phonemetrics/internal/config"
	"github.com/Schera-ole/phonemetrics/internal/logger"
	"github.com/Schera-ole/phonemetrics/internal/reporter"
	"github.com/Schera-ole/phonemetrics/internal/service"
	"github.com/Schera-ole/phonemetrics/internal/sign"
	"github.com/Schera-ole/phonemetrics/internal/sink"
)

type app struct {
	v       *viper.Viper
	out     io.Writer
	envFile string

	config *config.AgentConfig
	logger *zap.SugaredLogger
}

func newApp(out io.Writer) *app {
	return &app{v: config.NewViper(), out: out}
}

func (a *app) rootCmd() *cobra.Command {
	var dryRun bool
	root := &cobra.Command{
		Use:               "phonemetrics",
		Short:             "Report the battery level of a phone as a metric",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.report(cmd, dryRun)
		},
	}
	config.AgentFlags(root.PersistentFlags())
	// flags are bound before the env-file flag is added so it never becomes a setting
	cobra.CheckErr(config.BindFlags(a.v, root.PersistentFlags()))
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Load PM_* variables from this dotenv file")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "Print the metric instead of publishing it")

	root.AddCommand(a.reportCmd(), a.queryCmd(), a.signCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	cfg, err := config.NewAgentConfig(a.v)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	a.config = cfg
	a.logger = log
	return nil
}

func (a *app) reportCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Read the battery level and publish it to the configured sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.report(cmd, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the metric instead of publishing it")
	return cmd
}

func (a *app) queryCmd() *cobra.Command {
	var noVerify bool
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Send a signed query to the phone and print the response",
	}
	cmd.PersistentFlags().BoolVar(&noVerify, "no-verify", false, "Skip response signature verification")

	for name, path := range map[string]string{
		"config":  client.PathQueryConfig,
		"battery": client.PathQueryBattery,
	} {
		path := path
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: fmt.Sprintf("Query %s", path),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.query(cmd, path, !noVerify)
			},
		})
	}
	return cmd
}

func (a *app) signCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign <timestamp>",
		Short: "Print the signature of a millisecond timestamp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.config.RequireSecret(); err != nil {
				return err
			}
			ts, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[0], err)
			}
			_, err = fmt.Fprintln(a.out, sign.NewSigner(a.config.Secret).Sign(ts))
			return err
		},
	}
}

func (a *app) client() (*client.Client, error) {
	if err := a.config.RequireDevice(); err != nil {
		return nil, err
	}
	return client.New(a.config.BaseURL, a.config.Secret,
		client.WithHTTPClient(&http.Client{Timeout: a.config.Timeout}),
		client.WithLogger(a.logger),
	), nil
}

func (a *app) report(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()
	c, err := a.client()
	if err != nil {
		return err
	}

	var s sink.Sink
	var mem *sink.MemSink
	if dryRun {
		mem = sink.NewMemSink()
		s = mem
	} else {
		s, err = sink.New(ctx, a.config, a.logger)
		if err != nil {
			return fmt.Errorf("error creating %s sink: %w", a.config.Sink, err)
		}
	}
	defer func() {
		if err := s.Close(); err != nil {
			a.logger.Warnw("error closing sink", "sink", a.config.Sink, "error", err)
		}
	}()

	rs := service.NewReportService(c, reporter.New(s, a.config.Namespace, a.logger), a.logger)
	if _, err := rs.Run(ctx); err != nil {
		return err
	}
	if mem != nil {
		return a.printJSON(mem.Points())
	}
	return nil
}

func (a *app) query(cmd *cobra.Command, path string, verify bool) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	resp, err := c.Invoke(cmd.Context(), path, nil, verify)
	if err != nil {
		return err
	}
	return a.printJSON(resp)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
