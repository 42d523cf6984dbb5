package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/giantswarm/sf-fields/internal/config"
	"github.com/giantswarm/sf-fields/internal/logging"
	"github.com/giantswarm/sf-fields/internal/org"
	"github.com/giantswarm/sf-fields/internal/picker"
	"github.com/giantswarm/sf-fields/internal/pipeline"
	"github.com/giantswarm/sf-fields/internal/report"
	"github.com/giantswarm/sf-fields/internal/server"
	"github.com/giantswarm/sf-fields/internal/sfcli"
	"github.com/giantswarm/sf-fields/internal/sforce"
)

// errReported signals a failure that was already shown to the user.
var errReported = errors.New("error already reported")

var (
	version         string
	configPath      string
	outputPath      string
	verbose         bool
	noColor         bool
	traceHTTP       bool
	mcpServer       bool
	serverTransport string
	listenAddr      string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sf-fields",
	Short: "Show field labels and API names of Salesforce objects",
	Long: `sf-fields lists the field labels and API names of Salesforce objects.

It reuses the session of the Salesforce CLI (sf org display), so you must be
logged in with "sf org login web" first. The objects of the org are offered in
an interactive picker where you choose 1 to 3 of them. Their fields are then
rendered as an HTML page and opened in your browser.

The tool supports two modes:
- Interactive mode (default): pick objects and view the report
- MCP Server mode (--mcp-server): expose list_objects, describe_fields and
  render_fields as MCP tools for AI assistants

Settings are read from <user config dir>/sf-fields/config.yaml when present.
Flags given on the command line take precedence over the file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSFFields,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// SetVersion sets the version for the application
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	defaults := config.Defaults()

	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file (default <user config dir>/sf-fields/config.yaml)")

	// Settings also available in the config file
	rootCmd.Flags().String("sf-binary", defaults.SFBinary, "Salesforce CLI executable (sf, or sfdx for the legacy CLI)")
	rootCmd.Flags().String("target-org", defaults.TargetOrg, "Org alias or username (default: the CLI's default org)")
	rootCmd.Flags().Duration("cli-timeout", defaults.CLITimeout, "Timeout for the Salesforce CLI process")
	rootCmd.Flags().String("api-version", defaults.APIVersion, "REST API version, e.g. 60.0 (default: reported by the CLI)")
	rootCmd.Flags().Duration("api-timeout", defaults.APITimeout, "Timeout for each REST API request")
	rootCmd.Flags().Float64("rate-limit", defaults.RateLimit, "Maximum REST API requests per second")
	rootCmd.Flags().String("picker", defaults.Picker, "Object picker: tui or line (default: tui on a terminal)")
	rootCmd.Flags().String("format", defaults.Format, "Report format: html or text")
	rootCmd.Flags().String("output-dir", defaults.OutputDir, "Directory for HTML reports (default: OS temp dir)")
	rootCmd.Flags().Bool("open", defaults.Open, "Open the HTML report in the browser")

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to this file instead of a new one per run ('-' for stdout)")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().BoolVar(&traceHTTP, "trace-http", false, "Log every REST API request and response status")
	rootCmd.Flags().BoolVar(&mcpServer, "mcp-server", false, "Run as MCP server")
	rootCmd.Flags().StringVar(&serverTransport, "server-transport", server.TransportStdio, "Transport protocol for the MCP server (stdio, streamable-http)")
	rootCmd.Flags().StringVar(&listenAddr, "listen-addr", ":8899", "Listen address for streamable-http server (path is fixed to /mcp)")

	// Add subcommands
	rootCmd.AddCommand(newSelfUpdateCmd())
}

// setupSignalHandler sets up graceful shutdown on interrupt signals
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if !mcpServer {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		}
		cancel()
	}()
}

// loadConfig merges defaults, the config file and explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, required := configPath, configPath != ""
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildPicker returns the configured picker, falling back to the line prompt
// when stdin or stdout is not a terminal.
func buildPicker(kind string, logger *logging.Logger) picker.Picker {
	if kind == "" {
		kind = picker.KindTUI
		if !readline.IsTerminal(int(os.Stdin.Fd())) || !readline.IsTerminal(int(os.Stdout.Fd())) {
			logger.InfoVerbose("No terminal detected, using line picker")
			kind = picker.KindLine
		}
	}
	if kind == picker.KindLine {
		return &picker.Line{}
	}
	return &picker.TUI{}
}

// buildSurface decides where the rendered report goes.
func buildSurface(cfg *config.Config, output string, logger *logging.Logger) report.Surface {
	if output == "-" || (output == "" && cfg.Format == report.FormatText) {
		return &report.WriterSurface{W: os.Stdout}
	}
	return &report.FileSurface{
		Dir:    cfg.OutputDir,
		Path:   output,
		Open:   cfg.Open && cfg.Format == report.FormatHTML,
		Logger: logger,
	}
}

func buildRunner(cfg *config.Config, logger *logging.Logger) *pipeline.Runner {
	return &pipeline.Runner{
		Credentials: sfcli.NewResolver(sfcli.Config{
			Binary:    cfg.SFBinary,
			TargetOrg: cfg.TargetOrg,
			Timeout:   cfg.CLITimeout,
			Logger:    logger,
		}),
		Metadata: sforce.NewClient(sforce.ClientConfig{
			APIVersion: cfg.APIVersion,
			Timeout:    cfg.APITimeout,
			RateLimit:  cfg.RateLimit,
			UserAgent:  userAgent(),
			Logger:     logger,
		}),
		Format: cfg.Format,
		Logger: logger,
	}
}

func userAgent() string {
	if version == "" {
		return sforce.DefaultUserAgent
	}
	return sforce.DefaultUserAgent + "/" + version
}

// runMCPServer runs sf-fields in MCP server mode
func runMCPServer(ctx context.Context, runner *pipeline.Runner, logger *logging.Logger) error {
	srv, err := server.New(runner, serverTransport, version, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger.Info("Starting sf-fields MCP server (transport: %s)...", serverTransport)
	addr := listenAddr
	if serverTransport == server.TransportStreamableHTTP && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	if err := srv.Start(ctx, addr); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func runSFFields(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	setupSignalHandler(cancel)

	logger := logging.NewLogger(verbose, !noColor, traceHTTP)
	if mcpServer {
		// stdout carries the protocol in stdio mode
		logger.SetWriter(os.Stderr)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runner := buildRunner(cfg, logger)

	if mcpServer {
		return runMCPServer(ctx, runner, logger)
	}

	runner.Picker = buildPicker(cfg.Picker, logger)
	runner.Surface = buildSurface(cfg, outputPath, logger)

	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, picker.ErrCancelled) {
			logger.Info("Selection cancelled.")
			return nil
		}
		logger.Error("%s", userMessage(err))
		return errReported
	}
	return nil
}

// userMessage turns a pipeline failure into the single line shown to the user.
func userMessage(err error) string {
	var (
		authErr   *sfcli.AuthResolutionError
		fetchErr  *sforce.MetadataFetchError
		policyErr *pipeline.SelectionPolicyError
	)
	switch {
	case errors.As(err, &authErr):
		detail := authErr.Diagnostic
		if detail == "" {
			detail = authErr.Error()
		}
		return "Failed to authenticate with the Salesforce CLI: " + detail
	case errors.As(err, &fetchErr):
		return "Failed to fetch Salesforce metadata: " + fetchErr.Error()
	case errors.As(err, &policyErr):
		return fmt.Sprintf("Please select between %d and %d objects.", org.MinSelection, org.MaxSelection)
	default:
		return err.Error()
	}
}
