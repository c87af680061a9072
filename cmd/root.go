package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	colour "github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nickromney-org/release-radar/internal/config"
	"github.com/nickromney-org/release-radar/internal/pipeline"
	"github.com/nickromney-org/release-radar/internal/telemetry"
)

var (
	cfgFile     string
	dryRun      bool
	releaseFlag string
	jsonOutput  bool
	ciOutput    bool
	showVersion bool

	// Version information (set via SetVersionInfo from main)
	appVersion = "dev"
	buildTime  = "unknown"
	gitCommit  = "unknown"

	// Colours for output
	green  = colour.New(colour.FgGreen, colour.Bold)
	yellow = colour.New(colour.FgYellow, colour.Bold)
	red    = colour.New(colour.FgRed, colour.Bold)
	cyan   = colour.New(colour.FgCyan)
	grey   = colour.New(colour.FgHiBlack) // Faint grey for timestamps
)

// SetVersionInfo sets the version information from the main package
func SetVersionInfo(version, build, commit string) {
	appVersion = version
	buildTime = build
	gitCommit = commit
}

var rootCmd = &cobra.Command{
	Use:   "release-radar",
	Short: "Classify upstream release notes and notify Slack",
	Long: `Watch an upstream GitHub project for new releases, classify every
change-note line with Claude, and post the notify-worthy items to Slack.

Bugfix-only releases get a one-line notice. Each release is delivered at
most once; the last processed version is kept in a state file.`,
	Example: `  # Process new releases of the default project
  release-radar

  # Show what would be sent without posting or updating state
  release-radar --dry-run

  # Reprocess a single release (state is never touched)
  release-radar -r 2.1.47 --dry-run

  # Watch another repository with a SQLite state backend
  RADAR_STATE_BACKEND=sqlite release-radar --repo cli/cli --state radar.db`,
	PersistentPreRunE: initConfig,
	RunE:              run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./release-radar.yaml or $HOME/.config/release-radar/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("repo", "", "repository to watch (owner/repo, GitHub URL or predefined name)")
	rootCmd.PersistentFlags().StringP("token", "t", "", "GitHub token (or GITHUB_TOKEN env var)")
	rootCmd.PersistentFlags().String("state", "", "state file path")
	rootCmd.PersistentFlags().Bool("telemetry", false, "export traces and metrics to stderr")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("repo"))
	_ = viper.BindPFlag("github.token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("state.path", rootCmd.PersistentFlags().Lookup("state"))
	_ = viper.BindPFlag("telemetry.enabled", rootCmd.PersistentFlags().Lookup("telemetry"))

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print notifications instead of sending them; never update state")
	rootCmd.Flags().StringVarP(&releaseFlag, "release", "r", "", "process only this release version (state is not updated)")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "output run summary as JSON")
	rootCmd.Flags().BoolVar(&ciOutput, "ci", false, "format output for CI/GitHub Actions")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	})

	rootCmd.AddCommand(evalCmd())
	rootCmd.AddCommand(buildTruthCmd())
}

// Execute runs the CLI and flushes telemetry before returning
func Execute(ctx context.Context) error {
	defer telemetry.Shutdown(context.WithoutCancel(ctx))
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps a command error to the process exit status: 2 for
// configuration errors, 1 for anything else worth retrying.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, config.ErrMissingConfig), errors.Is(err, config.ErrInvalidConfig):
		return 2
	default:
		return 1
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if path := findConfigFile(); path != "" {
		viper.SetConfigFile(path)
	}

	if viper.ConfigFileUsed() != "" {
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: failed to read config: %w", config.ErrInvalidConfig, err)
		}
	}

	if err := setupLogging(cmd.ErrOrStderr()); err != nil {
		return fmt.Errorf("%w: failed to setup logging: %w", config.ErrInvalidConfig, err)
	}
	if path := viper.ConfigFileUsed(); path != "" {
		slog.Debug("loaded config file", "path", path)
	}

	if err := telemetry.Init(cmd.Context(), telemetry.Config{
		Enabled:     viper.GetBool("telemetry.enabled"),
		ServiceName: "release-radar",
		Version:     appVersion,
		Writer:      cmd.ErrOrStderr(),
	}); err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}

	return nil
}

// findConfigFile returns the first default config file that exists
func findConfigFile() string {
	candidates := []string{"release-radar.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "release-radar", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func setupLogging(w io.Writer) error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	opts := &slog.HandlerOptions{Level: slogLevel}

	var handler slog.Handler
	switch format {
	case "console":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// detectGitHubToken attempts to find a GitHub token from multiple sources
func detectGitHubToken(providedToken string) string {
	// 1. Use explicitly provided token (-t, RADAR_GITHUB_TOKEN or GITHUB_TOKEN)
	//    Note: GITHUB_TOKEN is automatically available in GitHub Actions
	if providedToken != "" {
		return providedToken
	}

	// 2. Try to get token from GitHub CLI
	ghToken, err := getGitHubCLIToken()
	if err == nil && ghToken != "" {
		return ghToken
	}

	// 3. No token found - will use unauthenticated requests
	return ""
}

// getGitHubCLIToken attempts to retrieve a token from the GitHub CLI
func getGitHubCLIToken() (string, error) {
	cmd := exec.Command("gh", "auth", "token")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", fmt.Errorf("gh auth token returned empty")
	}

	return token, nil
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "release-radar %s\n", appVersion)
	fmt.Fprintf(w, "Build time: %s\n", buildTime)
	fmt.Fprintf(w, "Git commit: %s\n", gitCommit)
}

func run(cmd *cobra.Command, _ []string) error {
	// Disable automatic usage printing on error
	cmd.SilenceUsage = true

	if showVersion {
		printVersion(cmd.OutOrStdout())
		return nil
	}

	mode := config.ModeRun
	if dryRun {
		mode = config.ModeDryRun
	}
	settings, err := loadSettings(mode)
	if err != nil {
		return err
	}

	app, err := newApp(settings, appOptions{
		dryRun:    dryRun,
		withState: releaseFlag == "",
		out:       cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer app.Close()

	summary, runErr := app.runner.Run(cmd.Context(), pipeline.Options{
		Release: releaseFlag,
		DryRun:  dryRun,
	})
	if summary != nil {
		if err := outputSummary(cmd.OutOrStdout(), settings, summary); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

func outputSummary(w io.Writer, settings *config.Settings, summary *pipeline.Summary) error {
	switch {
	case jsonOutput:
		return outputJSON(w, summary)
	case ciOutput:
		return outputCI(w, settings, summary)
	default:
		outputTerminal(w, settings, summary)
		return nil
	}
}
