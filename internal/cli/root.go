// Package cli implements the Cobra command-line interface for diveboard.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Dicklesworthstone/diveboard/internal/config"
	"github.com/Dicklesworthstone/diveboard/internal/db"
	"github.com/Dicklesworthstone/diveboard/internal/output"
	"github.com/Dicklesworthstone/diveboard/internal/utils"
	"github.com/spf13/cobra"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values
var (
	flagConfig   string
	flagOutput   string
	flagJSON     bool
	flagVerbose  bool
	flagLogLevel string
	flagDB       string
	flagProject  string
)

// appConfig is loaded by the root pre-run hook.
var appConfig = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "diveboard",
	Short: "Label-keyed checks and timers for quick manual testing",
	Long: `diveboard records pass/fail checks and wall-clock timers under labels,
prints a per-label report and keeps a history of runs.

  diveboard demo              run the built-in file scenario
  diveboard file <op> <path>  exercise the file helper
  diveboard image <op> <path> load, resize and view images
  diveboard time -- <cmd>     time a command under a label
  diveboard history           list stored runs`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: rootPreRun,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := flagConfig
		if configPath == "" {
			userPath, _ := config.ConfigPaths("", "")
			configPath = userPath
		}
		dbPath, _ := GetDB()
		projectPath, _ := os.Getwd()

		out := newWriter(cmd)
		if out.Structured() {
			return out.Write(map[string]any{
				"version":      version,
				"commit":       commit,
				"build_date":   date,
				"go_version":   runtime.Version(),
				"config_path":  configPath,
				"db_path":      dbPath,
				"project_path": projectPath,
			})
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "diveboard %s\n", version)
		fmt.Fprintf(w, "  commit:  %s\n", commit)
		fmt.Fprintf(w, "  built:   %s\n", date)
		fmt.Fprintf(w, "  go:      %s\n", runtime.Version())
		fmt.Fprintf(w, "  config:  %s\n", configPath)
		fmt.Fprintf(w, "  db:      %s\n", dbPath)
		fmt.Fprintf(w, "  project: %s\n", projectPath)
		return nil
	},
}

// Execute runs the root command. A failure is reported on stderr in the
// selected output format before it is returned.
func Execute() error {
	return executeRoot(rootCmd)
}

func executeRoot(root *cobra.Command) error {
	err := root.Execute()
	if err != nil {
		newWriter(root).Error(err)
	}
	return err
}

// rootPreRun loads configuration and installs the default logger.
func rootPreRun(cmd *cobra.Command, args []string) error {
	project, err := projectPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.LoadOptions{
		ProjectDir:    project,
		ConfigPath:    flagConfig,
		FlagOverrides: flagOverrides(),
	})
	if err != nil {
		// config set stays usable so a broken file can be repaired.
		if !isConfigSet(cmd) {
			return err
		}
		cfg = config.DefaultConfig()
		defer utils.Warn("ignoring invalid configuration", "err", err)
	}
	appConfig = cfg

	utils.SetDefaultLogger(utils.InitLogger(utils.LoggerOptions{
		Level:  cfg.General.LogLevel,
		Output: cmd.ErrOrStderr(),
	}))
	return nil
}

func isConfigSet(cmd *cobra.Command) bool {
	parent := cmd.Parent()
	return cmd.Name() == "set" && parent != nil && parent.Name() == "config"
}

// flagOverrides maps explicitly set global flags onto config keys.
func flagOverrides() map[string]any {
	overrides := map[string]any{}
	if flagLogLevel != "" {
		overrides["general.log_level"] = flagLogLevel
	}
	if flagVerbose {
		overrides["general.log_level"] = "debug"
	}
	if flagJSON {
		overrides["general.output"] = "json"
	} else if flagOutput != "" {
		overrides["general.output"] = flagOutput
	}
	if flagDB != "" {
		overrides["history.database_path"] = flagDB
	}
	return overrides
}

// GetOutput returns the configured output format.
// Precedence: flags > DIVEBOARD_OUTPUT > config files > text.
func GetOutput() string {
	if flagJSON {
		return "json"
	}
	if flagOutput != "" {
		return flagOutput
	}
	return appConfig.General.Output
}

// GetDB returns the history database path.
// Precedence: --db > history.database_path > project .diveboard/history.db
// when that directory exists > ~/.diveboard/history.db.
func GetDB() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	if appConfig.History.DatabasePath != "" {
		return appConfig.DatabasePath()
	}
	if project, err := projectPath(); err == nil && project != "" {
		stateDir := filepath.Join(project, config.StateDirName)
		if info, err := os.Stat(stateDir); err == nil && info.IsDir() {
			return filepath.Join(stateDir, "history.db"), nil
		}
	}
	return appConfig.DatabasePath()
}

func openHistory() (*db.DB, error) {
	path, err := GetDB()
	if err != nil {
		return nil, err
	}
	conn, err := db.OpenAndMigrate(path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return conn, nil
}

func newWriter(cmd *cobra.Command) *output.Writer {
	format, err := output.ParseFormat(GetOutput())
	if err != nil {
		format = output.FormatText
	}
	return output.New(format,
		output.WithOutput(cmd.OutOrStdout()),
		output.WithErrorOutput(cmd.ErrOrStderr()))
}

func projectPath() (string, error) {
	if flagProject != "" {
		return flagProject, nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return pwd, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path (replaces the project config)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "output format: text, json, yaml (env: DIVEBOARD_OUTPUT)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "shorthand for --log-level=debug")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "history database path")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory")

	rootCmd.AddCommand(versionCmd)
}
