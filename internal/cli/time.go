package cli

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Dicklesworthstone/diveboard/internal/tester"
	"github.com/Dicklesworthstone/diveboard/internal/utils"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

var (
	flagTimeLabel     string
	flagTimeExpect    int
	flagTimeNoHistory bool
)

func init() {
	timeCmd.Flags().StringVarP(&flagTimeLabel, "label", "l", "Command", "label prefix for the timer and the exit-code check")
	timeCmd.Flags().IntVar(&flagTimeExpect, "expect-exit", 0, "expected exit code")
	timeCmd.Flags().BoolVar(&flagTimeNoHistory, "no-history", false, "do not store the run in history")

	rootCmd.AddCommand(timeCmd)
}

// commandRunner runs one external command and returns its combined output.
type commandRunner interface {
	Run(name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// runner is replaced in tests.
var runner commandRunner = execRunner{}

var timeCmd = &cobra.Command{
	Use:   "time [flags] -- <command> [args...]",
	Short: "Run a command under a timer and check its exit code",
	Long: `Run a command, timing it under <label>_Time and checking its exit code
under <label>.exit_code. A single argument is split with shell quoting rules.

Examples:
  diveboard time -- make test
  diveboard time --label Build "go build -o 'my app' ./cmd/app"
  diveboard time --expect-exit 1 -- false`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		argv, err := splitCommand(args)
		if err != nil {
			return err
		}

		started := time.Now().UTC()
		t := tester.New(tester.WithLevel(tester.ParseLevel(appConfig.Tester.Level)))
		timer := flagTimeLabel + "_Time"

		if err := t.TimeStart(timer); err != nil {
			return err
		}
		out, runErr := runner.Run(argv[0], argv[1:]...)
		elapsed, err := t.TimeEnd(timer)
		if err != nil {
			return err
		}

		code, err := exitCode(runErr)
		if err != nil {
			return fmt.Errorf("running %s: %w", argv[0], err)
		}
		if _, err := t.Test(flagTimeLabel+".exit_code", code, flagTimeExpect); err != nil {
			return err
		}
		utils.Debug("command finished", "command", argv[0], "exit", code, "elapsed", elapsed)

		var runID string
		if !flagTimeNoHistory {
			run, err := saveTesterRun("time: "+strings.Join(argv, " "), t, started)
			if err != nil {
				utils.Warn("history not saved", "err", err)
			} else if run != nil {
				runID = run.ID
			}
		}

		if !newWriter(cmd).Structured() && len(out) > 0 {
			cmd.OutOrStdout().Write(out)
		}
		if err := writeTesterResult(cmd, t, runID, ""); err != nil {
			return err
		}
		return checkFailures(t)
	},
}

// splitCommand returns args unchanged, or a lone argument split with shell
// quoting rules.
func splitCommand(args []string) ([]string, error) {
	if len(args) != 1 {
		return args, nil
	}
	argv, err := shellwords.Parse(args[0])
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", args[0], err)
	}
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	return argv, nil
}

// exitCode maps a run error onto an exit status. Errors that are not exit
// statuses (command not found, permission denied) are returned.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
