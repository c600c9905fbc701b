package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Dicklesworthstone/diveboard/internal/fileio"
	"github.com/Dicklesworthstone/diveboard/internal/imaging"
	"github.com/Dicklesworthstone/diveboard/internal/tester"
	"github.com/Dicklesworthstone/diveboard/internal/utils"
	"github.com/spf13/cobra"
)

// ErrChecksFailed is returned by commands whose tester recorded a FAIL.
var ErrChecksFailed = errors.New("checks failed")

const (
	demoFileTimer  = "File_Time"
	demoImageTimer = "Image_Time"
)

var (
	flagDemoDir       string
	flagDemoReport    string
	flagDemoImage     string
	flagDemoShow      bool
	flagDemoLevel     string
	flagDemoNoHistory bool
)

func init() {
	demoCmd.Flags().StringVar(&flagDemoDir, "dir", "", "scratch directory for the file scenario (default: demo.dir)")
	demoCmd.Flags().StringVar(&flagDemoReport, "report", "", "write the report to this file (default: tester.report_path)")
	demoCmd.Flags().StringVar(&flagDemoImage, "image", "", "also load and resize this image")
	demoCmd.Flags().BoolVar(&flagDemoShow, "show", false, "show the resized image in the terminal viewer")
	demoCmd.Flags().StringVar(&flagDemoLevel, "level", "", "tester level (default: tester.level)")
	demoCmd.Flags().BoolVar(&flagDemoNoHistory, "no-history", false, "do not store the run in history")

	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in file scenario under a timer",
	Long: `Run the built-in scenario: create a file, write a line, append a line,
read both back and delete the file, all under the File_Time timer. Each step
is checked under a File.* label.

Examples:
  diveboard demo
  diveboard demo --dir /tmp/scratch --report report.txt
  diveboard demo --image photo.png --show`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := flagDemoLevel
		if level == "" {
			level = appConfig.Tester.Level
		}
		dir := flagDemoDir
		if dir == "" {
			dir = appConfig.Demo.Dir
		}
		reportPath := flagDemoReport
		if reportPath == "" {
			reportPath = appConfig.Tester.ReportPath
		}

		started := time.Now().UTC()
		t := tester.New(tester.WithLevel(tester.ParseLevel(level)))

		if err := runFileScenario(t, filepath.Join(dir, appConfig.Demo.File)); err != nil {
			return err
		}
		if flagDemoImage != "" {
			if err := runImageScenario(t, flagDemoImage, flagDemoShow); err != nil {
				return err
			}
		}

		if reportPath != "" {
			if err := t.WriteReport(reportPath); err != nil {
				return err
			}
		}

		var runID string
		if !flagDemoNoHistory {
			run, err := saveTesterRun("demo", t, started)
			if err != nil {
				utils.Warn("history not saved", "err", err)
			} else if run != nil {
				runID = run.ID
			}
		}

		if err := writeTesterResult(cmd, t, runID, reportPath); err != nil {
			return err
		}
		return checkFailures(t)
	},
}

// runFileScenario drives a fileio.Handle through create, write, append,
// read and delete, then checks each step. File errors are logged and
// surface as FAIL outcomes.
func runFileScenario(t *tester.Tester, path string) error {
	if err := t.TimeStart(demoFileTimer); err != nil {
		return err
	}

	logger := utils.WithPrefix("demo")
	step := func(name string, err error) {
		if err != nil {
			logger.Warn("step failed", "step", name, "err", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating scratch dir: %w", err)
	}

	f := fileio.New(path)
	step("create", f.Create())
	createExists := f.Exists()

	content1 := "1st line\n"
	step("write", f.WriteToFile(content1))
	content2 := "2nd line\n"
	step("append", f.AppendToFile(content2))

	step("open", f.OpenReader())
	line1, err := f.ReadLine()
	step("read", err)
	line2, err := f.ReadLine()
	step("read", err)
	step("close", f.CloseReader())

	step("delete", f.Delete())
	deleteExists := f.Exists()

	checks := []struct {
		label            string
		actual, expected any
	}{
		{"File.create_file", createExists, true},
		{"File.write_to_file", line1, content1},
		{"File.append_to_file", line2, content2},
		{"File.delete_file", deleteExists, false},
	}
	for _, c := range checks {
		if _, err := t.Test(c.label, c.actual, c.expected); err != nil {
			return err
		}
	}

	_, err = t.TimeEnd(demoFileTimer)
	return err
}

// runImageScenario loads path, resizes it to the configured dimensions and
// checks both steps under Image.* labels.
func runImageScenario(t *tester.Tester, path string, show bool) error {
	if err := t.TimeStart(demoImageTimer); err != nil {
		return err
	}

	h := imaging.New(imaging.Path{Name: path, Color: appConfig.Image.Color})
	if _, err := t.Test("Image.load", h.Loaded(), true); err != nil {
		return err
	}

	if h.Loaded() {
		dims := imaging.Dims{Height: appConfig.Image.ResizeHeight, Width: appConfig.Image.ResizeWidth}
		resized, err := h.Resize(dims)
		var got imaging.Dims
		if err == nil {
			got = imaging.Dims{Height: resized.Bounds().Dy(), Width: resized.Bounds().Dx()}
		}
		if _, err := t.Test("Image.resize", got, dims); err != nil {
			return err
		}
		if resized != nil {
			if _, err := t.Test("Image.channels", resized.Channels(), h.Channels()); err != nil {
				return err
			}
			if show {
				wait := time.Duration(appConfig.Image.ShowTimeoutMs) * time.Millisecond
				resized.ShowImage(path, wait)
			}
		}
	}

	_, err := t.TimeEnd(demoImageTimer)
	return err
}

type testerResult struct {
	RunID      string          `json:"run_id,omitempty"`
	ReportPath string          `json:"report_path,omitempty"`
	Summary    tester.Summary  `json:"summary"`
	Records    []tester.Record `json:"records"`
}

func writeTesterResult(cmd *cobra.Command, t *tester.Tester, runID, reportPath string) error {
	out := newWriter(cmd)
	if out.Structured() {
		return out.Write(testerResult{
			RunID:      runID,
			ReportPath: reportPath,
			Summary:    t.Summary(),
			Records:    t.Records(),
		})
	}
	w := cmd.OutOrStdout()
	fmt.Fprint(w, renderReport(w, t))
	if reportPath != "" {
		fmt.Fprintf(w, "report: %s\n", reportPath)
	}
	if runID != "" {
		fmt.Fprintf(w, "run: %s\n", runID)
	}
	return nil
}

func checkFailures(t *tester.Tester) error {
	if !t.Failed() {
		return nil
	}
	sum := t.Summary()
	return fmt.Errorf("%w: %d of %d", ErrChecksFailed, sum.Failed, sum.Checks)
}
