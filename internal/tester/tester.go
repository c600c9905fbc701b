// Package tester records equality checks and named timings and writes them
// out as a flat text report.
//
// A Tester is not safe for concurrent use.
package tester

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/Dicklesworthstone/diveboard/internal/fileio"
	"github.com/Dicklesworthstone/diveboard/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
)

// ErrLabelNotFound is returned by TimeEnd for a label that was never started.
var ErrLabelNotFound = errors.New("label not found")

// ErrLabelKind is returned when a label already holds the other record kind.
var ErrLabelKind = errors.New("label holds a different record kind")

// Tester accumulates outcome logs and timings keyed by label.
type Tester struct {
	level   Level
	logger  *log.Logger
	now     func() time.Time
	order   []string
	records map[string]*Record
}

// Option configures a Tester.
type Option func(*Tester)

// WithLevel sets the console verbosity threshold.
func WithLevel(level Level) Option {
	return func(t *Tester) {
		t.level = level
	}
}

// WithLogger sets the logger used for console messages.
func WithLogger(logger *log.Logger) Option {
	return func(t *Tester) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithOutput sends console messages to w.
func WithOutput(w io.Writer) Option {
	return func(t *Tester) {
		t.logger = utils.InitLogger(utils.LoggerOptions{Level: "debug", Output: w})
	}
}

// WithClock replaces the wall clock used for timings.
func WithClock(now func() time.Time) Option {
	return func(t *Tester) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a Tester. The default level is INFO.
func New(opts ...Option) *Tester {
	t := &Tester{
		level:   LevelInfo,
		now:     time.Now,
		records: make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = utils.GetDefaultLogger()
	}
	t.logger = t.logger.WithPrefix("tester")
	t.logger.SetLevel(t.level.LogLevel())
	return t
}

// Level returns the configured verbosity threshold.
func (t *Tester) Level() Level {
	return t.level
}

// Test compares actual with expected and appends PASS or FAIL to the label's log.
// A failed comparison is recorded, not returned as an error.
func (t *Tester) Test(label string, actual, expected any) (Outcome, error) {
	rec, ok := t.records[label]
	if ok && rec.Kind != KindOutcomes {
		return "", fmt.Errorf("test %q: %w", label, ErrLabelKind)
	}
	if !ok {
		rec = &Record{Label: label, Kind: KindOutcomes}
		t.insert(rec)
	}

	outcome := Fail
	if equal(actual, expected) {
		outcome = Pass
	}
	rec.Outcomes = append(rec.Outcomes, outcome)

	switch {
	case outcome == Pass && t.level.Admits(LevelDebug):
		t.logger.Debug("pass", "label", label)
	case outcome == Fail && t.level.Admits(LevelError):
		keyvals := []any{"label", label, "actual", fmt.Sprintf("%v", actual), "expected", fmt.Sprintf("%v", expected)}
		if d := diff(expected, actual); d != "" {
			keyvals = append(keyvals, "diff", d)
		}
		t.logger.Error("fail", keyvals...)
	}
	return outcome, nil
}

// TimeStart starts (or restarts) the timer named label.
func (t *Tester) TimeStart(label string) error {
	start := t.now()
	if rec, ok := t.records[label]; ok {
		if rec.Kind != KindTiming {
			return fmt.Errorf("time start %q: %w", label, ErrLabelKind)
		}
		rec.Timing = &Timing{Start: start}
		return nil
	}
	t.insert(&Record{Label: label, Kind: KindTiming, Timing: &Timing{Start: start}})
	return nil
}

// TimeEnd stops the timer named label and returns the elapsed time.
func (t *Tester) TimeEnd(label string) (time.Duration, error) {
	rec, ok := t.records[label]
	if !ok || rec.Kind != KindTiming || rec.Timing == nil || rec.Timing.Start.IsZero() {
		return 0, fmt.Errorf("time end %q: %w", label, ErrLabelNotFound)
	}
	rec.Timing.End = t.now()
	rec.Timing.Elapsed = rec.Timing.End.Sub(rec.Timing.Start)

	if t.level.Admits(LevelDebug) {
		t.logger.Debug("elapsed", "label", label, "seconds", rec.Timing.Elapsed.Seconds())
	}
	return rec.Timing.Elapsed, nil
}

// Record returns a copy of the record stored under label.
func (t *Tester) Record(label string) (Record, bool) {
	rec, ok := t.records[label]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Labels returns labels in first-use order.
func (t *Tester) Labels() []string {
	return append([]string(nil), t.order...)
}

// Records returns copies of all records in first-use order.
func (t *Tester) Records() []Record {
	out := make([]Record, 0, len(t.order))
	for _, label := range t.order {
		out = append(out, t.records[label].clone())
	}
	return out
}

// Summary counts what has been recorded so far.
type Summary struct {
	Labels int `json:"labels"`
	Checks int `json:"checks"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Timers int `json:"timers"`
}

// Summary tallies all records.
func (t *Tester) Summary() Summary {
	s := Summary{Labels: len(t.order)}
	for _, label := range t.order {
		rec := t.records[label]
		switch rec.Kind {
		case KindTiming:
			s.Timers++
		case KindOutcomes:
			s.Checks += len(rec.Outcomes)
			s.Passed += rec.Passed()
			s.Failed += rec.Failed()
		}
	}
	return s
}

// Failed reports whether any check has failed.
func (t *Tester) Failed() bool {
	return t.Summary().Failed > 0
}

// Report renders one "label: value" line per label in first-use order.
func (t *Tester) Report() string {
	var b strings.Builder
	for _, label := range t.order {
		fmt.Fprintf(&b, "%s: %s\n", utils.SanitizeLine(label), t.records[label].String())
	}
	return b.String()
}

// WriteReport truncates (or creates) path and writes Report to it.
func (t *Tester) WriteReport(path string) error {
	f := fileio.New(path, fileio.WithLogger(t.logger))
	if err := f.WriteToFile(t.Report()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func (t *Tester) insert(rec *Record) {
	t.records[rec.Label] = rec
	t.order = append(t.order, rec.Label)
}

// equal is cmp.Equal, falling back to reflect.DeepEqual for values cmp
// refuses to compare (unexported fields).
func equal(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return cmp.Equal(a, b)
}

func diff(expected, actual any) (d string) {
	defer func() {
		if recover() != nil {
			d = ""
		}
	}()
	return strings.TrimSpace(cmp.Diff(expected, actual))
}
