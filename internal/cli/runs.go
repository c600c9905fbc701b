package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dicklesworthstone/diveboard/internal/db"
	"github.com/Dicklesworthstone/diveboard/internal/tester"
	"github.com/Dicklesworthstone/diveboard/internal/tui/styles"
	"github.com/Dicklesworthstone/diveboard/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

// runFromTester snapshots a tester session as a history run.
func runFromTester(name string, t *tester.Tester, started, finished time.Time) *db.Run {
	project, _ := projectPath()
	sum := t.Summary()
	run := &db.Run{
		Name:        name,
		Level:       t.Level().String(),
		ProjectPath: project,
		StartedAt:   started,
		FinishedAt:  finished,
		Passed:      sum.Passed,
		Failed:      sum.Failed,
	}
	for _, rec := range t.Records() {
		res := db.Result{
			Label: rec.Label,
			Kind:  string(rec.Kind),
		}
		switch rec.Kind {
		case tester.KindOutcomes:
			for _, o := range rec.Outcomes {
				res.Outcomes = append(res.Outcomes, string(o))
			}
		case tester.KindTiming:
			if rec.Timing != nil {
				start := rec.Timing.Start
				res.StartedAt = &start
				if rec.Timing.Done() {
					end := rec.Timing.End
					secs := rec.Timing.Elapsed.Seconds()
					res.EndedAt = &end
					res.ElapsedSeconds = &secs
				}
			}
		}
		run.Results = append(run.Results, res)
	}
	return run
}

// saveTesterRun stores a tester session unless history is disabled.
func saveTesterRun(name string, t *tester.Tester, started time.Time) (*db.Run, error) {
	if !appConfig.History.Enabled {
		return nil, nil
	}
	conn, err := openHistory()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	run := runFromTester(name, t, started, time.Now().UTC())
	if err := conn.SaveRun(run); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}
	return run, nil
}

// renderReport renders one styled line per record followed by a tally.
// Colours follow the capabilities of w.
func renderReport(w io.Writer, t *tester.Tester) string {
	st := styles.FromTheme(lipgloss.NewRenderer(w), theme.Current)
	var b strings.Builder
	for _, rec := range t.Records() {
		status := string(tester.KindTiming)
		switch {
		case rec.Kind == tester.KindOutcomes && rec.Failed() > 0:
			status = string(tester.Fail)
		case rec.Kind == tester.KindOutcomes:
			status = string(tester.Pass)
		}
		fmt.Fprintf(&b, "%s %s  %s\n", st.OutcomeBadge(status).Render(theme.OutcomeIcon(status)+" "+status), st.Label.Render(rec.Label), rec.String())
	}
	sum := t.Summary()
	fmt.Fprintf(&b, "%s\n", st.Dimmed.Render(fmt.Sprintf(
		"%d checks: %d passed, %d failed, %d timers", sum.Checks, sum.Passed, sum.Failed, sum.Timers)))
	return b.String()
}

// resultValue renders a stored result the way the tester report does.
func resultValue(res db.Result) string {
	if res.Kind == string(tester.KindOutcomes) {
		return "[" + strings.Join(res.Outcomes, " ") + "]"
	}
	if res.StartedAt == nil {
		return "{}"
	}
	timing := tester.Timing{Start: *res.StartedAt}
	if res.EndedAt != nil {
		timing.End = *res.EndedAt
	}
	if res.ElapsedSeconds != nil {
		timing.Elapsed = time.Duration(*res.ElapsedSeconds * float64(time.Second))
	}
	return timing.String()
}

