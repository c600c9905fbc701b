package tester

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Outcome is the result of one equality check.
type Outcome string

const (
	Pass Outcome = "PASS"
	Fail Outcome = "FAIL"
)

// Kind says which variant a Record holds.
type Kind string

const (
	KindOutcomes Kind = "outcomes"
	KindTiming   Kind = "timing"
)

// Timing is a named wall-clock interval.
// Elapsed is only meaningful once End is set.
type Timing struct {
	Start   time.Time
	End     time.Time
	Elapsed time.Duration
}

// Done reports whether the interval has been closed.
func (t Timing) Done() bool {
	return !t.End.IsZero()
}

// MarshalJSON renders the interval with elapsed time in seconds.
func (t Timing) MarshalJSON() ([]byte, error) {
	type timingView struct {
		Start          time.Time  `json:"start"`
		End            *time.Time `json:"end,omitempty"`
		ElapsedSeconds *float64   `json:"elapsed_seconds,omitempty"`
	}
	view := timingView{Start: t.Start}
	if t.Done() {
		end := t.End
		secs := t.Elapsed.Seconds()
		view.End = &end
		view.ElapsedSeconds = &secs
	}
	return json.Marshal(view)
}

// String renders the interval as {start: s, end: s, elapsed: s} using unix seconds.
func (t Timing) String() string {
	var b strings.Builder
	b.WriteString("{start: ")
	b.WriteString(formatSeconds(unixSeconds(t.Start)))
	if t.Done() {
		b.WriteString(", end: ")
		b.WriteString(formatSeconds(unixSeconds(t.End)))
		b.WriteString(", elapsed: ")
		b.WriteString(formatSeconds(t.Elapsed.Seconds()))
	}
	b.WriteString("}")
	return b.String()
}

// Record is everything stored under one label: either an outcome log or a timing.
type Record struct {
	Label    string    `json:"label"`
	Kind     Kind      `json:"kind"`
	Outcomes []Outcome `json:"outcomes,omitempty"`
	Timing   *Timing   `json:"timing,omitempty"`
}

// Passed counts PASS entries in the outcome log.
func (r Record) Passed() int {
	return r.count(Pass)
}

// Failed counts FAIL entries in the outcome log.
func (r Record) Failed() int {
	return r.count(Fail)
}

func (r Record) count(o Outcome) int {
	n := 0
	for _, got := range r.Outcomes {
		if got == o {
			n++
		}
	}
	return n
}

// String renders the record value as it appears in a report line.
func (r Record) String() string {
	if r.Kind == KindTiming {
		if r.Timing == nil {
			return "{}"
		}
		return r.Timing.String()
	}
	parts := make([]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		parts[i] = string(o)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (r Record) clone() Record {
	out := r
	if r.Outcomes != nil {
		out.Outcomes = append([]Outcome(nil), r.Outcomes...)
	}
	if r.Timing != nil {
		timing := *r.Timing
		out.Timing = &timing
	}
	return out
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
