package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dicklesworthstone/diveboard/internal/db"
)

// RunOption customizes a test run.
type RunOption func(*db.Run)

// MakeRun creates and inserts a run with one passing check and one timer.
func MakeRun(t *testing.T, database *db.DB, opts ...RunOption) *db.Run {
	t.Helper()

	start := time.Now().UTC().Add(-time.Second)
	end := start.Add(250 * time.Millisecond)
	elapsed := end.Sub(start).Seconds()
	r := &db.Run{
		Name:       "run-" + randHex(6),
		Level:      "INFO",
		StartedAt:  start,
		FinishedAt: end,
		Passed:     1,
		Results: []db.Result{
			{Label: "File.create", Kind: "outcomes", Outcomes: []string{"PASS"}},
			{Label: "File_Time", Kind: "timing", StartedAt: &start, EndedAt: &end, ElapsedSeconds: &elapsed},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	RequireNoError(t, database.SaveRun(r), "save run")
	return r
}

// RunWithName sets the run name.
func RunWithName(name string) RunOption {
	return func(r *db.Run) { r.Name = name }
}

// RunStartedAt sets the run start time.
func RunStartedAt(at time.Time) RunOption {
	return func(r *db.Run) { r.StartedAt = at }
}

// RunWithCounts sets passed/failed totals.
func RunWithCounts(passed, failed int) RunOption {
	return func(r *db.Run) {
		r.Passed = passed
		r.Failed = failed
	}
}

// RunWithResults replaces the results.
func RunWithResults(results ...db.Result) RunOption {
	return func(r *db.Run) { r.Results = results }
}

// GradientImage returns a w x h RGBA image whose pixels vary by position.
func GradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// WritePNG encodes img as PNG under dir and returns the path.
func WritePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	RequireNoError(t, err, "create png")
	defer f.Close()
	RequireNoError(t, png.Encode(f, img), "encode png")
	return path
}

// randHex returns a cryptographically random hex string for unique test IDs.
func randHex(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)[:n]
}
