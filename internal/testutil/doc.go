// Package testutil provides shared test helpers and fixtures for diveboard.
//
// Philosophy:
// - Prefer real files and a real SQLite database over mocks.
// - Keep helpers small, composable, and deterministic.
// - Register cleanup via t.Cleanup so tests stay leak-free.
//
// Most packages should start with:
//
//	h := testutil.NewHarness(t)
//	run := testutil.MakeRun(t, h.DB, testutil.RunWithName("smoke"))
package testutil
