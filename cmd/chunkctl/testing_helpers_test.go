package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testSnapshotPath returns a path for a snapshot in a fresh temp directory
func testSnapshotPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "world.chk")
}

// resetFlags restores global flags to their defaults
func resetFlags() {
	verbose = false
	quiet = false
	jsonOut = false
	compressionName = "zstd"
	fillCount = 1000
	fillSeed = 1
	fillMaxCoord = 1 << 32
	fillMaxBlock = 16
	fillMetrics = false
	dumpLimit = 100
	dumpAll = false
	metricsDocs = false
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	<-done

	return buf.String(), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
