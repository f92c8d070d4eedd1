// Package testutil provides common utility functions for testing.
package testutil

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// FindRow finds the first table row whose column equals value.
// Returns nil if no row matches.
func FindRow(rows []map[string]any, column string, value any) map[string]any {
	for _, row := range rows {
		if v, ok := row[column]; ok && v == value {
			return row
		}
	}
	return nil
}

// CaptureStdout runs fn with os.Stdout redirected and returns what it wrote.
func CaptureStdout(t testing.TB, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	defer func() {
		os.Stdout = oldStdout
	}()
	fn()
	_ = w.Close()
	return <-done
}
