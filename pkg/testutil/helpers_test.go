package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestFindRow(t *testing.T) {
	rows := []map[string]any{
		{"year": 1, "balance": 1050.0},
		{"year": 2, "balance": 1102.5},
		{"year": 3, "balance": 1157.63},
	}

	tests := []struct {
		name        string
		column      string
		value       any
		expectFound bool
		expected    float64
	}{
		{name: "First row", column: "year", value: 1, expectFound: true, expected: 1050.0},
		{name: "Last row", column: "year", value: 3, expectFound: true, expected: 1157.63},
		{name: "Match on float column", column: "balance", value: 1102.5, expectFound: true, expected: 1102.5},
		{name: "Missing value", column: "year", value: 4},
		{name: "Missing column", column: "month", value: 1},
		{name: "Type must match", column: "year", value: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := FindRow(rows, tt.column, tt.value)
			if !tt.expectFound {
				if row != nil {
					t.Errorf("FindRow() expected nil for %s=%v but got %v", tt.column, tt.value, row)
				}
				return
			}
			if row == nil {
				t.Fatalf("FindRow() expected to find %s=%v but got nil", tt.column, tt.value)
			}
			if row["balance"] != tt.expected {
				t.Errorf("FindRow() returned balance %v, expected %v", row["balance"], tt.expected)
			}
		})
	}
}

func TestFindRowEmpty(t *testing.T) {
	if row := FindRow(nil, "year", 1); row != nil {
		t.Errorf("FindRow() with nil rows should return nil, got %v", row)
	}
}

func TestFindRowDuplicates(t *testing.T) {
	rows := []map[string]any{
		{"mode": "of", "order": 1},
		{"mode": "of", "order": 2},
	}
	row := FindRow(rows, "mode", "of")
	if row == nil || row["order"] != 1 {
		t.Errorf("FindRow() should return first match, got %v", row)
	}
}

func TestCaptureStdout(t *testing.T) {
	out := CaptureStdout(t, func() {
		fmt.Println("hello")
		fmt.Print(strings.Repeat("x", 100000))
	})
	if !strings.HasPrefix(out, "hello\n") {
		t.Errorf("CaptureStdout() missing first line, got %q", out[:10])
	}
	if len(out) != len("hello\n")+100000 {
		t.Errorf("CaptureStdout() captured %d bytes", len(out))
	}

	if os.Stdout == nil {
		t.Fatal("CaptureStdout() did not restore os.Stdout")
	}
}
