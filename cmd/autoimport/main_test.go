package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"autoimport/internal/driver"
	"autoimport/internal/inject"
	"autoimport/internal/relay"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"build succeeded", &driver.BuildSucceeded{Attempt: 2}, 0},
		{"compiler failed", &relay.ExitError{Code: 101}, 101},
		{"wrapped compiler failure", fmt.Errorf("final compile: %w", &relay.ExitError{Code: 3}), 3},
		{"out of range status", &relay.ExitError{Code: 300}, 1},
		{"duplicate unit", fmt.Errorf("src/main.rs: %w", driver.ErrDuplicateUnit), 2},
		{"marker repeated", fmt.Errorf("src/main.rs: %w", inject.ErrMarkerRepeated), 2},
		{"anything else", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestReportExitStaysQuietForCompilerFailures(t *testing.T) {
	var buf bytes.Buffer
	if code := reportExit(&buf, &relay.ExitError{Code: 4}); code != 4 {
		t.Fatalf("code = %d", code)
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected output %q", buf.String())
	}

	if code := reportExit(&buf, errors.New("no compiler")); code != 1 {
		t.Fatalf("code = %d", code)
	}
	if !bytes.Contains(buf.Bytes(), []byte("no compiler")) {
		t.Fatalf("error not printed: %q", buf.String())
	}
}
