package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesaphoenix/tx/internal/config"
	"github.com/jamesaphoenix/tx/internal/storeerr"
)

// FatalErrorRespectJSON prints a single diagnostic line to stderr (JSON
// object if --json was passed, plain text otherwise) and exits non-zero,
// per spec.md §6/§7's CLI error convention.
func FatalErrorRespectJSON(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if jsonOutput {
		_ = json.NewEncoder(os.Stderr).Encode(map[string]string{"error": msg})
	} else {
		fmt.Fprintln(os.Stderr, "error:", msg)
	}
	os.Exit(exitCodeFor(nil))
}

// FatalOnError is FatalErrorRespectJSON's entry point for a Go error value;
// it maps known storeerr types to distinct exit codes so scripts can branch
// on failure kind without parsing the message.
func FatalOnError(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if jsonOutput {
		_ = json.NewEncoder(os.Stderr).Encode(map[string]string{"error": msg})
	} else {
		fmt.Fprintln(os.Stderr, "error:", msg)
	}
	os.Exit(exitCodeFor(err))
}

// exitCodeFor gives NotFound/Conflict/Validation errors their own exit
// codes; everything else (including the plain FatalErrorRespectJSON path)
// exits 1.
func exitCodeFor(err error) int {
	if err == nil {
		return 1
	}
	var notFound *storeerr.NotFoundError
	var conflict *storeerr.ConflictError
	var validation *storeerr.ValidationError
	switch {
	case errors.As(err, &notFound):
		return 2
	case errors.As(err, &conflict):
		return 3
	case errors.As(err, &validation):
		return 4
	default:
		return 1
	}
}

// printOutput renders v as pretty JSON when --json is set, otherwise
// defers to human, which formats the same value for terminal display.
func printOutput(v interface{}, human func()) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			FatalOnError(err)
		}
		return
	}
	human()
}

func dbDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	return dir
}

func reaperStaleAfter() time.Duration {
	raw := config.GetString("reaper.stale-after")
	if raw == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
