package syncengine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jamesaphoenix/tx/internal/storeerr"
)

// readOperations parses every non-blank line of path as an Operation,
// validating each under its schema. Any JSON or schema error aborts the
// whole read, per spec.md §4.4/§6.
func readOperations(path string) ([]Operation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ops []Operation
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var op Operation
		if err := json.Unmarshal([]byte(line), &op); err != nil {
			return nil, storeerr.Validation("jsonl line %d: invalid JSON: %v", lineNo, err)
		}
		if err := op.Validate(); err != nil {
			return nil, storeerr.Validation("jsonl line %d: %v", lineNo, err)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning jsonl: %w", err)
	}
	return ops, nil
}
