// Package hookinstall writes the git post-commit hook and its .txrc.json
// config (spec.md §6): the hook exits early unless `tx` is on PATH, then
// uses `git diff-tree` to flag commits that touch more than fileThreshold
// files, or any file matching a
// highValueFiles pattern. Grounded on cmd/bd/init_git_hooks.go's
// heredoc-script-body and signature-comment idempotency check, trimmed to
// this spec's single hook (no pre-commit/post-merge chaining — tx has no
// local daemon to flush before a commit).
package hookinstall

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jamesaphoenix/tx/internal/storeerr"
)

// DefaultFileThreshold is used when the config omits fileThreshold or sets
// a non-positive or non-finite value (spec.md §6).
const DefaultFileThreshold = 10

// signature marks a post-commit hook file as tx-authored, the same way the
// teacher's hooks self-identify for idempotent reinstall/detection.
const signature = "tx post-commit hook"

// safePattern is the allow-list spec.md §6 names for highValueFiles
// entries: no quotes, no $, ;, |, &, backtick, whitespace, backslash, or
// newline, since each pattern is embedded literally into a shell case arm.
var safePattern = regexp.MustCompile(`^[A-Za-z0-9_./*?\[\]-]+$`)

// Config is the .txrc.json shape.
type Config struct {
	FileThreshold  int      `json:"fileThreshold"`
	HighValueFiles []string `json:"highValueFiles"`
}

// Validate normalizes FileThreshold and rejects any highValueFiles entry
// outside the safe-character allow-list.
func (c *Config) Validate() error {
	if c.FileThreshold <= 0 {
		c.FileThreshold = DefaultFileThreshold
	}
	for _, pattern := range c.HighValueFiles {
		if !safePattern.MatchString(pattern) {
			return storeerr.Validation("invalid highValueFiles pattern %q: contains unsafe characters", pattern)
		}
	}
	return nil
}

// WriteConfig writes cfg as .txrc.json in dir, validating first.
func WriteConfig(dir string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ".txrc.json"), data, 0o644)
}

// ReadConfig reads .txrc.json from dir, defaulting to DefaultFileThreshold
// and no high-value patterns if the file is absent.
func ReadConfig(dir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, ".txrc.json"))
	if os.IsNotExist(err) {
		return Config{FileThreshold: DefaultFileThreshold}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, storeerr.Validation("malformed .txrc.json: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsInstalled reports whether gitDir/hooks/post-commit is a tx-authored
// hook.
func IsInstalled(gitDir string) bool {
	content, err := os.ReadFile(filepath.Join(gitDir, "hooks", "post-commit"))
	if err != nil {
		return false
	}
	return strings.Contains(string(content), signature)
}

// Install writes gitDir/hooks/post-commit, embedding cfg's fileThreshold
// and highValueFiles directly into the shell script, and overwrites any
// prior tx-authored hook (but refuses to clobber a foreign one unless
// force is set).
func Install(gitDir string, cfg Config, force bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")
	if existing, err := os.ReadFile(hookPath); err == nil {
		if !strings.Contains(string(existing), signature) && !force {
			return storeerr.Conflict("a non-tx post-commit hook already exists at %s (use --force to overwrite)", hookPath)
		}
	}
	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		return err
	}
	script := buildScript(cfg)
	if err := os.WriteFile(hookPath, []byte(script), 0o755); err != nil {
		return err
	}
	return nil
}

func buildScript(cfg Config) string {
	var patterns strings.Builder
	for _, p := range cfg.HighValueFiles {
		fmt.Fprintf(&patterns, "        %s) echo \"tx: high-value file changed: $f\" >&2; HIGH_VALUE=1 ;;\n", p)
	}

	return fmt.Sprintf(`#!/bin/sh
#
# %s
#
# Flags commits that touch more than %d files, or any file matching a
# configured high-value pattern. Informational only: never blocks the
# commit (it has already happened by the time post-commit runs).

if ! command -v tx >/dev/null 2>&1; then
    exit 0
fi

FILE_COUNT=$(git diff-tree --no-commit-id --name-only -r HEAD | wc -l | tr -d ' ')
HIGH_VALUE=0

for f in $(git diff-tree --no-commit-id --name-only -r HEAD); do
    case "$f" in
%s    esac
done

if [ "$FILE_COUNT" -gt %d ] 2>/dev/null; then
    echo "tx: commit touched $FILE_COUNT files (threshold %d)" >&2
fi

exit 0
`, signature, cfg.FileThreshold, patterns.String(), cfg.FileThreshold, cfg.FileThreshold)
}
