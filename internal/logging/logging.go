// Package logging provides rotated, leveled file logging for the daemon
// and sync/reconcile loops. Grounded on the teacher's go.mod lumberjack
// dependency (rotation) and internal/autoimport.Notifier's Debugf/Infof/
// Warnf/Errorf shape (leveled logging, debug gated by a flag).
package logging

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes leveled, optionally-rotated log lines. It satisfies both
// internal/reconcile.Notifier (Debugf/Infof/Warnf/Errorf) and
// internal/syncengine.Notifier (Notify) so one instance can back every
// background loop's diagnostics.
type Logger struct {
	out   *log.Logger
	debug bool
}

// New writes to path, rotated via lumberjack (100MB max size, 3 backups,
// 28-day retention — the same defaults the teacher's go.mod stack assumes
// for a long-running local daemon). debug gates Debugf output.
func New(path string, debug bool) *Logger {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	return &Logger{out: log.New(writer, "", log.LstdFlags), debug: debug}
}

// NewStderr writes uncompressed, unrotated lines to stderr — used for CLI
// foreground runs where rotation serves no purpose.
func NewStderr(debug bool) *Logger {
	return &Logger{out: log.New(os.Stderr, "", 0), debug: debug}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.debug {
		l.out.Printf("DEBUG "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.out.Printf("INFO "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.out.Printf("WARN "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.out.Printf("ERROR "+format, args...)
}

// Notify satisfies internal/syncengine.Notifier's single-method shape.
func (l *Logger) Notify(msg string) {
	l.out.Print(fmt.Sprintf("INFO %s", msg))
}
