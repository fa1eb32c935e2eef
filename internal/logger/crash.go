// Package logger provides structured logging, crash logging and recovery for TodoChat.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"
)

// MaxCrashLogs is the maximum number of crash logs to keep
const MaxCrashLogs = 10

// crashContext stores what was happening when a panic reached main.
type crashContext struct {
	mu        sync.RWMutex
	dir       string
	version   string
	command   string
	lastInput string
	lastState string
}

var globalContext = &crashContext{}

// SetCrashDir sets the directory crash logs are written to.
func SetCrashDir(dir string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.dir = dir
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the current command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// SetLastInput records the last chat message and the dialogue state it was handled in.
func SetLastInput(input, state string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastInput = truncateForLog(strings.TrimSpace(input), 500)
	globalContext.lastState = state
}

func truncateForLog(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "... [truncated]"
}

// CrashReport is one crash log entry.
type CrashReport struct {
	Timestamp  time.Time
	Version    string
	Command    string
	PanicValue string
	StackTrace string
	LastInput  string
	LastState  string
}

// HandlePanic is a deferred function that recovers from panics and logs them.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	report := newCrashReport(r, debug.Stack())
	path, err := WriteCrashReport(crashDir(), report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
		fmt.Fprintf(os.Stderr, "[CRASH] Panic: %v\n%s\n", r, report.StackTrace)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nTodoChat hit an unexpected error and has to stop.\n")
	fmt.Fprintf(os.Stderr, "A crash log has been saved to:\n  %s\n\n", path)
	os.Exit(1)
}

func newCrashReport(panicValue any, stack []byte) CrashReport {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()
	return CrashReport{
		Timestamp:  time.Now(),
		Version:    globalContext.version,
		Command:    globalContext.command,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(stack),
		LastInput:  globalContext.lastInput,
		LastState:  globalContext.lastState,
	}
}

func crashDir() string {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()
	if globalContext.dir == "" {
		return filepath.Join(".todochat", "crashes")
	}
	return globalContext.dir
}

// WriteCrashReport writes report into dir, prunes old logs and returns the file path.
func WriteCrashReport(dir string, report CrashReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("crash_%s.log", report.Timestamp.Format("20060102_150405.000")))
	if err := os.WriteFile(path, []byte(formatCrashReport(report)), 0o600); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}

	if err := pruneCrashLogs(dir, MaxCrashLogs); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}
	return path, nil
}

func formatCrashReport(r CrashReport) string {
	var sb strings.Builder
	rule := strings.Repeat("-", 72)

	sb.WriteString("TODOCHAT CRASH LOG\n" + rule + "\n")
	fmt.Fprintf(&sb, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Version:   %s\n", r.Version)
	fmt.Fprintf(&sb, "Command:   %s\n", r.Command)
	fmt.Fprintf(&sb, "Go:        %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if r.LastState != "" {
		fmt.Fprintf(&sb, "State:     %s\n", r.LastState)
	}
	if r.LastInput != "" {
		fmt.Fprintf(&sb, "\nLAST USER INPUT\n%s\n%s\n", rule, r.LastInput)
	}
	fmt.Fprintf(&sb, "\nPANIC\n%s\n%s\n", rule, r.PanicValue)
	fmt.Fprintf(&sb, "\nSTACK TRACE\n%s\n%s", rule, r.StackTrace)
	return sb.String()
}

// pruneCrashLogs keeps only the keep most recent crash logs in dir.
func pruneCrashLogs(dir string, keep int) error {
	logs, err := ListCrashLogs(dir)
	if err != nil {
		return err
	}
	if len(logs) <= keep {
		return nil
	}
	for _, path := range logs[:len(logs)-keep] {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// ListCrashLogs returns the crash logs in dir, oldest first.
func ListCrashLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".log") {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	// Names embed the timestamp.
	slices.Sort(logs)
	return logs, nil
}
