// Package logger provides crash logging and recovery for CreditDesk.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const (
	// CrashLogDir is the directory for crash logs relative to .creditdesk
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep
	MaxCrashLogs = 10
)

// CrashContext stores context for crash logging.
type CrashContext struct {
	mu          sync.RWMutex
	command     string
	version     string
	basePath    string
	lastRequest string
	requestID   string
	fs          afero.Fs
}

// globalContext is the singleton crash context.
var globalContext = &CrashContext{}

// SetBasePath sets the base path for crash logs (typically ~/.creditdesk).
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetFs replaces the filesystem crash logs are written to.
func SetFs(fs afero.Fs) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.fs = fs
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

// SetLastRequest records the last backend call, so a crash while rendering
// its response can be traced back to it.
func SetLastRequest(method, path, requestID string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastRequest = truncateForLog(strings.TrimSpace(method+" "+path), 500)
	globalContext.requestID = requestID
}

func truncateForLog(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "... [truncated]"
}

func filesystem() afero.Fs {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()
	if globalContext.fs == nil {
		return afero.NewOsFs()
	}
	return globalContext.fs
}

// CrashLog represents a crash log entry.
type CrashLog struct {
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Command     string    `json:"command"`
	PanicValue  string    `json:"panic_value"`
	StackTrace  string    `json:"stack_trace"`
	LastRequest string    `json:"last_request,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	GoVersion   string    `json:"go_version"`
	OS          string    `json:"os"`
	Arch        string    `json:"arch"`
}

// HandlePanic is a deferred function that recovers from panics and logs them.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	if r := recover(); r != nil {
		log := createCrashLog(r)
		reportCrash(os.Stderr, log, writeCrashLog(log))
		os.Exit(1)
	}
}

func reportCrash(w io.Writer, log CrashLog, writeErr error) {
	if writeErr != nil {
		// If we can't write to crash log, print to stderr
		_, _ = fmt.Fprintf(w, "\n[CRASH] Failed to write crash log: %v\n", writeErr)
		_, _ = fmt.Fprintf(w, "[CRASH] Panic: %s\n%s\n", log.PanicValue, log.StackTrace)
		return
	}
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "╭──────────────────────────────────────────────────────╮\n")
	_, _ = fmt.Fprintf(w, "│ 🔴 CreditDesk encountered an unexpected error        │\n")
	_, _ = fmt.Fprintf(w, "╰──────────────────────────────────────────────────────╯\n")
	_, _ = fmt.Fprintf(w, "\nA crash log has been saved to:\n  %s\n", getCrashLogPath(log.Timestamp))
	if log.RequestID != "" {
		_, _ = fmt.Fprintf(w, "\nLast backend request id: %s\n", log.RequestID)
	}
	_, _ = fmt.Fprintf(w, "\n")
}

// createCrashLog creates a CrashLog from a panic value.
func createCrashLog(panicValue any) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		Timestamp:   time.Now(),
		Version:     globalContext.version,
		Command:     globalContext.command,
		PanicValue:  fmt.Sprintf("%v", panicValue),
		StackTrace:  string(debug.Stack()),
		LastRequest: globalContext.lastRequest,
		RequestID:   globalContext.requestID,
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
	}
}

// writeCrashLog writes a crash log to disk.
func writeCrashLog(log CrashLog) error {
	fs := filesystem()
	dir := getCrashLogDir()

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create crash log dir: %w", err)
	}

	if err := cleanOldCrashLogs(fs, dir); err != nil {
		// Non-fatal, continue with writing
		_, _ = fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}

	path := getCrashLogPath(log.Timestamp)
	if err := afero.WriteFile(fs, path, []byte(formatCrashLog(log)), 0644); err != nil {
		return fmt.Errorf("write crash log: %w", err)
	}
	return nil
}

// getCrashLogDir returns the directory for crash logs.
func getCrashLogDir() string {
	globalContext.mu.RLock()
	basePath := globalContext.basePath
	globalContext.mu.RUnlock()

	if basePath == "" {
		basePath = ".creditdesk"
	}
	return filepath.Join(basePath, CrashLogDir)
}

// getCrashLogPath returns the path for a crash log file.
func getCrashLogPath(t time.Time) string {
	filename := fmt.Sprintf("crash_%s.log", t.Format("20060102_150405"))
	return filepath.Join(getCrashLogDir(), filename)
}

func section(sb *strings.Builder, title, body string) {
	sb.WriteString("\n" + strings.Repeat("-", 80) + "\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
}

// formatCrashLog formats a CrashLog as human-readable text.
func formatCrashLog(log CrashLog) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString("CREDITDESK CRASH LOG\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")

	fmt.Fprintf(&sb, "Timestamp: %s\n", log.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Version:   %s\n", log.Version)
	fmt.Fprintf(&sb, "Command:   %s\n", log.Command)
	fmt.Fprintf(&sb, "Go:        %s\n", log.GoVersion)
	fmt.Fprintf(&sb, "OS/Arch:   %s/%s\n", log.OS, log.Arch)

	section(&sb, "PANIC VALUE", log.PanicValue)
	section(&sb, "STACK TRACE", log.StackTrace)
	if log.LastRequest != "" {
		body := log.LastRequest
		if log.RequestID != "" {
			body += "\nX-Request-ID: " + log.RequestID
		}
		section(&sb, "LAST BACKEND REQUEST", body)
	}

	sb.WriteString("\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("END OF CRASH LOG\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	return sb.String()
}

func crashLogNames(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".log") {
			names = append(names, e.Name())
		}
	}
	// Names embed the timestamp, so lexical order is oldest first.
	sort.Strings(names)
	return names, nil
}

// cleanOldCrashLogs removes old crash logs, keeping only MaxCrashLogs most recent.
func cleanOldCrashLogs(fs afero.Fs, dir string) error {
	names, err := crashLogNames(fs, dir)
	if err != nil || len(names) <= MaxCrashLogs {
		return err
	}
	for _, name := range names[:len(names)-MaxCrashLogs] {
		if err := fs.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", name, err)
		}
	}
	return nil
}

// ListCrashLogs returns the paths of all crash logs, oldest first.
func ListCrashLogs() ([]string, error) {
	dir := getCrashLogDir()
	names, err := crashLogNames(filesystem(), dir)
	if err != nil {
		return nil, err
	}
	logs := make([]string, 0, len(names))
	for _, name := range names {
		logs = append(logs, filepath.Join(dir, name))
	}
	return logs, nil
}

// ReadCrashLog reads a crash log file.
func ReadCrashLog(path string) (string, error) {
	content, err := afero.ReadFile(filesystem(), path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
