package logger

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetContext(base string) afero.Fs {
	fs := afero.NewMemMapFs()
	globalContext = &CrashContext{basePath: base, fs: fs}
	return fs
}

func TestCrashHandler_SetContext(t *testing.T) {
	globalContext = &CrashContext{}

	SetBasePath("/tmp/test-creditdesk")
	SetVersion("1.0.0-test")
	SetCommand("requests show")
	SetLastRequest("GET", "/api/banker/credit-requests/r1", "req-1")

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	assert.Equal(t, "/tmp/test-creditdesk", globalContext.basePath)
	assert.Equal(t, "1.0.0-test", globalContext.version)
	assert.Equal(t, "requests show", globalContext.command)
	assert.Equal(t, "GET /api/banker/credit-requests/r1", globalContext.lastRequest)
	assert.Equal(t, "req-1", globalContext.requestID)
}

func TestCrashHandler_LastRequestTruncation(t *testing.T) {
	globalContext = &CrashContext{}

	SetLastRequest("GET", "/"+strings.Repeat("a", 3000), "")

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()
	assert.LessOrEqual(t, len(globalContext.lastRequest), 520)
	assert.Contains(t, globalContext.lastRequest, "[truncated]")
}

func TestCrashHandler_CreateCrashLog(t *testing.T) {
	globalContext = &CrashContext{
		version:     "1.0.0",
		command:     "explain",
		lastRequest: "POST /api/auth/login",
		requestID:   "rid",
	}

	log := createCrashLog("test panic")

	assert.Equal(t, "test panic", log.PanicValue)
	assert.Equal(t, "1.0.0", log.Version)
	assert.Equal(t, "explain", log.Command)
	assert.Equal(t, "POST /api/auth/login", log.LastRequest)
	assert.Equal(t, "rid", log.RequestID)
	assert.NotEmpty(t, log.StackTrace)
	assert.NotEmpty(t, log.GoVersion)
}

func TestCrashHandler_FormatCrashLog(t *testing.T) {
	log := CrashLog{
		Timestamp:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Version:     "1.0.0",
		Command:     "requests watch",
		PanicValue:  "test panic",
		StackTrace:  "goroutine 1 [running]:\nmain.main()",
		LastRequest: "GET /api/banker/credit-requests",
		RequestID:   "abc",
		GoVersion:   "go1.24.3",
		OS:          "linux",
		Arch:        "amd64",
	}

	formatted := formatCrashLog(log)

	for _, expected := range []string{
		"CREDITDESK CRASH LOG",
		"Timestamp: 2025-01-01T12:00:00Z",
		"Command:   requests watch",
		"OS/Arch:   linux/amd64",
		"PANIC VALUE",
		"goroutine 1 [running]",
		"LAST BACKEND REQUEST",
		"X-Request-ID: abc",
	} {
		assert.Contains(t, formatted, expected)
	}
}

func TestCrashHandler_WriteAndList(t *testing.T) {
	fs := resetContext("/home/u/.creditdesk")

	log := CrashLog{Timestamp: time.Now(), PanicValue: "test panic", StackTrace: "stack"}
	require.NoError(t, writeCrashLog(log))

	exists, err := afero.DirExists(fs, filepath.Join("/home/u/.creditdesk", CrashLogDir))
	require.NoError(t, err)
	assert.True(t, exists)

	logs, err := ListCrashLogs()
	require.NoError(t, err)
	require.Len(t, logs, 1)

	content, err := ReadCrashLog(logs[0])
	require.NoError(t, err)
	assert.Contains(t, content, "test panic")
}

func TestCrashHandler_CleanOldLogs(t *testing.T) {
	fs := resetContext("/base")
	crashDir := filepath.Join("/base", CrashLogDir)
	require.NoError(t, fs.MkdirAll(crashDir, 0755))

	for i := range MaxCrashLogs + 5 {
		name := filepath.Join(crashDir, fmt.Sprintf("crash_20250101_1200%02d.log", i))
		require.NoError(t, afero.WriteFile(fs, name, []byte("test"), 0644))
	}

	require.NoError(t, cleanOldCrashLogs(fs, crashDir))

	logs, err := ListCrashLogs()
	require.NoError(t, err)
	require.Len(t, logs, MaxCrashLogs)
	assert.Equal(t, "crash_20250101_120005.log", filepath.Base(logs[0]))
}

func TestCrashHandler_ListWithoutDir(t *testing.T) {
	resetContext("/nothing")
	logs, err := ListCrashLogs()
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCrashHandler_GetCrashLogPath(t *testing.T) {
	globalContext = &CrashContext{basePath: "/tmp/test"}

	path := getCrashLogPath(time.Date(2025, 1, 15, 14, 30, 45, 0, time.UTC))
	assert.Equal(t, "/tmp/test/crash_logs/crash_20250115_143045.log", path)
}

func TestCrashHandler_DefaultBasePath(t *testing.T) {
	globalContext = &CrashContext{}
	assert.Equal(t, ".creditdesk/crash_logs", getCrashLogDir())
}

func TestReportCrash(t *testing.T) {
	globalContext = &CrashContext{basePath: "/b"}
	log := CrashLog{Timestamp: time.Date(2025, 1, 15, 14, 30, 45, 0, time.UTC), PanicValue: "boom", RequestID: "rid"}

	var ok bytes.Buffer
	reportCrash(&ok, log, nil)
	assert.Contains(t, ok.String(), "/b/crash_logs/crash_20250115_143045.log")
	assert.Contains(t, ok.String(), "rid")

	var failed bytes.Buffer
	reportCrash(&failed, log, errors.New("disk full"))
	assert.Contains(t, failed.String(), "disk full")
	assert.Contains(t, failed.String(), "boom")
}
