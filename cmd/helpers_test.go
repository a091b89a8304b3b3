package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/josephgoksu/CreditDesk/internal/config"
	"github.com/josephgoksu/CreditDesk/internal/session"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const testSessionFile = "/home/test/.creditdesk/session.json"

// fakeBackend records calls and serves canned answers per "METHOD path".
type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]any
	calls  []string
	bodies map[string][]byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{routes: map[string]any{}, bodies: map[string][]byte{}}
}

func (f *fakeBackend) on(route string, resp any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = resp
}

func (f *fakeBackend) called(route string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == route {
			return true
		}
	}
	return false
}

func (f *fakeBackend) body(route string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[route]
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, route)
	f.bodies[route] = buf.Bytes()
	resp, ok := f.routes[route]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "not found"}`))
		return
	}
	if status, isStatus := resp.(int); isStatus {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail": "refused"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// resetFlags restores every flag of c and its children to its default.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

type cliEnv struct {
	backend *fakeBackend
	dir     string
}

// setupCLI points the CLI at a fake backend, an in-memory filesystem and a
// temporary config directory.
func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()

	viper.Reset()
	bindFlags()
	resetFlags(rootCmd)
	GlobalAppConfig = types.AppConfig{}

	origDir := config.GetGlobalConfigDir
	config.GetGlobalConfigDir = func() (string, error) { return dir, nil }
	origFs := appFs
	appFs = afero.NewMemMapFs()

	rootCmd.SetIn(bytes.NewReader(nil))
	backend := newFakeBackend()
	srv := httptest.NewServer(backend)

	viper.Set("api.baseURL", srv.URL)
	viper.Set("session.file", testSessionFile)
	viper.Set("snapshot.path", filepath.Join(dir, "snapshots.db"))
	viper.Set("policy.dir", "/policies")

	t.Cleanup(func() {
		srv.Close()
		config.GetGlobalConfigDir = origDir
		appFs = origFs
		viper.Reset()
		bindFlags()
		resetFlags(rootCmd)
	})
	return &cliEnv{backend: backend, dir: dir}
}

// run executes the CLI with args and returns everything it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func loginAs(t *testing.T, role models.Role, userID string) {
	t.Helper()
	store := session.NewStore(appFs, testSessionFile)
	require.NoError(t, store.Save(&session.Session{Token: "tok-" + userID, Role: role, UserID: userID, Email: userID + "@bank.fr"}))
}
