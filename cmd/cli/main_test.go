package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a minimal REST backend; it records every request it serves.
type fakeBackend struct {
	t        *testing.T
	userType string

	mu    sync.Mutex
	calls []string
}

func (b *fakeBackend) hits() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls = append(b.calls, r.Method+" "+r.URL.Path)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.Method + " " + r.URL.Path {
	case "POST /auth/login":
		var cr struct{ Email, Password string }
		assert.NoError(b.t, json.NewDecoder(r.Body).Decode(&cr))
		if cr.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Email ou mot de passe incorrect"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "tok",
			"user":  map[string]string{"uri": "urn:user:1", "nom": "Ana", "email": cr.Email, "type": b.userType},
		})
	case "POST /auth/logout", "POST /ai/reset":
		_, _ = io.WriteString(w, `{}`)
	case "GET /produit":
		_, _ = io.WriteString(w, `[{"id":1,"nom":"miel","prix":4.5}]`)
	case "POST /produit":
		var p map[string]any
		assert.NoError(b.t, json.NewDecoder(r.Body).Decode(&p))
		p["id"] = 9
		_ = json.NewEncoder(w).Encode(p)
	case "POST /reservation-restaurant/check-availability":
		_, _ = io.WriteString(w, `{"available":false,"message":"Complet ce soir"}`)
	case "POST /ai/chat":
		_, _ = io.WriteString(w, `{"response":"Bonjour !"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type cli struct {
	t     *testing.T
	back  *fakeBackend
	url   string
	state string
}

func newCLI(t *testing.T, userType string) *cli {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ECOTOUR_CONFIG", "")
	b := &fakeBackend{t: t, userType: userType}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return &cli{t: t, back: b, url: srv.URL, state: t.TempDir()}
}

// run executes eco with the test backend and state dir; stdin is in.
func (c *cli) run(in string, args ...string) (code int, stdout, stderr string) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"-api-url", c.url, "-state-dir", c.state}, args...)
	code = run(context.Background(), full, strings.NewReader(in), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (c *cli) login() {
	c.t.Helper()
	code, _, stderr := c.run("", "login", "-email", "ana@example.org", "-password", "secret")
	require.Equal(c.t, 0, code, stderr)
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	code := run(context.Background(), []string{"version"}, strings.NewReader(""), &out, io.Discard)
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out.String(), "eco "), out.String())
}

func TestRun_UsageErrors(t *testing.T) {
	var errOut bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, strings.NewReader(""), io.Discard, &errOut))
	assert.Contains(t, errOut.String(), "Commands:")

	errOut.Reset()
	assert.Equal(t, 2, run(context.Background(), []string{"teleport"}, strings.NewReader(""), io.Discard, &errOut))
	assert.Contains(t, errOut.String(), "add-carbon")
}

func TestRun_BadConfig(t *testing.T) {
	c := newCLI(t, "Touriste")
	code, _, stderr := c.run("", "-storage", "floppy", "list", "product")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "config:")
	assert.Empty(t, c.back.hits())
}

func TestRun_AnonymousReserveIsRedirected(t *testing.T) {
	c := newCLI(t, "Touriste")
	code, _, stderr := c.run("", "reserve", "-restaurant", "urn:r:1", "-date", "2026-07-01", "-time", "19:30", "-people", "2")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "please sign in first")
	assert.Empty(t, c.back.hits())
}

func TestRun_LoginWhoamiLogout(t *testing.T) {
	c := newCLI(t, "Touriste")

	code, stdout, stderr := c.run("secret\n", "login", "-email", "ana@example.org")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "signed in as Ana")
	_, err := os.Stat(filepath.Join(c.state, "state.json"))
	require.NoError(t, err)

	// a new process restores the session from disk
	code, stdout, stderr = c.run("", "whoami")
	require.Equal(t, 0, code, stderr)
	var who map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &who))
	assert.Equal(t, "urn:user:1", who["uri"])
	assert.Equal(t, "ana@example.org", who["email"])

	code, _, stderr = c.run("", "login", "-email", "ana@example.org", "-password", "secret")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already signed in")

	code, stdout, _ = c.run("", "logout")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "signed out")
	assert.Contains(t, c.back.hits(), "POST /auth/logout")

	code, _, stderr = c.run("", "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "please sign in first")
}

func TestRun_LoginFailureShowsBackendMessage(t *testing.T) {
	c := newCLI(t, "Touriste")
	code, _, stderr := c.run("", "login", "-email", "ana@example.org", "-password", "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Email ou mot de passe incorrect")

	code, _, _ = c.run("", "whoami")
	assert.Equal(t, 1, code)
}

func TestRun_ProfilesAreSeparate(t *testing.T) {
	c := newCLI(t, "Touriste")
	code, _, stderr := c.run("", "-profile", "kiosk", "login", "-email", "ana@example.org", "-password", "secret")
	require.Equal(t, 0, code, stderr)
	_, err := os.Stat(filepath.Join(c.state, "state-kiosk.json"))
	require.NoError(t, err)

	code, _, _ = c.run("", "whoami")
	assert.Equal(t, 1, code)
	code, _, _ = c.run("", "-profile", "kiosk", "whoami")
	assert.Equal(t, 0, code)
}

func TestRun_SealedStateIsNotPlaintext(t *testing.T) {
	c := newCLI(t, "Touriste")
	code, _, stderr := c.run("", "-seal", "login", "-email", "ana@example.org", "-password", "secret")
	require.Equal(t, 0, code, stderr)

	raw, err := os.ReadFile(filepath.Join(c.state, "state.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ana@example.org")

	code, _, _ = c.run("", "-seal", "whoami")
	assert.Equal(t, 0, code)
}

func TestRun_ListCatalog(t *testing.T) {
	c := newCLI(t, "Touriste")
	code, stdout, stderr := c.run("", "-storage", "memory", "list", "product")
	require.Equal(t, 0, code, stderr)
	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "miel", out[0]["nom"])

	code, _, stderr = c.run("", "-storage", "memory", "list", "spaceship")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "resource")

	code, _, stderr = c.run("", "-storage", "memory", "list", "-difficulte", "facile", "product")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "difficulte")
}

func TestRun_TouristeCannotRemove(t *testing.T) {
	c := newCLI(t, "Touriste")
	c.login()

	code, _, stderr := c.run("", "rm", "product", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not allowed")
	for _, h := range c.back.hits() {
		assert.NotContains(t, h, "DELETE")
	}
}

func TestRun_ReserveUnavailable(t *testing.T) {
	c := newCLI(t, "Touriste")
	c.login()

	code, _, stderr := c.run("", "reserve", "-restaurant", "urn:r:1", "-date", "2026-07-01", "-time", "19:30", "-people", "2")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Complet ce soir")
	assert.NotContains(t, c.back.hits(), "POST /reservation-restaurant")

	code, _, stderr = c.run("", "reserve", "-restaurant", "urn:r:1", "-date", "01/07/2026", "-time", "19:30", "-people", "2")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "date")
}

func TestRun_Chat(t *testing.T) {
	c := newCLI(t, "Touriste")
	code, stdout, stderr := c.run("bonjour\n/reset\n/quit\n", "-storage", "memory", "chat")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Bonjour !")
	assert.Contains(t, stdout, "conversation cleared")
	assert.Equal(t, []string{"POST /ai/chat", "POST /ai/reset"}, c.back.hits())
}

func TestStateFile(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "state.json", stateFile(""))
	assert.Equal(t, "state.json", stateFile("default"))
	assert.Equal(t, "state-kiosk.json", stateFile("kiosk"))
}

func TestReadAll_FileAndStdin(t *testing.T) {
	t.Parallel()

	tmp := filepath.Join(t.TempDir(), "q.rq")
	require.NoError(t, os.WriteFile(tmp, []byte("SELECT * WHERE {}"), 0o600))
	b, err := readAll(nil, tmp)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * WHERE {}", string(b))

	b, err = readAll(strings.NewReader("from-stdin"), "-")
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", string(b))
}
