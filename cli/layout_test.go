package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widget-dashboard/api"
	"widget-dashboard/auth"
	"widget-dashboard/gateway"
	"widget-dashboard/live"
	"widget-dashboard/preference"
	"widget-dashboard/userstore"
	"widget-dashboard/widget"
)

func newServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	store, err := userstore.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	tokens, err := auth.NewTokenService("cli-secret", 0)
	require.NoError(t, err)
	srv := httptest.NewServer(api.RegisterRoutes(store, tokens, live.NewHub(), widget.Default()))
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})

	creds := `{"email":"ada@example.com","password":"hunter22"}`
	resp, err := http.Post(srv.URL+"/api/register", "application/json", strings.NewReader(creds))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token, err := gateway.New(srv.URL).Login(context.Background(), "ada@example.com", "hunter22")
	require.NoError(t, err)
	return srv, string(token)
}

func runLayout(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DASHBOARD_TOKEN", "")
	cmd := LayoutCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func remoteSet(t *testing.T, url, token string) preference.Set {
	t.Helper()
	set, err := gateway.New(url).Load(context.Background(), preference.Credential(token))
	require.NoError(t, err)
	return set
}

func TestLayoutShow(t *testing.T) {
	srv, token := newServer(t)

	out, err := runLayout(t, "show", "--server", srv.URL, "--token", token)
	require.NoError(t, err)

	assert.Contains(t, out, "Your Favourite Movie")
	assert.Contains(t, out, "Multiple Chart")
	assert.Contains(t, out, "Dashboard:")
}

func TestLayoutToggleSaves(t *testing.T) {
	srv, token := newServer(t)

	_, err := runLayout(t, "toggle", "2", "--server", srv.URL, "--token", token)
	require.NoError(t, err)

	set := remoteSet(t, srv.URL, token)
	require.Equal(t, "2", set[1].ID)
	assert.True(t, set[1].IsVisible)
}

func TestLayoutMoveDownSaves(t *testing.T) {
	srv, token := newServer(t)

	_, err := runLayout(t, "move-down", "1", "--server", srv.URL, "--token", token)
	require.NoError(t, err)

	set := remoteSet(t, srv.URL, token)
	assert.Equal(t, []string{"2", "1", "3"}, set.IDs()[:3])
}

func TestLayoutRejectsBadPosition(t *testing.T) {
	srv, token := newServer(t)

	_, err := runLayout(t, "toggle", "99", "--server", srv.URL, "--token", token)
	assert.ErrorContains(t, err, "no widget at position 99")

	_, err = runLayout(t, "move-up", "first", "--server", srv.URL, "--token", token)
	assert.Error(t, err)

	assert.Len(t, remoteSet(t, srv.URL, token), 12)
}

func TestLayoutRequiresToken(t *testing.T) {
	srv, _ := newServer(t)

	_, err := runLayout(t, "show", "--server", srv.URL)
	assert.ErrorIs(t, err, preference.ErrNoCredential)
}

func TestLayoutWidgets(t *testing.T) {
	srv, _ := newServer(t)

	out, err := runLayout(t, "widgets", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Top 10 Highest-Rated Movies")
}

func TestLoginPrintsToken(t *testing.T) {
	srv, _ := newServer(t)

	cmd := LoginCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--server", srv.URL, "--email", "ada@example.com", "--password", "hunter22"})
	require.NoError(t, cmd.Execute())

	token := strings.TrimSpace(out.String())
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, remoteSet(t, srv.URL, token))
}

func TestLayoutEditReportsLoadFailure(t *testing.T) {
	srv, _ := newServer(t)

	_, err := runLayout(t, "toggle", "1", "--server", srv.URL, "--token", "not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, preference.ErrUnauthorized)
	assert.Contains(t, err.Error(), "load arrangement")
	assert.NotContains(t, err.Error(), "save failed")
}
