package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/clipvault/internal/common"
)

type recorded struct {
	method, path, owner, roles, body string
}

func newServer(t *testing.T, status int, resp string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = append(got, recorded{r.Method, r.URL.Path, r.Header.Get(common.OwnerIDHeaderName), r.Header.Get(common.OwnerRolesHeaderName), string(b)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewApp(&out).Run(context.Background(), append([]string{"clipvault"}, args...))
	return out.String(), err
}

func TestList(t *testing.T) {
	srv, got := newServer(t, http.StatusOK,
		`{"files":[{"name":"clip1","url":"https://cdn/alice/clip1.mp4","created_at":"2024-05-01T12:00:00Z","expires_at":"2024-05-31T12:00:00Z"}]}`)

	out, err := run(t, "list", "--server", srv.URL, "--as", "42", "--roles", "uploader", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "clip1")
	assert.Contains(t, out, "2024-05-31 12:00:00")

	require.Len(t, *got, 1)
	assert.Equal(t, recorded{"GET", "/api/v1/owners/alice/files", "42", "uploader", ""}, (*got)[0])
}

func TestUpload_JSON(t *testing.T) {
	srv, got := newServer(t, http.StatusCreated, `{"url":"https://cdn/alice/clip1.mp4"}`)

	out, err := run(t, "upload", "--server", srv.URL, "--json", "--folder", "events", "https://youtu.be/x", "clip1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://cdn/alice/clip1.mp4"}`, out)
	assert.JSONEq(t, `{"source_url":"https://youtu.be/x","name":"clip1","folder":"events"}`, (*got)[0].body)
	assert.Equal(t, "admin", (*got)[0].roles, "default roles from config")
}

func TestUpload_APIError(t *testing.T) {
	srv, _ := newServer(t, http.StatusConflict, `{"error":"busy","message":"Another upload of yours is still running."}`)

	_, err := run(t, "upload", "--server", srv.URL, "https://youtu.be/x", "clip1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busy")
}

func TestQuota(t *testing.T) {
	srv, got := newServer(t, http.StatusNoContent, "")

	out, err := run(t, "quota", "--server", srv.URL, "bob", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "limit for bob set to 10")
	assert.Equal(t, `{"limit":10}`, (*got)[0].body)

	_, err = run(t, "quota", "--server", srv.URL, "bob", "-1")
	require.Error(t, err)
	_, err = run(t, "quota", "--server", srv.URL, "bob")
	require.Error(t, err)
	assert.Len(t, *got, 1)
}

func TestConfigFile(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"count":3,"limit":0}`)
	path := filepath.Join(t.TempDir(), "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"`+srv.URL+`","owner_id":"7","roles":[]}`), 0o600))

	out, err := run(t, "usage", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "3 files (unlimited)\n", out)
	assert.Equal(t, "/api/v1/owners/7/usage", (*got)[0].path)
	assert.Equal(t, "", (*got)[0].roles)
}

func TestReconcileAndDelete(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"expired":2,"orphans":1}`)

	out, err := run(t, "reconcile", "--server", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "resumed=0 expired=2 orphans=1 dangling=0 failed=0\n", out)

	out, err = run(t, "delete", "--server", srv.URL, "--owner", "bob", "clip1")
	require.NoError(t, err)
	assert.Equal(t, "deleted clip1\n", out)
	assert.Equal(t, "/api/v1/owners/bob/files/clip1", (*got)[1].path)
}
