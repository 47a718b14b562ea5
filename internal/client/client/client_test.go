package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/clipvault/internal/common"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, Identity{OwnerID: "42", DisplayName: "alice", Roles: []string{"admin", "uploader"}}, 5*time.Second, 1)
}

func TestUpload_SendsIdentityAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/uploads", r.URL.Path)
		assert.Equal(t, "42", r.Header.Get(common.OwnerIDHeaderName))
		assert.Equal(t, "alice", r.Header.Get(common.OwnerNameHeaderName))
		assert.Equal(t, "admin,uploader", r.Header.Get(common.OwnerRolesHeaderName))

		var req UploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, UploadRequest{SourceURL: "https://youtu.be/x", Name: "clip1"}, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"url":"https://cdn.example.com/alice/clip1.mp4"}`)
	})

	url, err := c.Upload(context.Background(), UploadRequest{SourceURL: "https://youtu.be/x", Name: "clip1"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/alice/clip1.mp4", url)
}

func TestAPIErrorIsNotRetried(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":"quota_exceeded","message":"Upload limit reached.","retryable":false}`)
	})

	_, err := c.Upload(context.Background(), UploadRequest{SourceURL: "u", Name: "n"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, common.CategoryQuotaExceeded, CategoryOf(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "Upload limit reached.", apiErr.Message)
}

func TestNonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	})
	err := c.Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestListAndUsage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/owners/bob/files":
			_, _ = io.WriteString(w, `{"files":[{"name":"clip1","url":"u1","created_at":"2024-05-01T12:00:00Z"}]}`)
		case "/api/v1/owners/bob/usage":
			_, _ = io.WriteString(w, `{"count":1,"limit":5}`)
		default:
			http.NotFound(w, r)
		}
	})

	files, err := c.List(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "clip1", files[0].Name)
	assert.Equal(t, 2024, files[0].CreatedAt.Year())

	u, err := c.Usage(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, Usage{Count: 1, Limit: 5}, u)
}

func TestAdminCalls(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, r.Method+" "+r.URL.Path+" "+string(body))
		if r.URL.Path == "/api/v1/admin/reconcile" {
			_, _ = io.WriteString(w, `{"expired":2}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, c.SetQuota(ctx, "bob", 0))
	require.NoError(t, c.SetFolder(ctx, "bob", "team_a"))
	require.NoError(t, c.Delete(ctx, "bob", "clip1"))
	rep, err := c.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Expired)

	assert.Equal(t, []string{
		`PUT /api/v1/admin/owners/bob/quota {"limit":0}`,
		`PUT /api/v1/admin/owners/bob/folder {"folder":"team_a"}`,
		`DELETE /api/v1/owners/bob/files/clip1 `,
		`POST /api/v1/admin/reconcile `,
	}, got)
}

func TestUnavailable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	c := New("http://"+addr, Identity{OwnerID: "1"}, time.Second, 1)
	err = c.Health(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}
