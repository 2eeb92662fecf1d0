package panel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"remnawave.dev/internal/client"
	"remnawave.dev/internal/session"
)

type recordedRequest struct {
	method  string
	path    string
	escaped string
	query   string
	body    map[string]any
}

func newTestPanel(t *testing.T, respond func(r *http.Request) (int, any)) (*Panel, *[]recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{method: r.Method, path: r.URL.Path, escaped: r.URL.EscapedPath(), query: r.URL.RawQuery}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		mu.Lock()
		seen = append(seen, rec)
		mu.Unlock()
		status, payload := respond(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)

	store := session.NewMemStore()
	if err := store.Save(session.Credentials{AccessToken: "acc", RefreshToken: "ref"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	sess, err := session.New(store)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	c, err := client.New(srv.URL, sess)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return New(c), &seen
}

func TestUsersListBuildsQuery(t *testing.T) {
	p, seen := newTestPanel(t, func(r *http.Request) (int, any) {
		return http.StatusOK, UserPage{
			Items: []User{{ID: "u-1", Username: "alice", Status: "active"}},
			Total: 1,
		}
	})

	page, err := p.Users.List(context.Background(), ListUsersParams{Limit: 25, Offset: 50, Search: "ali", Status: "active"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Username != "alice" {
		t.Fatalf("unexpected page: %+v", page)
	}

	req := (*seen)[0]
	if req.method != http.MethodGet || req.path != "/api/users" {
		t.Fatalf("unexpected request: %+v", req)
	}
	for _, want := range []string{"limit=25", "offset=50", "search=ali", "status=active"} {
		if !contains(req.query, want) {
			t.Fatalf("query %q missing %q", req.query, want)
		}
	}
}

func TestUsersGetEscapesIDOnce(t *testing.T) {
	p, seen := newTestPanel(t, func(r *http.Request) (int, any) {
		return http.StatusOK, User{ID: "a b", Username: "alice"}
	})

	if _, err := p.Users.Get(context.Background(), "a b"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	req := (*seen)[0]
	if req.path != "/api/users/a b" {
		t.Fatalf("unexpected decoded path: %q", req.path)
	}
	if req.escaped != "/api/users/a%20b" {
		t.Fatalf("id must be escaped exactly once, got %q", req.escaped)
	}
}

func TestUsersCRUDPaths(t *testing.T) {
	p, seen := newTestPanel(t, func(r *http.Request) (int, any) {
		return http.StatusOK, User{ID: "u-1", Username: "alice"}
	})
	ctx := context.Background()

	if _, err := p.Users.Get(ctx, "u-1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := p.Users.Create(ctx, CreateUserRequest{Username: "alice"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	status := "disabled"
	if _, err := p.Users.Update(ctx, "u-1", UpdateUserRequest{Status: &status}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := p.Users.Delete(ctx, "u-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := p.Users.ResetTraffic(ctx, "u-1"); err != nil {
		t.Fatalf("ResetTraffic: %v", err)
	}

	want := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/users/u-1"},
		{http.MethodPost, "/api/users"},
		{http.MethodPatch, "/api/users/u-1"},
		{http.MethodDelete, "/api/users/u-1"},
		{http.MethodPost, "/api/users/u-1/reset-traffic"},
	}
	if len(*seen) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(*seen))
	}
	for i, w := range want {
		got := (*seen)[i]
		if got.method != w.method || got.path != w.path {
			t.Fatalf("request %d: got %s %s, want %s %s", i, got.method, got.path, w.method, w.path)
		}
	}

	// partial update carries only the set field
	update := (*seen)[2].body
	if update["status"] != "disabled" {
		t.Fatalf("unexpected update body: %v", update)
	}
	if _, ok := update["traffic_limit_bytes"]; ok {
		t.Fatalf("unset fields must be omitted: %v", update)
	}
}

func TestUsersValidation(t *testing.T) {
	p, _ := newTestPanel(t, func(r *http.Request) (int, any) {
		t.Errorf("no request should be dispatched, got %s %s", r.Method, r.URL.Path)
		return http.StatusInternalServerError, nil
	})
	ctx := context.Background()

	if _, err := p.Users.Get(ctx, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := p.Users.Create(ctx, CreateUserRequest{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := p.Users.Delete(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := p.Nodes.Get(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNodesLifecyclePaths(t *testing.T) {
	p, seen := newTestPanel(t, func(r *http.Request) (int, any) {
		if r.URL.Path == "/api/nodes" {
			return http.StatusOK, []Node{{ID: "n-1", Name: "fra-1", IsConnected: true}}
		}
		return http.StatusOK, Node{ID: "n-1", Name: "fra-1"}
	})
	ctx := context.Background()

	nodes, err := p.Nodes.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "fra-1" {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
	if _, err := p.Nodes.Disable(ctx, "n-1"); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if _, err := p.Nodes.Enable(ctx, "n-1"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := p.Nodes.Restart(ctx, "n-1"); err != nil {
		t.Fatalf("Restart: %v", err)
	}

	want := []string{"/api/nodes", "/api/nodes/n-1/disable", "/api/nodes/n-1/enable", "/api/nodes/n-1/restart"}
	for i, path := range want {
		if got := (*seen)[i].path; got != path {
			t.Fatalf("request %d hit %s, want %s", i, got, path)
		}
	}
}

func TestSystemStats(t *testing.T) {
	p, seen := newTestPanel(t, func(r *http.Request) (int, any) {
		switch r.URL.Path {
		case "/api/system/stats":
			return http.StatusOK, SystemStats{TotalUsers: 120, ConnectedNodes: 4}
		case "/api/system/bandwidth":
			return http.StatusOK, BandwidthStats{UploadBytes: 1 << 30, DownloadBytes: 1 << 32}
		default:
			return http.StatusOK, Health{Status: "ok"}
		}
	})
	ctx := context.Background()

	stats, err := p.System.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalUsers != 120 || stats.ConnectedNodes != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	bw, err := p.System.Bandwidth(ctx, time.Unix(1000, 0), time.Unix(2000, 0))
	if err != nil {
		t.Fatalf("Bandwidth: %v", err)
	}
	if bw.DownloadBytes != 1<<32 {
		t.Fatalf("unexpected bandwidth: %+v", bw)
	}
	query := (*seen)[1].query
	if !contains(query, "start=1000") || !contains(query, "end=2000") {
		t.Fatalf("unexpected window query: %q", query)
	}

	health, err := p.System.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
