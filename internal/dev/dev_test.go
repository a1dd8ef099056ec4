package dev

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wayfind-dev/wayfind/internal/config"
)

func startWatcher(t *testing.T, dir string) chan []Change {
	t.Helper()

	w := NewWatcher(WatcherConfig{
		Dir:      dir,
		Interval: 10 * time.Millisecond,
	})

	changes := make(chan []Change, 16)
	w.OnChange(func(c []Change) {
		changes <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Start(ctx)

	// Let the initial scan settle.
	time.Sleep(50 * time.Millisecond)
	return changes
}

func waitChanges(t *testing.T, ch chan []Change) []Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
		return nil
	}
}

func TestWatcherDetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	changes := startWatcher(t, dir)

	path := filepath.Join(dir, "posts.tsx")
	if err := os.WriteFile(path, []byte("posts"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := waitChanges(t, changes)
	if len(got) != 1 || got[0].Path != path || got[0].Deleted {
		t.Fatalf("changes = %+v", got)
	}
}

func TestWatcherDetectsModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.tsx")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, dir)

	// Ensure the mtime moves forward on coarse-grained filesystems.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	got := waitChanges(t, changes)
	if got[0].Path != path {
		t.Fatalf("changes = %+v", got)
	}
}

func TestWatcherDetectsDeletion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "about.tsx")
	if err := os.WriteFile(path, []byte("about"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, dir)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	got := waitChanges(t, changes)
	if got[0].Path != path || !got[0].Deleted {
		t.Fatalf("changes = %+v", got)
	}
}

func TestWatcherIgnoresPrefixed(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "-drafts"), 0o755); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "-notes.tsx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "-drafts", "wip.tsx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		t.Fatalf("unexpected changes: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestReloadHubBroadcast(t *testing.T) {
	hub := NewReloadHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)

	// Registration races the dial returning; wait for the hub to see
	// the client.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.NotifyReload()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg ReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "reload" {
		t.Fatalf("Type = %q", msg.Type)
	}
}

func TestReloadHubError(t *testing.T) {
	hub := NewReloadHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.NotifyError("generation failed")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg ReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "error" || msg.Error != "generation failed" {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestReloadHubClientCountAfterClose(t *testing.T) {
	hub := NewReloadHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServerHealthEndpoint(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, config.DefaultRoutesDir), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	s := NewServer(ServerOptions{Config: cfg, Dir: dir})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/__wayfind/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestServerRegenerateWritesOutput(t *testing.T) {
	dir := t.TempDir()
	routes := filepath.Join(dir, config.DefaultRoutesDir)
	if err := os.MkdirAll(routes, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(routes, "index.tsx"), []byte("home"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	var wrote bool
	var genErr error
	s := NewServer(ServerOptions{
		Config: cfg,
		Dir:    dir,
		OnGenerate: func(w bool, err error) {
			wrote, genErr = w, err
		},
	})
	s.regenerate()

	if genErr != nil {
		t.Fatalf("regenerate: %v", genErr)
	}
	if !wrote {
		t.Fatal("expected a write")
	}
	out, err := os.ReadFile(filepath.Join(dir, config.DefaultOutput))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "package routes") {
		t.Fatalf("output missing package clause:\n%s", out)
	}
}
