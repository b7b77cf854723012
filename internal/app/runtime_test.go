package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/bojq/internal/backendtest"
)

func writeConfig(t *testing.T, apiURL string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	body := strings.Join([]string{
		`api_url = "` + apiURL + `"`,
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`download_dir = "` + filepath.Join(dir, "out") + `"`,
		`file_extension = "cpp"`,
		`log_level = "debug"`,
		`log_format = "json"`,
	}, "\n")
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, dir
}

func TestOpen_WiresComponents(t *testing.T) {
	srv := backendtest.New(t)
	srv.SetSolution("1000", "int main() {}")
	cfgPath, dir := writeConfig(t, srv.URL)

	rt, err := Open(Options{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	ctx := context.Background()

	if err := rt.Session.Add(ctx, "1000"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if !rt.Session.Snapshot().Queue.Contains("1000") {
		t.Fatalf("queue missing added problem")
	}

	res, err := rt.Session.Generate(ctx, "1000")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	path, err := rt.Session.Save(res)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if want := filepath.Join(dir, "out", "BOJ_1000.cpp"); path != want {
		t.Fatalf("saved path = %q, want %q", path, want)
	}

	history, err := rt.Session.History(ctx, "1000", 5)
	if err != nil || len(history) != 1 {
		t.Fatalf("History = (%d entries, %v), want 1 entry", len(history), err)
	}

	if err := rt.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	logData, err := os.ReadFile(filepath.Join(dir, "data", "bojq.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logData), `"problem_id":"1000"`) {
		t.Fatalf("log missing structured problem_id:\n%s", logData)
	}
}

func TestOpen_Overrides(t *testing.T) {
	srv := backendtest.New(t)
	cfgPath, _ := writeConfig(t, "http://127.0.0.1:1")

	rt, err := Open(Options{ConfigPath: cfgPath, APIURL: srv.URL, PollEvery: 7})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer rt.Close()

	if rt.Config.PollInterval.Seconds() != 7 {
		t.Fatalf("PollInterval = %v, want 7s", rt.Config.PollInterval)
	}
	if _, err := rt.Session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh against override URL failed: %v", err)
	}
	if srv.Calls(backendtest.RouteList) != 1 {
		t.Fatalf("list calls = %d, want 1", srv.Calls(backendtest.RouteList))
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("poll_interval_seconds = 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Open(Options{ConfigPath: path}); err == nil {
		t.Fatalf("Open should reject poll_interval_seconds = 0")
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	srv := backendtest.New(t)
	srv.Enqueue("1000", "pending")
	cfgPath, _ := writeConfig(t, srv.URL)

	rt, err := Open(Options{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, rt) }()

	deadline := time.Now().Add(3 * time.Second)
	for !rt.Session.Snapshot().Queue.Contains("1000") {
		if time.Now().After(deadline) {
			t.Fatalf("watch never refreshed the queue")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
}
