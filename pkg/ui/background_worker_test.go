package ui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/loader"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.mu.Lock()
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()
}

func (f *fakeSender) messages() []tea.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tea.Msg(nil), f.msgs...)
}

func writeData(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

const workerData = `[{"id": 1, "name": "P1", "children": [{"id": 11, "name": "C1"}]}, {"id": 2, "name": "P2"}]`

func TestReloadWorker_NewWithoutPaths(t *testing.T) {
	worker, err := NewReloadWorker(WorkerConfig{})
	if err != nil {
		t.Fatalf("NewReloadWorker failed: %v", err)
	}
	defer worker.Stop()

	if worker.State() != WorkerIdle {
		t.Errorf("Expected idle state, got %v", worker.State())
	}
	if err := worker.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if msg := worker.reload(); msg != nil {
		t.Errorf("reload without paths should do nothing, got %T", msg)
	}
}

func TestReloadWorker_StartStopIdempotent(t *testing.T) {
	path := writeData(t, t.TempDir(), "rows.json", workerData)
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{path}, DebounceDelay: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewReloadWorker failed: %v", err)
	}

	if err := worker.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := worker.Start(); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	worker.Stop()
	worker.Stop()

	if worker.State() != WorkerStopped {
		t.Errorf("Expected stopped state, got %v", worker.State())
	}
	worker.TriggerRefresh() // no-op once stopped
}

func TestReloadWorker_StopAfterFailedStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone", "rows.json")
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{path}})
	if err != nil {
		t.Fatalf("NewReloadWorker failed: %v", err)
	}

	if err := worker.Start(); err == nil {
		t.Fatal("expected Start to fail for a missing directory")
	}

	start := time.Now()
	worker.Stop()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop after a failed Start took %v", elapsed)
	}
	if worker.State() != WorkerStopped {
		t.Errorf("Expected stopped state, got %v", worker.State())
	}
}

func TestReloadWorker_ReloadAndDedup(t *testing.T) {
	dir := t.TempDir()
	path := writeData(t, dir, "rows.json", workerData)
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{path}})
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	msg, ok := worker.reload().(RowsReloadedMsg)
	if !ok {
		t.Fatalf("expected RowsReloadedMsg, got %T", worker.reload())
	}
	if len(msg.Rows) != 2 || msg.Hash == "" {
		t.Errorf("unexpected message: %d rows, hash %q", len(msg.Rows), msg.Hash)
	}
	if msg.Rows[0].ID != 1 || len(msg.Rows[0].Children) != 1 {
		t.Errorf("first row = %+v", msg.Rows[0])
	}

	if msg := worker.reload(); msg != nil {
		t.Errorf("unchanged content should be skipped, got %T", msg)
	}

	writeData(t, dir, "rows.json", `[{"id": 3, "name": "P3"}]`)
	next, ok := worker.reload().(RowsReloadedMsg)
	if !ok || len(next.Rows) != 1 || next.Rows[0].ID != 3 {
		t.Errorf("changed content should reload, got %+v", next)
	}
}

func TestReloadWorker_InitialHashSkipsFirstReload(t *testing.T) {
	path := writeData(t, t.TempDir(), "rows.json", workerData)
	hash, err := loader.Fingerprint([]string{path})
	if err != nil {
		t.Fatal(err)
	}
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{path}, InitialHash: hash})
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	if msg := worker.reload(); msg != nil {
		t.Errorf("content already on screen should be skipped, got %T", msg)
	}
}

func TestReloadWorker_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeData(t, dir, "bad.json", `[{"id": 1,`)
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{bad}})
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	msg, ok := worker.reload().(ReloadErrorMsg)
	if !ok {
		t.Fatal("expected ReloadErrorMsg")
	}
	if msg.Err.Phase != "load" || msg.Err.Retries != 1 {
		t.Errorf("error = %+v", msg.Err)
	}
	var loadErr *loader.LoadError
	if !errors.As(msg.Err, &loadErr) {
		t.Errorf("cause should unwrap to *loader.LoadError, got %v", msg.Err.Cause)
	}

	msg = worker.reload().(ReloadErrorMsg)
	if msg.Err.Retries != 2 {
		t.Errorf("Retries = %d, want 2", msg.Err.Retries)
	}
	if worker.LastError() != msg.Err {
		t.Error("LastError should be the latest error")
	}

	writeData(t, dir, "bad.json", workerData)
	if _, ok := worker.reload().(RowsReloadedMsg); !ok {
		t.Fatal("fixed file should reload")
	}
	if worker.LastError() != nil {
		t.Error("success should clear LastError")
	}
}

func TestReloadWorker_MissingFileFailsHash(t *testing.T) {
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{filepath.Join(t.TempDir(), "gone.json")}})
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	msg, ok := worker.reload().(ReloadErrorMsg)
	if !ok || msg.Err.Phase != "hash" {
		t.Errorf("expected hash error, got %+v", msg)
	}
}

func TestReloadWorker_DuplicateIDsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeData(t, dir, "a.json", `[{"id": 1}]`)
	b := writeData(t, dir, "b.json", `[{"id": 1}]`)
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{a, b}})
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	msg, ok := worker.reload().(ReloadErrorMsg)
	if !ok {
		t.Fatal("expected ReloadErrorMsg")
	}
	if msg.Err.Phase != "build" || !errors.Is(msg.Err, grid.ErrDuplicateID) {
		t.Errorf("error = %v", msg.Err)
	}
}

func TestReloadWorker_SafeComputeRecoversPanic(t *testing.T) {
	worker, err := NewReloadWorker(WorkerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	rerr := worker.safeCompute("load", func() error { panic("boom") })
	if rerr == nil {
		t.Fatal("expected an error from a panicking function")
	}
	if rerr.Phase != "load" || !strings.Contains(rerr.Cause.Error(), "panic: boom") {
		t.Errorf("error = %v", rerr)
	}
	if worker.safeCompute("load", func() error { return nil }) != nil {
		t.Error("expected nil for a clean run")
	}
}

func TestReloadWorker_ProcessSendsToProgram(t *testing.T) {
	path := writeData(t, t.TempDir(), "rows.json", workerData)
	sender := &fakeSender{}
	worker, err := NewReloadWorker(WorkerConfig{Paths: []string{path}, Program: sender})
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	worker.process()
	worker.process() // unchanged, nothing sent

	msgs := sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}
	if _, ok := msgs[0].(RowsReloadedMsg); !ok {
		t.Errorf("sent %T", msgs[0])
	}
	if worker.State() != WorkerIdle {
		t.Errorf("state after process = %v", worker.State())
	}
}

func TestReloadWorker_TriggerRefreshWithoutWatcher(t *testing.T) {
	path := writeData(t, t.TempDir(), "rows.json", workerData)
	hash, err := loader.Fingerprint([]string{path})
	if err != nil {
		t.Fatal(err)
	}

	sender := &fakeSender{}
	worker, err := NewReloadWorker(WorkerConfig{
		Paths:        []string{path},
		Program:      sender,
		InitialHash:  hash,
		DisableWatch: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if worker.watcher != nil {
		t.Fatal("DisableWatch should not create a watcher")
	}
	if err := worker.Start(); err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	// A manual refresh reloads even though the content is already on screen.
	worker.TriggerRefresh()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, msg := range sender.messages() {
			if m, ok := msg.(RowsReloadedMsg); ok && m.Hash == hash && len(m.Rows) == 2 {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("TriggerRefresh sent nothing; got %v", sender.messages())
}

func TestReloadWorker_WatchesFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeData(t, dir, "rows.json", workerData)
	hash, err := loader.Fingerprint([]string{path})
	if err != nil {
		t.Fatal(err)
	}

	sender := &fakeSender{}
	worker, err := NewReloadWorker(WorkerConfig{
		Paths:         []string{path},
		DebounceDelay: 20 * time.Millisecond,
		Program:       sender,
		InitialHash:   hash,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := worker.Start(); err != nil {
		t.Fatal(err)
	}
	defer worker.Stop()

	writeData(t, dir, "rows.json", `[{"id": 5, "name": "P5"}]`)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, msg := range sender.messages() {
			if m, ok := msg.(RowsReloadedMsg); ok && len(m.Rows) == 1 && m.Rows[0].ID == 5 {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("no reload after the file changed; got %v", sender.messages())
}

func TestReloadError_Error(t *testing.T) {
	cause := errors.New("disk gone")
	err := ReloadError{Phase: "load", Cause: cause, Retries: 3}
	if got := err.Error(); got != "load failed: disk gone (retries: 3)" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("ReloadError should unwrap to its cause")
	}
}

func TestHashPrefix(t *testing.T) {
	if got := hashPrefix("0123456789abcdefXYZ"); got != "0123456789abcdef" {
		t.Errorf("hashPrefix = %q", got)
	}
	if got := hashPrefix("abc"); got != "abc" {
		t.Errorf("hashPrefix = %q", got)
	}
}
