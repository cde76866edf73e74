package feed

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tracevall/chronline/internal/models"
)

func startTestWatcher(t *testing.T, quiet time.Duration) (string, *atomic.Int32) {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "chronline.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0644); err != nil {
		t.Fatal(err)
	}

	pub := NewMemoryPublisher()
	t.Cleanup(pub.Close)

	var count atomic.Int32
	if err := pub.Subscribe("test", Filter{}, func(models.Change) { count.Add(1) }); err != nil {
		t.Fatal(err)
	}

	w := NewFileWatcher(dbPath, pub, quiet)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(w.Stop)

	return dbPath, &count
}

func TestFileWatcher_PublishesOnWrite(t *testing.T) {
	dbPath, count := startTestWatcher(t, time.Millisecond)

	if err := os.WriteFile(dbPath, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return count.Load() >= 1 })
}

func TestFileWatcher_WalFileCounts(t *testing.T) {
	dbPath, count := startTestWatcher(t, time.Millisecond)

	if err := os.WriteFile(dbPath+"-wal", []byte("wal"), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return count.Load() >= 1 })
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dbPath, count := startTestWatcher(t, time.Millisecond)

	other := filepath.Join(filepath.Dir(dbPath), "unrelated.txt")
	if err := os.WriteFile(other, []byte("noise"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if got := count.Load(); got != 0 {
		t.Errorf("published %d changes for an unrelated file", got)
	}
}

func TestFileWatcher_QuietIntervalCoalesces(t *testing.T) {
	dbPath, count := startTestWatcher(t, time.Second)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(dbPath, []byte{byte(i)}, 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, func() bool { return count.Load() >= 1 })
	time.Sleep(200 * time.Millisecond)
	if got := count.Load(); got != 1 {
		t.Errorf("published %d changes inside one quiet interval, want 1", got)
	}
}

func TestFileWatcher_DoubleStartFails(t *testing.T) {
	dir := t.TempDir()
	pub := NewMemoryPublisher()
	t.Cleanup(pub.Close)

	w := NewFileWatcher(filepath.Join(dir, "chronline.db"), pub, time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(w.Stop)

	if err := w.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	pub := NewMemoryPublisher()
	t.Cleanup(pub.Close)

	w := NewFileWatcher(filepath.Join(dir, "chronline.db"), pub, time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	w.Stop()
	w.Stop()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
