package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) record(files []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, files)
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func TestSpecWatcherReportsSpecChanges(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	specFile := filepath.Join(nested, "api.yaml")
	require.NoError(t, os.WriteFile(specFile, []byte("name: api\n"), 0o644))

	rec := &recorder{}
	sw, err := NewSpecWatcher([]string{dir}, 50*time.Millisecond, nil, rec.record)
	require.NoError(t, err)
	defer sw.Stop()
	require.NoError(t, sw.Start())

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(specFile, []byte("name: api2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	assert.Eventually(t, func() bool {
		return len(rec.all()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	for _, f := range rec.all() {
		assert.Equal(t, specFile, f)
	}
}

func TestSpecWatcherStopTwice(t *testing.T) {
	sw, err := NewSpecWatcher([]string{t.TempDir()}, DefaultDebounce, nil, func([]string) error { return nil })
	require.NoError(t, err)
	require.NoError(t, sw.Start())
	require.NoError(t, sw.Stop())
	require.NoError(t, sw.Stop())
}

func TestSpecWatcherMissingDirectory(t *testing.T) {
	sw, err := NewSpecWatcher([]string{filepath.Join(t.TempDir(), "missing")}, DefaultDebounce, nil, func([]string) error { return nil })
	require.NoError(t, err)
	defer sw.Stop()
	assert.Error(t, sw.Start())
}

func TestDebouncerBatchesAndSorts(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(50 * time.Millisecond)
	d.SetCallback(func(files []string) { _ = rec.record(files) })

	d.Add("b.yaml")
	d.Add("a.yaml")
	d.Add("b.yaml")

	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.batches) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, rec.all())
}

func TestDebouncerStop(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20 * time.Millisecond)
	d.SetCallback(func(files []string) { _ = rec.record(files) })

	d.Add("a.yaml")
	d.Stop()
	d.Stop()
	d.Add("b.yaml")

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, rec.all())
}

func TestDebouncerSerializesCallbacks(t *testing.T) {
	var active, peak, calls atomic.Int32
	d := NewDebouncer(5 * time.Millisecond)
	d.SetCallback(func(files []string) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(60 * time.Millisecond)
		active.Add(-1)
		calls.Add(1)
	})

	d.Add("a.yaml")
	time.Sleep(25 * time.Millisecond)
	d.Add("b.yaml")

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), peak.Load())
}
