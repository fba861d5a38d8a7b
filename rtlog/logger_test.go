package rtlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogLineFormat verifies one line per call with the post-increment count.
func TestLogLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)

	var counter int64
	l.Log("add", &counter, 4194306)
	l.Log("add", &counter, 4194306)

	assert.Equal(t, "4194306 'add' counter: 1\n4194306 'add' counter: 2\n", buf.String())
	assert.Equal(t, int64(2), counter)
}

// TestInitTruncatesAndWrites checks the file is created, truncated and
// closed cleanly.
func TestInitTruncatesAndWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic.log")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	l := New(path)
	l.Init()
	l.Init() // no-op
	require.NoError(t, l.Err())

	var counter int64
	l.Log("ret", &counter, 7)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7 'ret' counter: 1\n", string(data))
}

// TestLogOpensLazily verifies Log works without a prior Init.
func TestLogOpensLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazy.log")
	l := New(path)

	var counter int64
	l.Log("br", &counter, 1)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1 'br' counter: 1\n", string(data))
}

// TestFallbackOnOpenFailure verifies the fallback writer is used when the
// file's directory does not exist.
func TestFallbackOnOpenFailure(t *testing.T) {
	var fallback bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing", "dynamic.log")
	l := New(path, WithFallback(&fallback))

	l.Init()
	require.Error(t, l.Err())

	var counter int64
	l.Log("icmp", &counter, 9)
	assert.Equal(t, "9 'icmp' counter: 1\n", fallback.String())

	// Closing never touches the fallback.
	require.NoError(t, l.Close())
	l.Log("icmp", &counter, 9)
	assert.Equal(t, 2, strings.Count(fallback.String(), "\n"))
}

// TestConcurrentLog checks increments are not lost and lines never
// interleave.
func TestConcurrentLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)

	const workers, perWorker = 8, 200
	var counter int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.Log("load", &counter, 3)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*perWorker), counter)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, workers*perWorker)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "3 'load' counter: "), line)
	}
}

// TestReopenAfterCloseAppends verifies lines written before Close survive
// a later reopen of the same path.
func TestReopenAfterCloseAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.log")
	l := New(path)

	var counter int64
	l.Log("add", &counter, 1)
	l.Log("add", &counter, 1)
	require.NoError(t, l.Close())
	l.Log("add", &counter, 1)
	require.NoError(t, Fini())
	l.Log("add", &counter, 1)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1 'add' counter: 1\n"+
		"1 'add' counter: 2\n"+
		"1 'add' counter: 3\n"+
		"1 'add' counter: 4\n", string(data))

	// A fresh logger on the same path starts over.
	fresh := New(path)
	fresh.Init()
	require.NoError(t, fresh.Close())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

// TestSetPathReopens verifies SetPath closes the current file and the next
// write goes to the new path.
func TestSetPathReopens(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.log")
	second := filepath.Join(dir, "b.log")

	l := New(first)
	var counter int64
	l.Log("add", &counter, 1)
	require.NoError(t, l.SetPath(second))
	l.Log("add", &counter, 1)
	require.NoError(t, l.Close())
	assert.Equal(t, second, l.Path())

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "1 'add' counter: 1\n", string(a))
	assert.Equal(t, "1 'add' counter: 2\n", string(b))
}

// TestFiniClosesOpenedLoggers verifies Fini closes every logger opened
// since the last call.
func TestFiniClosesOpenedLoggers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fini.log")
	l := New(path)
	l.Init()

	require.NoError(t, Fini())

	l.mu.Lock()
	open := l.open
	l.mu.Unlock()
	assert.False(t, open)
	require.NoError(t, Fini())
}

// TestGetInfo checks the reported runtime information.
func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, LineFormat, info.LineFormat)
	assert.True(t, info.Synchronized)
}
