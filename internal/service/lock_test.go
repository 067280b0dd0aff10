package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesPerPaper(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(ctx, "EXAM_a")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			atomic.AddInt32(&active, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak)
}

func TestLocalLockerIndependentPapers(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	releaseA, err := l.Lock(ctx, "EXAM_a")
	require.NoError(t, err)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := l.Lock(ctx, "EXAM_b")
		if err == nil {
			releaseB()
		}
		close(done)
	}()
	<-done
}

func TestRedisLockerLogsFailedRelease(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	var buf bytes.Buffer
	l := NewRedisLocker(rdb, time.Second, zerolog.New(&buf))
	l.release("lock:paper:EXAM_a", "token")

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "Failed to release paper lock")
}

func TestArchiveKey(t *testing.T) {
	key := ArchiveKey("EXAM_1", "Final Exam.PDF")
	assert.Regexp(t, `^papers/EXAM_1/[0-9a-f-]{36}\.pdf$`, key)
}

func TestLocalArchiveStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	a := NewLocalArchive(dir)
	require.NoError(t, a.Put(context.Background(), "../../outside.txt", []byte("x"), "text/plain"))

	_, err := os.Stat(filepath.Join(dir, "outside.txt"))
	require.NoError(t, err)
	require.NoError(t, a.Delete(context.Background(), "../../outside.txt"))
	require.NoError(t, a.Delete(context.Background(), "papers/missing.pdf"))
	assert.Error(t, a.Put(context.Background(), "", nil, ""))
}
