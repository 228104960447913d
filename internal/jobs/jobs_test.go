package jobs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/logging"
)

// lockedBuffer is written from the cron goroutine and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	return 3, p.err
}

func TestAddTokenCleanupRejectsBadSpec(t *testing.T) {
	s := NewScheduler()
	assert.Error(t, s.AddTokenCleanup("every tuesday", &countingPurger{}))
	assert.NoError(t, s.AddTokenCleanup("@hourly", &countingPurger{}))
}

func TestPurgeTokensRunsOnce(t *testing.T) {
	s := NewScheduler()
	p := &countingPurger{}
	s.PurgeTokens(p)
	assert.EqualValues(t, 1, p.calls.Load())

	p.err = errors.New("database is locked")
	s.PurgeTokens(p)
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestScheduledCleanupFires(t *testing.T) {
	s := NewScheduler()
	p := &countingPurger{}
	require.NoError(t, s.AddTokenCleanup("@every 10ms", p))

	s.Start()
	require.Eventually(t, func() bool { return p.calls.Load() > 0 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

type panickingPurger struct{}

func (panickingPurger) PurgeExpired(context.Context, time.Time) (int64, error) {
	panic("refresh_tokens table missing")
}

func TestJobPanicIsLoggedThroughZerolog(t *testing.T) {
	out := &lockedBuffer{}
	logging.Init(logging.Config{Level: "info", Writer: out})
	t.Cleanup(func() { logging.Init(logging.Config{}) })

	s := NewScheduler()
	require.NoError(t, s.AddTokenCleanup("@every 10ms", panickingPurger{}))
	s.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "refresh_tokens table missing")
	}, 2*time.Second, 5*time.Millisecond)
	logs := out.String()
	assert.Contains(t, logs, `"component":"jobs"`)
	assert.Contains(t, logs, `"level":"error"`)
}
