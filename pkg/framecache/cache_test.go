package framecache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/user/yuvview/pkg/adapters/logger"
)

// testLoader returns "index#call" for each load. When gated, every load
// blocks until the test releases that exact call.
type testLoader struct {
	mu        sync.Mutex
	gated     bool
	delay     time.Duration
	calls     map[int]int
	fail      map[int]error
	panics    map[int]bool
	gates     map[string]chan struct{}
	active    int
	maxActive int
	started   chan int
}

func newTestLoader(gated bool) *testLoader {
	return &testLoader{
		gated:   gated,
		calls:   make(map[int]int),
		fail:    make(map[int]error),
		panics:  make(map[int]bool),
		gates:   make(map[string]chan struct{}),
		started: make(chan int, 1024),
	}
}

// gate must be called with l.mu held.
func (l *testLoader) gate(index, call int) chan struct{} {
	key := fmt.Sprintf("%d#%d", index, call)
	g, ok := l.gates[key]
	if !ok {
		g = make(chan struct{})
		l.gates[key] = g
	}
	return g
}

func (l *testLoader) Load(ctx context.Context, index int) (string, error) {
	l.mu.Lock()
	l.calls[index]++
	call := l.calls[index]
	l.active++
	if l.active > l.maxActive {
		l.maxActive = l.active
	}
	var g chan struct{}
	if l.gated {
		g = l.gate(index, call)
	}
	err := l.fail[index]
	panics := l.panics[index]
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.active--
		l.mu.Unlock()
	}()

	select {
	case l.started <- index:
	default:
	}

	if g != nil {
		select {
		case <-g:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if panics {
		panic("decoder exploded")
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d#%d", index, call), nil
}

func (l *testLoader) release(index, call int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	close(l.gate(index, call))
}

func (l *testLoader) callCount(index int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[index]
}

func (l *testLoader) peak() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxActive
}

type result struct {
	frame string
	err   error
}

func getAsync(ctx context.Context, c *Cache[string], index int) <-chan result {
	ch := make(chan result, 1)
	go func() {
		frame, err := c.Get(ctx, index)
		ch <- result{frame, err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Get")
		return result{}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitStarted(t *testing.T, l *testLoader, index int) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case idx := <-l.started:
			if idx == index {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for load of frame %d to start", index)
		}
	}
}

func waitIdle(t *testing.T, c *Cache[string]) {
	t.Helper()
	waitFor(t, "cache to go idle", func() bool { return !c.Loading() })
}

// noPrefetch has a prefetch window of zero, so only direct requests load.
func noPrefetch() Options {
	return Options{Capacity: 10, ConcurrencyLimit: 4, PrefetchFraction: 0.01}
}

func newTestCache(t *testing.T, l *testLoader, opts Options) *Cache[string] {
	t.Helper()
	c, err := New[string](l, opts, logger.NewNoop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero capacity", Options{Capacity: 0, ConcurrencyLimit: 1, PrefetchFraction: 0.5}},
		{"negative capacity", Options{Capacity: -3, ConcurrencyLimit: 1, PrefetchFraction: 0.5}},
		{"zero concurrency", Options{Capacity: 10, ConcurrencyLimit: 0, PrefetchFraction: 0.5}},
		{"zero fraction", Options{Capacity: 10, ConcurrencyLimit: 1, PrefetchFraction: 0}},
		{"fraction above one", Options{Capacity: 10, ConcurrencyLimit: 1, PrefetchFraction: 1.5}},
		{"negative fraction", Options{Capacity: 10, ConcurrencyLimit: 1, PrefetchFraction: -0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[string](newTestLoader(false), tt.opts, logger.NewNoop())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	t.Run("nil loader", func(t *testing.T) {
		_, err := New[string](nil, DefaultOptions(), logger.NewNoop())
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestOptions_Window(t *testing.T) {
	tests := []struct {
		opts     Options
		expected int
	}{
		{DefaultOptions(), 38},
		{Options{Capacity: 4, PrefetchFraction: 0.75}, 3},
		{Options{Capacity: 10, PrefetchFraction: 0.01}, 0},
		{Options{Capacity: 1, PrefetchFraction: 1}, 1},
	}

	for _, tt := range tests {
		if got := tt.opts.Window(); got != tt.expected {
			t.Errorf("Window() for %+v = %d, want %d", tt.opts, got, tt.expected)
		}
	}
}

func TestGet_ReturnsLoadedFrame(t *testing.T) {
	l := newTestLoader(false)
	c := newTestCache(t, l, noPrefetch())

	frame, err := c.Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if frame != "3#1" {
		t.Errorf("expected 3#1, got %q", frame)
	}

	// A second read is served from the cache.
	frame, err = c.Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if frame != "3#1" {
		t.Errorf("expected cached 3#1, got %q", frame)
	}
	if n := l.callCount(3); n != 1 {
		t.Errorf("expected 1 load, got %d", n)
	}

	stats := c.Stats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("expected 1 miss and 1 hit, got %+v", stats)
	}
}

func TestGet_InvalidIndex(t *testing.T) {
	c := newTestCache(t, newTestLoader(false), noPrefetch())

	_, err := c.Get(context.Background(), -1)
	if !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("invalid request should not create entries, have %d", c.Len())
	}
}

func TestGet_CoalescesConcurrentRequests(t *testing.T) {
	l := newTestLoader(true)
	c := newTestCache(t, l, noPrefetch())
	ctx := context.Background()

	first := getAsync(ctx, c, 7)
	waitStarted(t, l, 7)

	const waiters = 5
	var pending []<-chan result
	for i := 0; i < waiters; i++ {
		pending = append(pending, getAsync(ctx, c, 7))
	}
	waitFor(t, "requests to coalesce", func() bool { return c.Stats().Coalesced == waiters })

	l.release(7, 1)

	for _, ch := range append(pending, first) {
		r := await(t, ch)
		if r.err != nil {
			t.Fatalf("Get failed: %v", r.err)
		}
		if r.frame != "7#1" {
			t.Errorf("expected 7#1, got %q", r.frame)
		}
	}
	if n := l.callCount(7); n != 1 {
		t.Errorf("expected a single load, got %d", n)
	}
}

func TestGet_RespectsConcurrencyLimit(t *testing.T) {
	l := newTestLoader(false)
	l.delay = 2 * time.Millisecond
	opts := Options{Capacity: 20, ConcurrencyLimit: 3, PrefetchFraction: 0.5}
	c := newTestCache(t, l, opts)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 20; i++ {
				if _, err := c.Get(context.Background(), rng.Intn(100)); err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
			}
		}(int64(g))
	}
	wg.Wait()
	waitIdle(t, c)

	if peak := l.peak(); peak > opts.ConcurrencyLimit {
		t.Errorf("observed %d concurrent loads, limit is %d", peak, opts.ConcurrencyLimit)
	}
}

func TestGet_RespectsCapacity(t *testing.T) {
	l := newTestLoader(false)
	opts := Options{Capacity: 5, ConcurrencyLimit: 3, PrefetchFraction: 0.75}
	c := newTestCache(t, l, opts)

	sequence := []int{0, 1, 2, 3, 4, 5, 6, 40, 41, 3, 2, 1, 0, 90, 12, 13, 11, 60, 0}
	for _, idx := range sequence {
		if _, err := c.Get(context.Background(), idx); err != nil {
			t.Fatalf("Get(%d) failed: %v", idx, err)
		}
		if n := c.Len(); n > opts.Capacity {
			t.Fatalf("after Get(%d): %d entries resident, capacity %d", idx, n, opts.Capacity)
		}
	}
	waitIdle(t, c)
	if n := c.Len(); n > opts.Capacity {
		t.Errorf("%d entries resident, capacity %d", n, opts.Capacity)
	}
}

func TestGet_DirectionalEviction(t *testing.T) {
	l := newTestLoader(false)
	c := newTestCache(t, l, Options{Capacity: 4, ConcurrencyLimit: 2, PrefetchFraction: 0.75})

	steps := []struct {
		index    int
		resident []int
	}{
		{0, []int{0, 1}},
		{1, []int{0, 1, 2, 3}},
		{2, []int{2, 3, 4, 5}}, // moving forward drops past frames
		{3, []int{3, 4, 5, 6}},
		{0, []int{0, 1, 3, 4}}, // jumping back drops the furthest frames first
		{1, []int{1, 2, 3, 4}},
	}

	for _, step := range steps {
		frame, err := c.Get(context.Background(), step.index)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", step.index, err)
		}
		if !strings.HasPrefix(frame, fmt.Sprintf("%d#", step.index)) {
			t.Errorf("Get(%d) returned %q", step.index, frame)
		}
		waitIdle(t, c)

		if diff := cmp.Diff(step.resident, c.Resident()); diff != "" {
			t.Errorf("after Get(%d) resident mismatch (-want +got):\n%s", step.index, diff)
		}
	}
}

func TestGet_NeverEvictsRequestedFrame(t *testing.T) {
	l := newTestLoader(false)
	c := newTestCache(t, l, Options{Capacity: 1, ConcurrencyLimit: 2, PrefetchFraction: 1})

	for _, idx := range []int{0, 5, 2} {
		frame, err := c.Get(context.Background(), idx)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", idx, err)
		}
		if frame != fmt.Sprintf("%d#1", idx) {
			t.Errorf("Get(%d) = %q", idx, frame)
		}
		waitIdle(t, c)
		if diff := cmp.Diff([]int{idx}, c.Resident()); diff != "" {
			t.Errorf("after Get(%d) resident mismatch (-want +got):\n%s", idx, diff)
		}
	}
}

func TestGet_PrefetchesFollowingFrames(t *testing.T) {
	l := newTestLoader(false)
	c := newTestCache(t, l, Options{Capacity: 10, ConcurrencyLimit: 10, PrefetchFraction: 0.5})

	if _, err := c.Get(context.Background(), 20); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	waitIdle(t, c)

	if diff := cmp.Diff([]int{20, 21, 22, 23, 24, 25}, c.Resident()); diff != "" {
		t.Errorf("resident mismatch (-want +got):\n%s", diff)
	}
	if got := c.Stats().Prefetches; got != 5 {
		t.Errorf("expected 5 prefetches, got %d", got)
	}

	// Prefetched frames are hits and do not reload.
	if _, err := c.Get(context.Background(), 22); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if n := l.callCount(22); n != 1 {
		t.Errorf("expected prefetched frame to load once, got %d", n)
	}
}

func TestGet_PrefetchStopsAtConcurrencyLimit(t *testing.T) {
	l := newTestLoader(true)
	c := newTestCache(t, l, Options{Capacity: 10, ConcurrencyLimit: 2, PrefetchFraction: 1})

	ch := getAsync(context.Background(), c, 0)
	waitStarted(t, l, 0)

	// The direct load and one prefetch fill both slots.
	if diff := cmp.Diff([]int{0, 1}, c.Resident()); diff != "" {
		t.Errorf("resident mismatch (-want +got):\n%s", diff)
	}
	if s := c.Stats(); s.InFlight != 2 || s.Queued != 0 {
		t.Errorf("expected 2 in flight and nothing queued, got %+v", s)
	}

	l.release(0, 1)
	l.release(1, 1)
	if r := await(t, ch); r.err != nil {
		t.Fatalf("Get failed: %v", r.err)
	}
	waitIdle(t, c)
}

func TestGet_QueuesDirectRequestWhenSaturated(t *testing.T) {
	l := newTestLoader(true)
	c := newTestCache(t, l, Options{Capacity: 10, ConcurrencyLimit: 1, PrefetchFraction: 0.01})
	ctx := context.Background()

	first := getAsync(ctx, c, 1)
	waitStarted(t, l, 1)

	second := getAsync(ctx, c, 2)
	waitFor(t, "second request to queue", func() bool { return c.Stats().Queued == 1 })
	if n := l.callCount(2); n != 0 {
		t.Fatalf("queued frame should not load yet, got %d calls", n)
	}
	if !c.Loading() {
		t.Error("expected Loading() while requests are pending")
	}

	l.release(1, 1)
	waitStarted(t, l, 2)
	l.release(2, 1)

	if r := await(t, first); r.frame != "1#1" || r.err != nil {
		t.Errorf("first Get = %+v", r)
	}
	if r := await(t, second); r.frame != "2#1" || r.err != nil {
		t.Errorf("second Get = %+v", r)
	}
	if peak := l.peak(); peak != 1 {
		t.Errorf("expected at most 1 concurrent load, got %d", peak)
	}
	waitIdle(t, c)
}

func TestGet_LoadFailure(t *testing.T) {
	l := newTestLoader(true)
	errDecode := errors.New("corrupt frame")
	l.fail[5] = errDecode
	c := newTestCache(t, l, noPrefetch())
	ctx := context.Background()

	failing := getAsync(ctx, c, 5)
	healthy := getAsync(ctx, c, 6)
	waitFor(t, "both loads to start", func() bool { return l.callCount(5) == 1 && l.callCount(6) == 1 })

	l.release(5, 1)
	l.release(6, 1)

	r := await(t, failing)
	if !errors.Is(r.err, ErrLoadFailed) || !errors.Is(r.err, errDecode) {
		t.Errorf("expected load failure wrapping the loader error, got %v", r.err)
	}
	if r := await(t, healthy); r.err != nil || r.frame != "6#1" {
		t.Errorf("neighbouring load should be unaffected, got %+v", r)
	}

	// The failure stays cached: no retry until the entry is dropped.
	if _, err := c.Get(ctx, 5); !errors.Is(err, errDecode) {
		t.Errorf("expected cached failure, got %v", err)
	}
	if n := l.callCount(5); n != 1 {
		t.Errorf("failed frame reloaded %d times", n)
	}
	if got := c.Stats().Failures; got != 1 {
		t.Errorf("expected 1 failure, got %d", got)
	}

	c.Clear()
	delete(l.fail, 5)
	l.release(5, 2)
	frame, err := c.Get(ctx, 5)
	if err != nil {
		t.Fatalf("Get after Clear failed: %v", err)
	}
	if frame != "5#2" {
		t.Errorf("expected fresh load 5#2, got %q", frame)
	}
}

func TestGet_PrefetchFailureIsSilent(t *testing.T) {
	l := newTestLoader(false)
	l.fail[2] = errors.New("truncated file")
	c := newTestCache(t, l, Options{Capacity: 10, ConcurrencyLimit: 4, PrefetchFraction: 0.5})

	frame, err := c.Get(context.Background(), 0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if frame != "0#1" {
		t.Errorf("expected 0#1, got %q", frame)
	}
	waitIdle(t, c)

	if got := c.Stats().Failures; got != 1 {
		t.Errorf("expected the prefetch failure to be counted, got %d", got)
	}
	if _, err := c.Get(context.Background(), 1); err != nil {
		t.Errorf("Get(1) failed: %v", err)
	}

	// Requesting the failed frame surfaces the stored error.
	if _, err := c.Get(context.Background(), 2); !errors.Is(err, ErrLoadFailed) {
		t.Errorf("expected ErrLoadFailed, got %v", err)
	}
}

func TestGet_RecoversLoaderPanic(t *testing.T) {
	l := newTestLoader(false)
	l.panics[4] = true
	c := newTestCache(t, l, noPrefetch())

	_, err := c.Get(context.Background(), 4)
	if !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("expected ErrLoadFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "decoder exploded") {
		t.Errorf("expected panic value in error, got %v", err)
	}
	waitIdle(t, c)
}

func TestGet_ContextCancelled(t *testing.T) {
	l := newTestLoader(true)
	c := newTestCache(t, l, noPrefetch())

	ctx, cancel := context.WithCancel(context.Background())
	ch := getAsync(ctx, c, 4)
	waitStarted(t, l, 4)
	cancel()

	if r := await(t, ch); !errors.Is(r.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", r.err)
	}

	// The load carries on and its result is kept.
	l.release(4, 1)
	frame, err := c.Get(context.Background(), 4)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if frame != "4#1" {
		t.Errorf("expected 4#1, got %q", frame)
	}
	if n := l.callCount(4); n != 1 {
		t.Errorf("expected 1 load, got %d", n)
	}
}

func TestClear_DiscardsStaleCompletion(t *testing.T) {
	l := newTestLoader(true)
	c := newTestCache(t, l, noPrefetch())
	ctx := context.Background()

	stale := getAsync(ctx, c, 7)
	waitStarted(t, l, 7)

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Clear, have %d", c.Len())
	}

	fresh := getAsync(ctx, c, 7)
	waitStarted(t, l, 7)

	// The fresh load settles first, then the orphaned one.
	l.release(7, 2)
	if r := await(t, fresh); r.frame != "7#2" || r.err != nil {
		t.Fatalf("fresh Get = %+v", r)
	}
	l.release(7, 1)
	if r := await(t, stale); r.frame != "7#1" || r.err != nil {
		t.Errorf("original caller should still get its load, got %+v", r)
	}
	waitIdle(t, c)

	frame, err := c.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if frame != "7#2" {
		t.Errorf("stale completion overwrote the fresh entry: got %q", frame)
	}
	if n := l.callCount(7); n != 2 {
		t.Errorf("expected 2 loads, got %d", n)
	}
	if got := c.Stats().Discarded; got != 1 {
		t.Errorf("expected 1 discarded result, got %d", got)
	}
}

func TestSetBound(t *testing.T) {
	l := newTestLoader(false)
	c := newTestCache(t, l, Options{Capacity: 10, ConcurrencyLimit: 10, PrefetchFraction: 1})
	c.SetBound(5)

	if _, err := c.Get(context.Background(), 3); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	waitIdle(t, c)

	// Prefetch stops at the last valid index.
	if diff := cmp.Diff([]int{3, 4}, c.Resident()); diff != "" {
		t.Errorf("resident mismatch (-want +got):\n%s", diff)
	}
	if _, err := c.Get(context.Background(), 5); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex past the bound, got %v", err)
	}

	c.SetBound(0)
	if _, err := c.Get(context.Background(), 5); err != nil {
		t.Errorf("Get after removing the bound failed: %v", err)
	}
}

func TestLoading(t *testing.T) {
	l := newTestLoader(true)
	c := newTestCache(t, l, noPrefetch())

	if c.Loading() {
		t.Error("new cache should not be loading")
	}

	ch := getAsync(context.Background(), c, 3)
	waitFor(t, "loading to start", c.Loading)

	l.release(3, 1)
	if r := await(t, ch); r.err != nil {
		t.Fatalf("Get failed: %v", r.err)
	}
	waitIdle(t, c)
}

func TestClose(t *testing.T) {
	l := newTestLoader(true)
	c, err := New[string](l, noPrefetch(), logger.NewNoop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	pending := getAsync(context.Background(), c, 1)
	waitStarted(t, l, 1)

	c.Close()
	c.Close()

	// Running loads see a cancelled context.
	r := await(t, pending)
	if !errors.Is(r.err, ErrLoadFailed) || !errors.Is(r.err, context.Canceled) {
		t.Errorf("expected cancelled load, got %v", r.err)
	}

	if _, err := c.Get(context.Background(), 2); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestLoaderFunc(t *testing.T) {
	loader := LoaderFunc[int](func(ctx context.Context, index int) (int, error) {
		return index * 10, nil
	})
	c, err := New[int](loader, noPrefetch(), logger.NewNoop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	v, err := c.Get(context.Background(), 4)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != 40 {
		t.Errorf("expected 40, got %d", v)
	}
}

func TestStats_HitRatio(t *testing.T) {
	tests := []struct {
		stats    Stats
		expected float64
	}{
		{Stats{}, 0},
		{Stats{Hits: 3, Misses: 1}, 0.75},
		{Stats{Hits: 1, Coalesced: 1, Misses: 2}, 0.5},
	}

	for _, tt := range tests {
		if got := tt.stats.HitRatio(); got != tt.expected {
			t.Errorf("HitRatio() for %+v = %v, want %v", tt.stats, got, tt.expected)
		}
	}
}
