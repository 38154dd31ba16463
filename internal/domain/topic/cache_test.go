package topic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

type mockSource struct {
	mu           sync.Mutex
	calls        int
	topics       []string
	unconfigured bool
	err          error
	block        chan struct{}
	ctxErr       error
}

func (m *mockSource) ActiveTopics(ctx context.Context) ([]string, bool, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.ctxErr = ctx.Err()
	if m.ctxErr != nil {
		return nil, false, m.ctxErr
	}
	return m.topics, !m.unconfigured, m.err
}

func (m *mockSource) set(topics []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics, m.err = topics, err
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(src Source) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewCache(src, time.Minute, nil).WithClock(clock.Now), clock
}

func TestCache_LoadsOnFirstUse(t *testing.T) {
	src := &mockSource{topics: []string{CategoryAssurance}}
	c, clock := newTestCache(src)

	snap := c.Snapshot(context.Background())

	if !snap.IsActive(CategoryAssurance) {
		t.Error("Assurance not active")
	}
	if !snap.LoadedAt().Equal(clock.Now()) {
		t.Errorf("LoadedAt() = %v", snap.LoadedAt())
	}
	if src.callCount() != 1 {
		t.Errorf("calls = %d, want 1", src.callCount())
	}
}

func TestCache_ServesWithinTTL(t *testing.T) {
	src := &mockSource{topics: []string{CategoryAssurance}}
	c, clock := newTestCache(src)

	c.Snapshot(context.Background())
	clock.Advance(59 * time.Second)
	src.set([]string{CategoryDisclosure}, nil)
	snap := c.Snapshot(context.Background())

	if src.callCount() != 1 {
		t.Errorf("calls = %d, want 1", src.callCount())
	}
	if !snap.IsActive(CategoryAssurance) {
		t.Error("stale set should still be served within TTL")
	}
}

func TestCache_RefreshesAfterTTL(t *testing.T) {
	src := &mockSource{topics: []string{CategoryAssurance}}
	c, clock := newTestCache(src)

	c.Snapshot(context.Background())
	clock.Advance(time.Minute)
	src.set([]string{CategoryDisclosure}, nil)
	snap := c.Snapshot(context.Background())

	if src.callCount() != 2 {
		t.Errorf("calls = %d, want 2", src.callCount())
	}
	if snap.IsActive(CategoryAssurance) || !snap.IsActive(CategoryDisclosure) {
		t.Errorf("snapshot not refreshed: len=%d", snap.Len())
	}
}

func TestCache_FailedRefreshKeepsPreviousSet(t *testing.T) {
	src := &mockSource{topics: []string{CategoryAssurance}}
	var failures atomic.Int32
	c, clock := newTestCache(src)
	c.WithRefreshObserver(func(ok bool) {
		if !ok {
			failures.Add(1)
		}
	})

	c.Snapshot(context.Background())
	clock.Advance(2 * time.Minute)
	src.set(nil, errors.New("taxonomy unavailable"))
	snap := c.Snapshot(context.Background())

	if !snap.IsActive(CategoryAssurance) {
		t.Error("previous set not kept after failure")
	}
	if failures.Load() != 1 {
		t.Errorf("failures observed = %d, want 1", failures.Load())
	}

	// Retry waits another TTL.
	c.Snapshot(context.Background())
	if src.callCount() != 2 {
		t.Errorf("calls = %d, want 2", src.callCount())
	}
}

func TestCache_FirstLoadFailureDisablesFilter(t *testing.T) {
	src := &mockSource{err: errors.New("down")}
	c, _ := newTestCache(src)

	snap := c.Snapshot(context.Background())
	r := resource.Resource{Workstreams: []string{"assurance"}}
	if snap.Configured() || !snap.Allows(&r) {
		t.Error("a never-loaded taxonomy must not exclude anything")
	}
}

func TestCache_TaxonomyStates(t *testing.T) {
	assurance := resource.Resource{Workstreams: []string{"assurance"}}
	uncategorised := resource.Resource{Tags: []string{"misc"}}

	tests := []struct {
		name              string
		src               *mockSource
		wantAssurance     bool
		wantUncategorised bool
	}{
		{name: "not configured", src: &mockSource{unconfigured: true}, wantAssurance: true, wantUncategorised: true},
		{name: "every topic switched off", src: &mockSource{topics: []string{}}, wantAssurance: false, wantUncategorised: true},
		{name: "other topic active", src: &mockSource{topics: []string{CategoryDisclosure}}, wantAssurance: false, wantUncategorised: true},
		{name: "topic active", src: &mockSource{topics: []string{CategoryAssurance}}, wantAssurance: true, wantUncategorised: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache(tt.src)
			snap := c.Snapshot(context.Background())

			if got := snap.Allows(&assurance); got != tt.wantAssurance {
				t.Errorf("Allows(assurance) = %v, want %v", got, tt.wantAssurance)
			}
			if got := snap.Allows(&uncategorised); got != tt.wantUncategorised {
				t.Errorf("Allows(uncategorised) = %v, want %v", got, tt.wantUncategorised)
			}
		})
	}
}

func TestCache_DeactivatingLastTopicHidesItAfterTTL(t *testing.T) {
	src := &mockSource{topics: []string{CategoryAssurance}}
	c, clock := newTestCache(src)
	r := resource.Resource{Workstreams: []string{"assurance"}}

	if !c.Snapshot(context.Background()).Allows(&r) {
		t.Fatal("active topic hidden")
	}
	src.set([]string{}, nil)
	clock.Advance(time.Minute)

	snap := c.Snapshot(context.Background())
	if !snap.Configured() || snap.Allows(&r) {
		t.Error("resource in the last deactivated topic is still visible")
	}
}

func TestCache_FailedRefreshKeepsSwitchedOffTaxonomy(t *testing.T) {
	src := &mockSource{topics: []string{}}
	c, clock := newTestCache(src)
	c.Snapshot(context.Background())

	src.set(nil, errors.New("down"))
	clock.Advance(time.Minute)
	snap := c.Snapshot(context.Background())

	r := resource.Resource{Workstreams: []string{"assurance"}}
	if !snap.Configured() || snap.Allows(&r) {
		t.Error("a failed refresh must keep the previous configured state")
	}
}

func TestCache_RefreshOutlivesCancelledCaller(t *testing.T) {
	src := &mockSource{topics: []string{CategoryAssurance}}
	c, _ := newTestCache(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := c.Snapshot(ctx)

	if src.ctxErr != nil {
		t.Fatalf("source saw a cancelled context: %v", src.ctxErr)
	}
	if !snap.Configured() || !snap.IsActive(CategoryAssurance) {
		t.Error("refresh on behalf of a cancelled caller did not load the taxonomy")
	}
}

func TestCache_ConcurrentRefreshCoalesces(t *testing.T) {
	src := &mockSource{topics: []string{CategoryAssurance}, block: make(chan struct{})}
	c, _ := newTestCache(src)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Snapshot(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.block)
	wg.Wait()

	if n := src.callCount(); n > 2 {
		t.Errorf("calls = %d, want concurrent readers coalesced", n)
	}
}

func TestSnapshot_Allows(t *testing.T) {
	snap := NewSnapshot([]string{CategoryAssurance}, time.Time{})

	tests := []struct {
		name string
		r    resource.Resource
		want bool
	}{
		{"active category", resource.Resource{Workstreams: []string{"assurance"}}, true},
		{"inactive category", resource.Resource{Workstreams: []string{"disclosure"}}, false},
		{"uncategorised", resource.Resource{Tags: []string{"misc"}}, true},
	}
	for _, tt := range tests {
		if got := snap.Allows(&tt.r); got != tt.want {
			t.Errorf("%s: Allows() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSnapshot_UnconfiguredAllowsEverything(t *testing.T) {
	r := resource.Resource{Workstreams: []string{"disclosure"}}
	for name, snap := range map[string]*Snapshot{"nil": nil, "unconfigured": Unconfigured(time.Time{})} {
		if !snap.Allows(&r) {
			t.Errorf("%s snapshot should allow", name)
		}
	}
	if !NewSnapshot(nil, time.Time{}).Configured() {
		t.Error("NewSnapshot must describe a configured taxonomy")
	}
}
