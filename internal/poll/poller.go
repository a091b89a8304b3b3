// Package poll refreshes remote views periodically and on demand.
//
// A Poller runs one fetch per tick and one per accepted Trigger. Fetches for
// the same key are collapsed with singleflight, and results are applied in
// start order: a response from a fetch that started before the last applied
// one is dropped.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Source says what started a fetch.
type Source int

const (
	SourceInitial Source = iota
	SourceTick
	SourceTrigger
)

func (s Source) String() string {
	switch s {
	case SourceInitial:
		return "initial"
	case SourceTick:
		return "tick"
	case SourceTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// FetchFunc loads the current state of a view.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result is one applied fetch.
type Result[T any] struct {
	Value     T
	Err       error
	Seq       uint64
	Source    Source
	FetchedAt time.Time
}

// Config holds poller settings.
type Config struct {
	// Key identifies the view for singleflight. Pollers sharing a Group and
	// a Key share in-flight fetches.
	Key string

	// Interval between periodic fetches. Zero disables the ticker.
	Interval time.Duration

	// MinTriggerGap is the minimum spacing of accepted triggers. Zero
	// accepts every trigger.
	MinTriggerGap time.Duration

	// Group is the singleflight group. Nil gives the poller its own.
	Group *singleflight.Group
}

// Poller periodically fetches a view.
type Poller[T any] struct {
	cfg     Config
	fetch   FetchFunc[T]
	group   *singleflight.Group
	limiter *rate.Limiter
	trigger chan struct{}

	mu      sync.Mutex
	next    uint64
	applied uint64
	latest  *Result[T]
	apply   func(Result[T])
}

// New creates a poller.
func New[T any](cfg Config, fetch FetchFunc[T]) *Poller[T] {
	group := cfg.Group
	if group == nil {
		group = &singleflight.Group{}
	}
	limit := rate.Inf
	if cfg.MinTriggerGap > 0 {
		limit = rate.Every(cfg.MinTriggerGap)
	}
	return &Poller[T]{
		cfg:     cfg,
		fetch:   fetch,
		group:   group,
		limiter: rate.NewLimiter(limit, 1),
		trigger: make(chan struct{}, 1),
	}
}

// Trigger asks for an immediate refresh. It reports false when the trigger
// was rate limited or one is already queued.
func (p *Poller[T]) Trigger() bool {
	if !p.limiter.Allow() {
		return false
	}
	select {
	case p.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Latest returns the most recently applied result.
func (p *Poller[T]) Latest() (Result[T], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return Result[T]{}, false
	}
	return *p.latest, true
}

// Run fetches once, then on every tick and trigger until ctx is done.
// onResult is called with each applied result, in sequence order and never
// concurrently; it should return quickly. Run waits for in-flight fetches
// before returning ctx.Err().
func (p *Poller[T]) Run(ctx context.Context, onResult func(Result[T])) error {
	p.mu.Lock()
	p.apply = onResult
	p.mu.Unlock()

	var wg sync.WaitGroup
	defer wg.Wait()

	spawn := func(src Source) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Poll(ctx, src)
		}()
	}

	var tick <-chan time.Time
	if p.cfg.Interval > 0 {
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	spawn(SourceInitial)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			spawn(SourceTick)
		case <-p.trigger:
			spawn(SourceTrigger)
		}
	}
}

// Poll performs one fetch synchronously and applies its result. It reports
// whether the result was applied.
func (p *Poller[T]) Poll(ctx context.Context, src Source) bool {
	p.mu.Lock()
	p.next++
	seq := p.next
	p.mu.Unlock()

	v, err, shared := p.group.Do(p.cfg.Key, func() (any, error) {
		return p.fetch(ctx)
	})
	value, _ := v.(T)

	res := Result[T]{
		Value:     value,
		Err:       err,
		Seq:       seq,
		Source:    src,
		FetchedAt: time.Now(),
	}
	applied := p.store(res)
	slog.Debug("poll",
		"key", p.cfg.Key,
		"source", src.String(),
		"seq", seq,
		"shared", shared,
		"applied", applied,
		"error", err)
	return applied
}

func (p *Poller[T]) store(res Result[T]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if res.Seq <= p.applied {
		return false
	}
	p.applied = res.Seq
	p.latest = &res
	if p.apply != nil {
		p.apply(res)
	}
	return true
}
