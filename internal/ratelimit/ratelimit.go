// Package ratelimit implements the submission-deduplication guard of
// spec.md §3/§4.9: a submission is allowed only if no submission with the
// same RateLimitKey happened in the last 60 seconds. Grounded on
// core/loanpool.go's in-memory cooldown map (a plain mutex-guarded map of
// last-seen timestamps, swept lazily on read rather than by a background
// goroutine), generalized from a single borrower key to the mint-sequence
// hash + bucketed amount key spec.md defines.
package ratelimit

import (
	"sync"
	"time"

	"github.com/solarb/engine/internal/types"
)

// Window is the duration a key suppresses a repeat submission for
// (spec.md §3/§4.9: "RATE_LIMIT_DURATION (60 s)").
const Window = 60 * time.Second

// bucketSize is the amount_in bucketing granularity (spec.md §3:
// "amount_in_bucket = floor(amount_in / 10^7) * 10^7"). Bucketing
// intentionally collapses trades that differ only by a small perturbation
// in size, so an adversary can't bypass the limiter by nudging amount_in
// (spec.md §9).
const bucketSize = 10_000_000

// Key is the RateLimitKey of spec.md §3: a mint-sequence hash paired with a
// bucketed input amount.
type Key struct {
	MintSequenceHash [32]byte
	AmountInBucket   int64
}

// KeyFor derives a Key from a route's pool sequence and its chosen input
// amount.
func KeyFor(pools []types.TokenPool, amountIn int64) Key {
	buf := make([]byte, 0, len(pools)*64)
	for _, p := range pools {
		lo, hi := types.SortPair(p.MintA, p.MintB)
		buf = append(buf, lo[:]...)
		buf = append(buf, hi[:]...)
	}
	return Key{
		MintSequenceHash: types.HashBytes(buf),
		AmountInBucket:   (amountIn / bucketSize) * bucketSize,
	}
}

// Limiter is safe for concurrent use. The zero value is not usable;
// construct with New.
type Limiter struct {
	mu   sync.Mutex
	seen map[Key]time.Time
	now  func() time.Time
}

func New() *Limiter {
	return &Limiter{seen: make(map[Key]time.Time), now: time.Now}
}

// Allow reports whether a submission under key is permitted right now, and
// if so, records it as the new "last seen" time for that key (spec.md §8
// property 3: "for every pair submitted within 60s of a same-key prior,
// exactly one submission occurs" — this check-and-set is linearizable
// under mu, matching spec.md §5's ordering guarantee for the limiter).
func (l *Limiter) Allow(key Key) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	last, ok := l.seen[key]
	if ok && now.Sub(last) < Window {
		return false
	}
	l.seen[key] = now
	return true
}

// Sweep discards entries older than Window, bounding the map's size in a
// long-running process. Safe to call periodically from any goroutine.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for k, t := range l.seen {
		if now.Sub(t) >= Window {
			delete(l.seen, k)
			removed++
		}
	}
	return removed
}

// Len reports how many keys are currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
