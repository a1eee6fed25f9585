// Package routestore holds ranked, profitable RouteCandidates awaiting the
// sender, as a mutex-guarded max-heap plus a dedup identity table, grounded
// on core/amm.go's `pq` priority-queue type (spec.md §4.7).
package routestore

import (
	"container/heap"
	"sync"

	"github.com/solarb/engine/internal/types"
)

type entry struct {
	candidate types.RouteCandidate
	identity  [32]byte
	index     int // heap.Interface bookkeeping
}

type candidateHeap []*entry

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	return h[i].candidate.Swap.Profit > h[j].candidate.Swap.Profit // max-heap
}
func (h candidateHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *candidateHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex
	h  candidateHeap

	// byIdentity maps an identity key (pool-sequence or mint-sequence hash,
	// depending on which Insert variant installed the candidate) to its heap
	// entry, so a repeat insert replaces rather than duplicates.
	byIdentity map[[32]byte]*entry
}

func New() *Store {
	return &Store{byIdentity: make(map[[32]byte]*entry)}
}

// Insert installs candidate keyed by its exact pool-key sequence, so two
// routes that merely share mints but differ in which pools they traverse are
// kept apart (spec.md §4.7/§4.8). The finders and the sender do not call it;
// they use SmartInsert.
func (s *Store) Insert(candidate types.RouteCandidate) {
	s.insert(candidate, poolSequenceIdentity(candidate.Swap.Pools))
}

// SmartInsert installs candidate keyed by its canonical mint-pair sequence,
// so a newer, more profitable route over the same logical mint path
// replaces an older one even if the exact pools differ. Used by the
// mint-scoped and global finders (spec.md §4.8).
func (s *Store) SmartInsert(candidate types.RouteCandidate) {
	s.insert(candidate, mintSequenceIdentity(candidate.Swap.Pools))
}

func (s *Store) insert(candidate types.RouteCandidate, identity [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byIdentity[identity]; ok {
		if candidate.Swap.Profit <= existing.candidate.Swap.Profit {
			return
		}
		existing.candidate = candidate
		heap.Fix(&s.h, existing.index)
		return
	}

	e := &entry{candidate: candidate, identity: identity}
	heap.Push(&s.h, e)
	s.byIdentity[identity] = e
}

// PopTopN removes and returns up to n candidates in descending profit order.
func (s *Store) PopTopN(n int) []types.RouteCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.RouteCandidate, 0, n)
	for i := 0; i < n && s.h.Len() > 0; i++ {
		e := heap.Pop(&s.h).(*entry)
		delete(s.byIdentity, e.identity)
		out = append(out, e.candidate)
	}
	return out
}

// Drain removes and returns every candidate currently stored, in descending
// profit order — the sender's per-tick full sweep (spec.md §4.9).
func (s *Store) Drain() []types.RouteCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.RouteCandidate, 0, s.h.Len())
	for s.h.Len() > 0 {
		e := heap.Pop(&s.h).(*entry)
		delete(s.byIdentity, e.identity)
		out = append(out, e.candidate)
	}
	return out
}

// CleanWeight discards every stored candidate whose profit falls below
// minProfit, e.g. after a config reload lowers nothing but a mint's
// liquidity has since collapsed (spec.md §4.7's staleness sweep).
func (s *Store) CleanWeight(minProfit int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.h[:0]
	removed := 0
	for _, e := range s.h {
		if e.candidate.Swap.Profit < minProfit {
			delete(s.byIdentity, e.identity)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.h = kept
	heap.Init(&s.h)
	return removed
}

// Len reports how many candidates are currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Len()
}

func poolSequenceIdentity(pools []types.TokenPool) [32]byte {
	buf := make([]byte, 0, len(pools)*32)
	for _, p := range pools {
		buf = append(buf, p.PoolKey[:]...)
	}
	return types.HashBytes(buf)
}

func mintSequenceIdentity(pools []types.TokenPool) [32]byte {
	buf := make([]byte, 0, len(pools)*64)
	for _, p := range pools {
		lo, hi := types.SortPair(p.MintA, p.MintB)
		buf = append(buf, lo[:]...)
		buf = append(buf, hi[:]...)
	}
	return types.HashBytes(buf)
}
