package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/pkg/metrics"
)

// Treap-based, in-memory Store implementation. Each (username, source)
// pool keeps its own treap.
//
// Ordering: score DESC, then id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the ranking
// from best to worst.

// scoreScale controls fixed-point scaling from float64.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled >= float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

type node struct {
	id    int64
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID int64, bScore scoreFP, bID int64) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// idPriority spreads ids over the priority space (splitmix64) so the treap
// stays balanced whatever order scores arrive in.
func idPriority(id int64) uint64 {
	z := uint64(id) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func insert(n *node, id int64, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: idPriority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id int64, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// walk visits ids in rank order until visit returns false.
func walk(n *node, visit func(id int64) bool) bool {
	if n == nil {
		return true
	}
	return walk(n.left, visit) && visit(n.id) && walk(n.right, visit)
}

type poolKey struct {
	username string
	source   model.Source
}

type pool struct {
	root      *node
	threshold *int
}

// AlbumStore is the in-memory Store.
type AlbumStore struct {
	mu               sync.RWMutex
	byID             map[int64]*Album
	pools            map[poolKey]*pool
	nextID           int64
	defaultThreshold int

	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ Store = (*AlbumStore)(nil)

// NewAlbumStore constructs a store with configuration options.
func NewAlbumStore(opts ...Option) *AlbumStore {
	s := &AlbumStore{
		byID:             make(map[int64]*Album),
		pools:            make(map[poolKey]*pool),
		defaultThreshold: DefaultThreshold,
		rng:              rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // pairing is not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func keyOf(username string, source model.Source) poolKey {
	return poolKey{username: strings.ToLower(username), source: source}
}

func (s *AlbumStore) poolFor(k poolKey) *pool {
	p, ok := s.pools[k]
	if !ok {
		p = &pool{}
		s.pools[k] = p
	}
	return p
}

// Add implements Store.Add.
func (s *AlbumStore) Add(_ context.Context, albums ...Album) ([]Album, error) {
	for i, a := range albums {
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Username) == "" {
			return nil, fmt.Errorf("%w: album %d needs a name and a username", ErrInvalidAlbum, i)
		}
		if math.IsNaN(a.Score) || math.IsInf(a.Score, 0) {
			return nil, fmt.Errorf("%w: album %q has score %v", ErrInvalidAlbum, a.Name, a.Score)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Album, 0, len(albums))
	for _, a := range albums {
		s.nextID++
		a.ID = s.nextID
		if a.Source == "" {
			a.Source = model.SourceLastFM
		}
		stored := a
		s.byID[a.ID] = &stored
		p := s.poolFor(keyOf(a.Username, a.Source))
		p.root = insert(p.root, a.ID, toFixedPoint(a.Score))
		out = append(out, a)
	}
	return out, nil
}

// Get implements Store.Get.
func (s *AlbumStore) Get(_ context.Context, id int64) (Album, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Album{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return *a, nil
}

// Count implements Store.Count.
func (s *AlbumStore) Count(_ context.Context, username string, source model.Source) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.pools[keyOf(username, source)]; ok {
		return nsize(p.root)
	}
	return 0
}

// collect returns albums accepted by keep in rank order. Caller holds the
// lock.
func (s *AlbumStore) collect(f Filter, keep func(Album) bool) []Album {
	p, ok := s.pools[keyOf(f.Username, f.Source)]
	if !ok {
		return nil
	}
	out := make([]Album, 0, nsize(p.root))
	walk(p.root, func(id int64) bool {
		if a := s.byID[id]; a != nil && keep(*a) {
			out = append(out, *a)
		}
		return true
	})
	return out
}

// RandomPair implements Store.RandomPair.
func (s *AlbumStore) RandomPair(_ context.Context, f Filter) ([2]Album, error) {
	s.mu.RLock()
	candidates := s.collect(f, f.Eligible)
	s.mu.RUnlock()

	n := len(candidates)
	if n < 2 {
		return [2]Album{}, ErrNotEnoughAlbums
	}

	s.rngMu.Lock()
	i := s.rng.IntN(n)
	j := s.rng.IntN(n - 1)
	s.rngMu.Unlock()
	if j >= i {
		j++
	}
	return [2]Album{candidates[i], candidates[j]}, nil
}

// Ranked implements Store.Ranked.
func (s *AlbumStore) Ranked(_ context.Context, f Filter) ([]Entry, error) {
	s.mu.RLock()
	albums := s.collect(f, f.Rankable)
	s.mu.RUnlock()

	out := make([]Entry, len(albums))
	for i, a := range albums {
		out[i] = Entry{Album: a}
	}
	assignRanksWithTies(out)
	return out, nil
}

// Ignored implements Store.Ignored.
func (s *AlbumStore) Ignored(_ context.Context, username string, source model.Source) ([]Album, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[keyOf(username, source)]
	if !ok {
		return []Album{}, nil
	}
	out := []Album{}
	walk(p.root, func(id int64) bool {
		if a := s.byID[id]; a != nil && a.Ignored {
			out = append(out, *a)
		}
		return true
	})
	return out, nil
}

// SetIgnored implements Store.SetIgnored.
func (s *AlbumStore) SetIgnored(_ context.Context, id int64, ignored bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	a.Ignored = ignored
	return nil
}

// SetScores implements Store.SetScores in O(log n) expected time.
func (s *AlbumStore) SetScores(_ context.Context, firstID int64, first float64, secondID int64, second float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[firstID]
	b, ok2 := s.byID[secondID]
	if !ok || !ok2 {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	s.rescore(a, first)
	s.rescore(b, second)
	return nil
}

// Rescore implements Store.Rescore. The update runs under the write lock.
func (s *AlbumStore) Rescore(_ context.Context, firstID, secondID int64, update ScoreUpdate) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[firstID]
	b, ok2 := s.byID[secondID]
	if !ok || !ok2 {
		metrics.RecordErrorByComponent("repository", "not_found")
		return 0, 0, ErrNotFound
	}
	first, second, err := update(a.Score, b.Score)
	if err != nil {
		return a.Score, b.Score, err
	}
	s.rescore(a, first)
	s.rescore(b, second)
	return first, second, nil
}

func (s *AlbumStore) rescore(a *Album, score float64) {
	p := s.poolFor(keyOf(a.Username, a.Source))
	p.root = deleteNode(p.root, a.ID, toFixedPoint(a.Score))
	a.Score = score
	p.root = insert(p.root, a.ID, toFixedPoint(score))
}

// Reset implements Store.Reset.
func (s *AlbumStore) Reset(_ context.Context, username string, source model.Source) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(username, source)
	p, ok := s.pools[k]
	if !ok {
		return 0, nil
	}
	n := 0
	walk(p.root, func(id int64) bool {
		delete(s.byID, id)
		n++
		return true
	})
	delete(s.pools, k)
	return n, nil
}

// Threshold implements Store.Threshold.
func (s *AlbumStore) Threshold(_ context.Context, username string, source model.Source) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.pools[keyOf(username, source)]; ok && p.threshold != nil {
		return *p.threshold
	}
	return s.defaultThreshold
}

// SetThreshold implements Store.SetThreshold.
func (s *AlbumStore) SetThreshold(_ context.Context, username string, source model.Source, threshold int) error {
	if threshold < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, threshold)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := threshold
	s.poolFor(keyOf(username, source)).threshold = &t
	return nil
}

// assignRanksWithTies gives equal scores the same rank; ranks stay
// consecutive (1, 1, 2, ...).
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || toFixedPoint(entries[i].Album.Score) != toFixedPoint(entries[i-1].Album.Score) {
			rank++
		}
		entries[i].Rank = rank
	}
}
