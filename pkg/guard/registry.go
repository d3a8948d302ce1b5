package guard

import (
	"container/list"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// compiledPattern pairs a Pattern with its compiled regex; entries whose
// regex failed to compile are dropped before this stage is reached.
type compiledPattern struct {
	Pattern
	re *regexp.Regexp
}

// CompiledSet is an immutable, priority-sorted view over a pattern list,
// ready to be scanned by the matcher. Once built it is never mutated;
// Context.UpdateConfig swaps the pointer rather than editing in place.
type CompiledSet struct {
	patterns   []compiledPattern
	automaton  *ahoCorasick // nil when bypassing AC for tiny sets (§4.2)
	bypassedAC bool
}

// bypassACThreshold is the pattern-count ceiling at or below which the matcher
// skips Aho-Corasick construction and runs regex-only, per §4.2's rationale
// that AC construction cost dominates for tiny sets.
const bypassACThreshold = 5

// Compile validates and compiles a pattern list into a CompiledSet. Invalid
// regexes are skipped (logged here through logger when it is non-nil), not
// fatal to the batch.
func Compile(patterns []Pattern, logger diagnosticLogger) (*CompiledSet, error) {
	byID := make(map[string]compiledPattern, len(patterns))
	order := make([]string, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			if logger != nil {
				logger.Warnf("guard: dropping pattern %q: invalid regex: %v", p.ID, err)
			}
			continue
		}
		if _, exists := byID[p.ID]; !exists {
			order = append(order, p.ID)
		}
		byID[p.ID] = compiledPattern{Pattern: p, re: re}
	}

	compiled := make([]compiledPattern, 0, len(order))
	for _, id := range order {
		compiled = append(compiled, byID[id])
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].priority() > compiled[j].priority()
	})

	cs := &CompiledSet{patterns: compiled}
	if len(compiled) > bypassACThreshold {
		cs.automaton = buildAutomaton(compiled)
	} else {
		cs.bypassedAC = true
	}
	return cs, nil
}

// diagnosticLogger is the minimal logging surface the guard package needs;
// pkg/logging.Logger satisfies it.
type diagnosticLogger interface {
	Warnf(format string, args ...any)
}

// cacheKey is the stable, sorted tuple identifying a pattern set for the
// compiled-pattern cache, per §4.1/§9.
type cacheKey string

func makeCacheKey(patterns []Pattern) cacheKey {
	keys := make([]string, len(patterns))
	for i, p := range patterns {
		keys[i] = p.ID + "|" + string(p.Severity) + "|" + itoa(p.Weight)
	}
	sort.Strings(keys)
	return cacheKey(strings.Join(keys, ","))
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// patternCache is a bounded LRU cache of CompiledSets, keyed by cacheKey,
// safe for concurrent use. Concurrent misses for the same key are
// coalesced with singleflight so the automaton is built exactly once.
type patternCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[cacheKey]*list.Element
	order    *list.List // front = most recently used
	group    singleflight.Group
	logger   diagnosticLogger
}

type cacheEntry struct {
	key cacheKey
	set *CompiledSet
}

// defaultCacheCapacity is the recommended LRU size from §4.1.
const defaultCacheCapacity = 100

func newPatternCache(logger diagnosticLogger) *patternCache {
	return &patternCache{
		capacity: defaultCacheCapacity,
		entries:  make(map[cacheKey]*list.Element),
		order:    list.New(),
		logger:   logger,
	}
}

// lookup returns a cached CompiledSet for the given key, touching it as
// most-recently-used, or false on a miss.
func (c *patternCache) lookup(key cacheKey) (*CompiledSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).set, true
}

// getOrCompile returns the cached set for patterns, compiling and inserting
// on a miss. Concurrent callers racing on the same key share one compile.
func (c *patternCache) getOrCompile(patterns []Pattern) (*CompiledSet, error) {
	key := makeCacheKey(patterns)
	if set, ok := c.lookup(key); ok {
		return set, nil
	}
	result, err, _ := c.group.Do(string(key), func() (any, error) {
		if set, ok := c.lookup(key); ok {
			return set, nil
		}
		set, err := Compile(patterns, c.logger)
		if err != nil {
			return nil, err
		}
		c.insert(key, set)
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*CompiledSet), nil
}

func (c *patternCache) insert(key cacheKey, set *CompiledSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).set = set
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{key: key, set: set})
	c.entries[key] = el
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
