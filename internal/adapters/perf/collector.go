package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind says which layer produced an entry.
type EntryKind uint8

const (
	// KindRequest is an inbound HTTP request to the web front end.
	KindRequest EntryKind = iota
	// KindQuery is a local SQLite call.
	KindQuery
	// KindBackend is an outbound call to the forum backend.
	KindBackend
)

func (k EntryKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindQuery:
		return "query"
	case KindBackend:
		return "backend"
	}
	return "unknown"
}

// Entry is a single timing record.
// StatusCode is 0 for queries and -1 for backend calls that never got a response.
type Entry struct {
	Kind       EntryKind
	Path       string
	StatusCode int
	DurationMs float64
	Timestamp  time.Time
}

// Failed reports whether the entry records an error response or a transport failure.
func (e Entry) Failed() bool {
	return e.StatusCode < 0 || e.StatusCode >= 500
}

// Collector is a fixed-size ring buffer of timing entries.
// When full the oldest entries are overwritten; aggregation happens on read.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	count   int64
}

// NewCollector creates a collector with the given ring buffer capacity.
// PRE: size > 0, otherwise DefaultRingSize is used
// POST: storage is pre-allocated
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record appends an entry, overwriting the oldest when full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	atomic.AddInt64(&c.count, 1)
}

// Observe records an entry of kind that started at start and ends now.
// Safe to call on a nil Collector.
func (c *Collector) Observe(kind EntryKind, path string, status int, start time.Time) float64 {
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	if c != nil {
		c.Record(Entry{Kind: kind, Path: path, StatusCode: status, DurationMs: ms, Timestamp: start})
	}
	return ms
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.count)
}

// Snapshot holds aggregated timings computed on read.
type Snapshot struct {
	TotalRecorded  int64
	RequestP50Ms   float64
	RequestP95Ms   float64
	RequestP99Ms   float64
	BackendP95Ms   float64
	BackendFailed  int
	SlowestPaths   []PathStat
	SlowestQueries []PathStat
	SlowestBackend []PathStat
}

// PathStat aggregates timing for one path, query op, or backend operation.
type PathStat struct {
	Path    string
	AvgMs   float64
	MaxMs   float64
	Count   int
	Failed  int
	TotalMs float64
}

// Snapshot aggregates entries recorded at or after since into top-N lists per kind.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	stats := map[EntryKind]map[string]*PathStat{
		KindRequest: {},
		KindQuery:   {},
		KindBackend: {},
	}
	durations := map[EntryKind][]float64{}
	snap := Snapshot{TotalRecorded: c.TotalRecorded()}

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		byPath, ok := stats[e.Kind]
		if !ok {
			continue
		}
		s, ok := byPath[e.Path]
		if !ok {
			s = &PathStat{Path: e.Path}
			byPath[e.Path] = s
		}
		s.Count++
		s.TotalMs += e.DurationMs
		s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
		if e.Failed() {
			s.Failed++
			if e.Kind == KindBackend {
				snap.BackendFailed++
			}
		}
		durations[e.Kind] = append(durations[e.Kind], e.DurationMs)
	}

	snap.SlowestPaths = topByAvg(stats[KindRequest], topN)
	snap.SlowestQueries = topByAvg(stats[KindQuery], topN)
	snap.SlowestBackend = topByAvg(stats[KindBackend], topN)

	if req := durations[KindRequest]; len(req) > 0 {
		sort.Float64s(req)
		snap.RequestP50Ms = percentile(req, 50)
		snap.RequestP95Ms = percentile(req, 95)
		snap.RequestP99Ms = percentile(req, 99)
	}
	if be := durations[KindBackend]; len(be) > 0 {
		sort.Float64s(be)
		snap.BackendP95Ms = percentile(be, 95)
	}
	return snap
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs != list[j].AvgMs {
			return list[i].AvgMs > list[j].AvgMs
		}
		return list[i].Path < list[j].Path
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
