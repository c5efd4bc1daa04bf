package metrics

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Recorder receives engine events, typically to feed telemetry counters.
// Implementations must be safe for concurrent use.
type Recorder interface {
	RecordLookup(metric string, hit bool)
	RecordReset()
}

// Options holds injectable dependencies for a Context.
// Zero-value fields use production defaults.
type Options struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Recorder is an optional event sink. Nil disables recording.
	Recorder Recorder
}

// Query selects the variant of a computation. The zero Query asks for the
// standard version without aggregation.
type Query struct {
	// Version selects the metric variant. Empty means [Standard].
	Version Version

	// Option aggregates an operation metric over the operations of a type
	// node. [OptionNone] computes the metric on the node itself.
	Option ResultOption

	// ForceRefresh recomputes and replaces the cached value.
	ForceRefresh bool
}

// CacheStats summarizes memo activity of a Context since its last reset.
type CacheStats struct {
	Hits    int64 `json:"hits"    yaml:"hits"`
	Misses  int64 `json:"misses"  yaml:"misses"`
	Records int   `json:"records" yaml:"records"`
}

// RecordInfo describes one stats record for diagnostics.
type RecordInfo struct {
	Kind     string
	Path     string
	Entries  int
	Children int
}

// Context is a metrics session: it owns one stats hierarchy and every value
// memoized in it. A Context is safe for concurrent use. Values computed by
// one Context are never visible to another.
//
// A read that races with a forced refresh of the same entry observes either
// the previous or the refreshed value.
type Context struct {
	hierarchy sync.RWMutex
	arena     *arena
	logger    *slog.Logger
	recorder  Recorder
	hits      atomic.Int64
	misses    atomic.Int64
}

// New creates an empty Context.
func New(opts Options) *Context {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Context{
		arena:    newArena(),
		logger:   logger,
		recorder: opts.Recorder,
	}
}

// Get computes the standard version of key on n.
func (c *Context) Get(key *Key, n *node.Node) float64 {
	return c.Compute(key, n, Query{})
}

// GetVersion computes the given version of key on n. An empty version means
// [Standard].
func (c *Context) GetVersion(key *Key, n *node.Node, version Version) float64 {
	return c.Compute(key, n, Query{Version: version})
}

// GetAggregate aggregates the standard version of an operation key over the
// operations of typeNode. It returns NaN unless option is a valid mode.
func (c *Context) GetAggregate(key *Key, typeNode *node.Node, option ResultOption) float64 {
	return c.GetVersionAggregate(key, typeNode, Standard, option)
}

// GetVersionAggregate aggregates the given version of an operation key over
// the operations of typeNode. It returns NaN unless option is a valid mode.
func (c *Context) GetVersionAggregate(key *Key, typeNode *node.Node, version Version, option ResultOption) float64 {
	if !option.Valid() {
		return math.NaN()
	}

	return c.Compute(key, typeNode, Query{Version: version, Option: option})
}

// Compute is the single entry point behind the Get helpers. It panics on a
// nil key.
func (c *Context) Compute(key *Key, n *node.Node, q Query) float64 {
	c.hierarchy.RLock()
	defer c.hierarchy.RUnlock()

	return c.compute(key, n, q)
}

// Reset drops every record and cached value. It waits for in-flight
// computations and blocks new ones until the hierarchy is empty again.
func (c *Context) Reset() {
	c.hierarchy.Lock()
	defer c.hierarchy.Unlock()

	c.arena.reset()
	c.hits.Store(0)
	c.misses.Store(0)

	if c.recorder != nil {
		c.recorder.RecordReset()
	}

	c.logger.Debug("metrics context reset")
}

// CacheStats returns memo counters and the number of live records.
func (c *Context) CacheStats() CacheStats {
	c.hierarchy.RLock()
	defer c.hierarchy.RUnlock()

	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Records: c.arena.len(),
	}
}

// Records lists every stats record in creation order. The root comes first
// with an empty path.
func (c *Context) Records() []RecordInfo {
	c.hierarchy.RLock()
	defer c.hierarchy.RUnlock()

	count := c.arena.len()
	infos := make([]RecordInfo, 0, count)

	for idx := range count {
		rec := c.arena.at(idx)

		infos = append(infos, RecordInfo{
			Kind:     rec.kind.String(),
			Path:     strings.Join(c.arena.path(idx), "/"),
			Entries:  rec.entries(),
			Children: c.childCount(rec),
		})
	}

	return infos
}

func (c *Context) childCount(rec *record) int {
	c.arena.mu.Lock()
	defer c.arena.mu.Unlock()

	return len(rec.children)
}

// compute runs with the hierarchy read lock held.
func (c *Context) compute(key *Key, n *node.Node, q Query) float64 {
	if key == nil {
		panic("metrics: Compute called with nil key")
	}

	version := ResolveVersion(key.Metric(), q.Version)

	if q.Option != OptionNone {
		return c.computeWithResultOption(key, n, version, q)
	}

	if !key.Supports(n) {
		if c.debugEnabled() {
			c.logger.Debug("metric not applicable", "metric", key.String(), "node", n.String())
		}

		return math.NaN()
	}

	return c.memoized(c.arena.recordFor(n), key, n, version, q.ForceRefresh)
}

// computeWithResultOption aggregates an operation key over the operations
// declared directly by a type node. Each operation value goes through the
// operation's own memo table.
func (c *Context) computeWithResultOption(key *Key, typeNode *node.Node, version Version, q Query) float64 {
	if !q.Option.Valid() || key.Category() != node.CategoryOperation || typeNode.Category() != node.CategoryType {
		if c.debugEnabled() {
			c.logger.Debug("aggregation not applicable",
				"metric", key.String(), "node", typeNode.String(), "option", q.Option.String())
		}

		return math.NaN()
	}

	c.arena.recordFor(typeNode)

	operations := typeNode.Operations()
	values := make([]float64, 0, len(operations))

	for _, op := range operations {
		if !key.Supports(op) {
			continue
		}

		values = append(values, c.memoized(c.arena.recordFor(op), key, op, version, q.ForceRefresh))
	}

	return Aggregate(q.Option, values)
}

func (c *Context) memoized(rec *record, key *Key, n *node.Node, version Version, force bool) float64 {
	mk := memoKey{key: key, version: version}

	if !force {
		if value, ok := rec.lookup(mk); ok {
			c.hits.Add(1)
			c.record(key, true)

			return value
		}
	}

	c.misses.Add(1)
	c.record(key, false)

	if c.debugEnabled() {
		c.logger.Debug("computing metric", "metric", key.String(), "version", string(version), "forced", force)
	}

	value := key.Metric().Compute(view{ctx: c}, n, version)

	return rec.store(mk, value, force)
}

// debugEnabled gates debug records whose attributes format nodes or keys.
func (c *Context) debugEnabled() bool {
	return c.logger.Enabled(context.Background(), slog.LevelDebug)
}

func (c *Context) record(key *Key, hit bool) {
	if c.recorder != nil {
		c.recorder.RecordLookup(key.Name(), hit)
	}
}

// view is the Querier handed to metrics. It runs under the read lock already
// held by the outer Compute call.
type view struct {
	ctx *Context
}

func (v view) Compute(key *Key, n *node.Node, q Query) float64 {
	return v.ctx.compute(key, n, q)
}
