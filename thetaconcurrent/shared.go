/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package thetaconcurrent implements the concurrent shared/local sharing
// layer (spec §4.6): a single Shared sketch updated by many per-thread
// Local buffers through lock-free background propagation of ordered
// compact snapshots. It is a sibling of package theta: it builds entirely
// on theta's exported Hashtable and CompactSketch rather than reaching into
// package-private state.
package thetaconcurrent

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/thetasketches/thetasketch-go/internal/binomialbounds"
	"github.com/thetasketches/thetasketch-go/internal/hashing"
	"github.com/thetasketches/thetasketch-go/theta"
)

// quickSelectLoadFactor mirrors theta's own QuickSelect rebuild threshold
// (15/16, spec I2); both the shared table and every local buffer are plain
// QuickSelect-shaped tables.
const quickSelectLoadFactor = 15.0 / 16.0

// defaultSharedQueueCapacity sizes the buffered channel the propagation
// executor drains. It only needs enough slack to absorb a burst of
// same-instant propagations from distinct locals without the fallback
// goroutine in submit firing on every call.
const defaultSharedQueueCapacity = 256

// snapshot is the (theta, retained count, empty) triple Shared readers
// observe. It is swapped in as a whole after every propagation merge so a
// concurrent Estimate() call never pairs a post-merge theta with a
// pre-merge retained count or vice versa (spec §4.6: "must see a
// consistent theta and retained-count pair").
type snapshot struct {
	theta       uint64
	numRetained uint32
	isEmpty     bool
}

// propagationJob is one local's buffered snapshot in flight to the shared
// sketch's executor.
type propagationJob struct {
	entries  []uint64
	theta    uint64
	ordered  bool
	seedHash uint16
	done     func()
}

// Shared is the sketch many Local buffers feed (spec §4.6,
// concurrentShared): an update-sketch hash table mutated only by a single
// background goroutine (the "propagation executor"), plus a volatile
// theta published after every merge for locals to screen writes against
// without touching the table at all.
type Shared struct {
	table         *theta.Hashtable
	queue         chan propagationJob
	stopped       chan struct{}
	volatileTheta atomic.Uint64
	snap          atomic.Pointer[snapshot]
	seed          uint64
}

type sharedOptions struct {
	lgK           uint8
	seed          uint64
	p             float32
	rf            theta.ResizeFactor
	queueCapacity int
}

// SharedOption configures a Shared sketch.
type SharedOption func(*sharedOptions)

// WithSharedLgK sets log2(k) for the shared sketch's nominal size.
func WithSharedLgK(lgK uint8) SharedOption { return func(o *sharedOptions) { o.lgK = lgK } }

// WithSharedSeed sets the hash seed; every Local built against this Shared
// inherits it, so seed mismatches between locals of the same shared are
// impossible by construction.
func WithSharedSeed(seed uint64) SharedOption { return func(o *sharedOptions) { o.seed = seed } }

// WithSharedP sets the sampling probability (initial theta).
func WithSharedP(p float32) SharedOption { return func(o *sharedOptions) { o.p = p } }

// WithSharedResizeFactor sets the shared table's growth step.
func WithSharedResizeFactor(rf theta.ResizeFactor) SharedOption {
	return func(o *sharedOptions) { o.rf = rf }
}

// WithSharedQueueCapacity sets the propagation channel's buffer size.
func WithSharedQueueCapacity(n int) SharedOption {
	return func(o *sharedOptions) { o.queueCapacity = n }
}

// NewShared builds a shared sketch and starts its propagation executor
// goroutine.
func NewShared(opts ...SharedOption) (*Shared, error) {
	options := &sharedOptions{
		lgK:           theta.DefaultLgK,
		seed:          theta.DefaultSeed,
		p:             1.0,
		rf:            theta.DefaultResizeFactor,
		queueCapacity: defaultSharedQueueCapacity,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.lgK < theta.MinLgK || options.lgK > theta.MaxLgK {
		return nil, fmt.Errorf("thetaconcurrent: lgK must be in [%d, %d]: %d", theta.MinLgK, theta.MaxLgK, options.lgK)
	}
	if options.p <= 0 || options.p > 1 {
		return nil, fmt.Errorf("thetaconcurrent: p must be in (0, 1]: %v", options.p)
	}
	if options.queueCapacity <= 0 {
		return nil, fmt.Errorf("thetaconcurrent: queue capacity must be positive: %d", options.queueCapacity)
	}

	startTheta := theta.MaxTheta
	if options.p < 1 {
		startTheta = uint64(float64(theta.MaxTheta) * float64(options.p))
	}
	table := theta.NewHashtable(options.lgK+1, options.lgK, options.rf, options.p, startTheta, options.seed, true, quickSelectLoadFactor)

	s := &Shared{
		table:   table,
		queue:   make(chan propagationJob, options.queueCapacity),
		stopped: make(chan struct{}),
		seed:    options.seed,
	}
	s.publish()
	// An empty table reports MaxTheta from Theta64, so the sampling theta is
	// published explicitly until the first merge republishes it.
	s.volatileTheta.Store(startTheta)
	go s.run()
	return s, nil
}

// run is the single-threaded propagation executor: it serializes every
// local's submitted snapshot into the shared table, one at a time, in the
// order they arrive on the queue (spec §4.6: "The executor serializes
// propagations").
func (s *Shared) run() {
	defer close(s.stopped)
	for job := range s.queue {
		s.merge(job)
		if job.done != nil {
			job.done()
		}
	}
}

// merge folds one propagated snapshot into the shared table, using the
// same logic as Union.Update (spec §4.6: "merges the snapshot into the
// shared sketch using the same logic as Union"): theta only ever shrinks,
// and an ordered snapshot lets the scan stop as soon as an entry falls
// outside the new theta.
func (s *Shared) merge(job propagationJob) {
	newTheta := min(s.table.Theta64(), job.theta)
	for _, h := range job.entries {
		if h >= newTheta {
			if job.ordered {
				break
			}
			continue
		}
		idx, err := s.table.Find(h)
		if err != nil {
			if err == theta.ErrKeyNotFound {
				s.table.Insert(idx, h)
			}
			continue
		}
	}
	s.publish()
}

// publish atomically swaps in the table's current (theta, retained count)
// pair and republishes the volatile theta, completing the propagation
// step's last phase (spec §4.6: "after the merge — republishes the shared
// theta to the volatile-theta field").
func (s *Shared) publish() {
	s.volatileTheta.Store(s.table.Theta64())
	s.snap.Store(&snapshot{
		theta:       s.table.Theta64(),
		numRetained: s.table.NumRetained(),
		isEmpty:     s.table.IsEmpty(),
	})
}

// submit hands a propagation job to the executor without blocking the
// caller on its critical path: the fast path is a non-blocking channel
// send, falling back to an async goroutine only when the buffer is
// momentarily full.
func (s *Shared) submit(job propagationJob) {
	select {
	case s.queue <- job:
	default:
		go func() { s.queue <- job }()
	}
}

// VolatileTheta returns the last published theta, the value every Local's
// write path screens new hashes against (spec §4.6 step 1).
func (s *Shared) VolatileTheta() uint64 { return s.volatileTheta.Load() }

func (s *Shared) current() *snapshot { return s.snap.Load() }

// IsEmpty reports whether the shared sketch has merged any input yet.
func (s *Shared) IsEmpty() bool { return s.current().isEmpty }

// Theta64 returns the last published raw theta.
func (s *Shared) Theta64() uint64 {
	snap := s.current()
	if snap.isEmpty {
		return theta.MaxTheta
	}
	return snap.theta
}

// Theta returns the last published theta as a fraction in (0, 1].
func (s *Shared) Theta() float64 { return float64(s.Theta64()) / float64(theta.MaxTheta) }

// NumRetained returns the last published retained count.
func (s *Shared) NumRetained() uint32 { return s.current().numRetained }

// IsEstimationMode reports whether the shared sketch has left exact mode.
func (s *Shared) IsEstimationMode() bool { return s.Theta64() < theta.MaxTheta && !s.IsEmpty() }

// Estimate returns the shared sketch's current cardinality estimate, built
// from the one atomically-published (theta, retained count) pair so it
// never reflects a torn read across a concurrent merge.
func (s *Shared) Estimate() float64 {
	if s.IsEmpty() {
		return 0
	}
	return float64(s.NumRetained()) / s.Theta()
}

// LowerBound returns the approximate lower confidence bound for
// numStdDevs standard deviations (1, 2, or 3).
func (s *Shared) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

// UpperBound returns the approximate upper confidence bound for
// numStdDevs standard deviations (1, 2, or 3).
func (s *Shared) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

// SeedHash returns the 16-bit fingerprint of the shared sketch's seed.
func (s *Shared) SeedHash() (uint16, error) { return hashing.SeedHash(s.seed) }

// tableSketch adapts a live *theta.Hashtable to theta.Sketch, used only
// once no writer can touch the table concurrently (after Shutdown):
// Hashtable already implements every method of theta.Sketch except
// String, by the same read contract update sketches expose it through.
type tableSketch struct{ *theta.Hashtable }

func (tableSketch) String(bool) string { return "" }

// Compact snapshots the shared sketch's current table into an immutable
// compact sketch. Callers must only call this after Shutdown has
// returned: the table is otherwise being mutated by the propagation
// executor and iterating it concurrently would race.
func (s *Shared) Compact(ordered bool) *theta.CompactSketch {
	return theta.NewCompactSketch(tableSketch{s.table}, ordered)
}

// Shutdown stops accepting new propagations and blocks until the executor
// has drained every already-queued job and exited (spec §4.6:
// "Shutdown drains the executor, awaiting termination").
func (s *Shared) Shutdown(ctx context.Context) error {
	close(s.queue)
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
