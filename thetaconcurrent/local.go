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

package thetaconcurrent

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync/atomic"
	"time"

	"github.com/thetasketches/thetasketch-go/theta"
)

// defaultLocalLgK is the local buffer's default nominal size: small on
// purpose, since a local exists only to batch a handful of updates
// between propagations, not to hold a standalone estimate.
const defaultLocalLgK = theta.MinLgK

// Local is a bounded, single-writer buffer feeding one Shared sketch (spec
// §4.6, concurrentLocal). Every write is screened against the shared
// sketch's published volatile theta before being retained locally; once
// the local table's retained count reaches its propagation threshold, the
// buffer hands an ordered compact snapshot to the shared sketch's executor
// and resets.
//
// A Local is not safe for concurrent use by multiple goroutines — exactly
// one writer owns it, the same way one thread owns a per-thread buffer in
// the design this mirrors. Concurrency comes from running many Locals
// against the one Shared, not from sharing a Local.
type Local struct {
	shared    *Shared
	table     *theta.Hashtable
	threshold uint32
	ordered   bool
	inFlight  atomic.Bool
}

type localOptions struct {
	lgK                 uint8
	rf                  theta.ResizeFactor
	maxConcurrencyError float64
	ordered             bool
}

// LocalOption configures a Local buffer.
type LocalOption func(*localOptions)

// WithLocalLgK sets log2(k) for the local buffer's nominal size.
func WithLocalLgK(lgK uint8) LocalOption { return func(o *localOptions) { o.lgK = lgK } }

// WithLocalResizeFactor sets the local table's growth step.
func WithLocalResizeFactor(rf theta.ResizeFactor) LocalOption {
	return func(o *localOptions) { o.rf = rf }
}

// WithMaxConcurrencyError bounds the extra relative error a local's
// buffering may introduce, via the propagation threshold: threshold =
// ceil(k / (1 - maxConcurrencyError)), floored at k and capped at the
// local table's physical capacity.
func WithMaxConcurrencyError(e float64) LocalOption {
	return func(o *localOptions) { o.maxConcurrencyError = e }
}

// WithPropagateOrderedCompact controls whether a local sorts its buffered
// hashes before propagating. Ordered snapshots let the shared executor's
// merge loop stop early once an entry exceeds the merge theta; unordered
// propagation skips the sort at the cost of a full scan on merge.
func WithPropagateOrderedCompact(ordered bool) LocalOption {
	return func(o *localOptions) { o.ordered = ordered }
}

// NewLocal builds a write buffer for shared. The local inherits shared's
// hash seed, so seed mismatches between a local and its shared sketch are
// impossible by construction.
func NewLocal(shared *Shared, opts ...LocalOption) (*Local, error) {
	if shared == nil {
		return nil, fmt.Errorf("thetaconcurrent: shared must not be nil")
	}
	options := &localOptions{
		lgK:                 defaultLocalLgK,
		rf:                  theta.ResizeX2,
		maxConcurrencyError: 0.01,
		ordered:             true,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.lgK < theta.MinLgK || options.lgK > theta.MaxLgK {
		return nil, fmt.Errorf("thetaconcurrent: localLgK must be in [%d, %d]: %d", theta.MinLgK, theta.MaxLgK, options.lgK)
	}
	if options.maxConcurrencyError < 0 || options.maxConcurrencyError >= 1 {
		return nil, fmt.Errorf("thetaconcurrent: maxConcurrencyError must be in [0, 1): %v", options.maxConcurrencyError)
	}

	lgCurSize := options.lgK + 1
	// Local theta is pinned at MaxTheta: screening against the shared
	// sketch's volatile theta happens explicitly in update, so the local
	// table itself must never reject a hash on its own account.
	table := theta.NewHashtable(lgCurSize, options.lgK, options.rf, 1.0, theta.MaxTheta, shared.seed, true, quickSelectLoadFactor)

	k := uint32(1) << options.lgK
	threshold := uint32(math.Ceil(float64(k) / (1 - options.maxConcurrencyError)))
	if threshold < k {
		threshold = k
	}
	if capacity := uint32(1) << lgCurSize; threshold > capacity {
		threshold = capacity
	}

	return &Local{
		shared:    shared,
		table:     table,
		threshold: threshold,
		ordered:   options.ordered,
	}, nil
}

// UpdateUint64 updates the local buffer with a uint64 item.
func (l *Local) UpdateUint64(value uint64) error {
	return l.update(func() (uint64, error) { return l.table.HashUint64AndScreen(value) })
}

// UpdateUint32 updates the local buffer with a uint32 item.
func (l *Local) UpdateUint32(value uint32) error {
	return l.update(func() (uint64, error) { return l.table.HashUint32AndScreen(value) })
}

// UpdateString updates the local buffer with a string item. An empty
// string is a no-op, matching the update sketch convention elsewhere in
// this module.
func (l *Local) UpdateString(value string) error {
	if value == "" {
		return nil
	}
	return l.update(func() (uint64, error) { return l.table.HashStringAndScreen(value) })
}

// UpdateBytes updates the local buffer with an arbitrary byte slice. A nil
// or empty slice is a no-op.
func (l *Local) UpdateBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return l.update(func() (uint64, error) { return l.table.HashAndScreen(data) })
}

// update runs the local write path (spec §4.6): hash and screen against
// the local table's own (always-MaxTheta) theta, then reject anything at
// or past the shared sketch's last published volatile theta before ever
// touching the local table's slots.
func (l *Local) update(hashFn func() (uint64, error)) error {
	key, err := hashFn()
	if err != nil {
		if err == theta.ErrHashExceedsTheta {
			return nil // local theta is pinned at MaxTheta; this cannot occur in practice
		}
		return err
	}
	if key >= l.shared.VolatileTheta() {
		return nil // rejected over theta; not an error, just not retained
	}

	index, err := l.table.Find(key)
	if err != nil {
		if err != theta.ErrKeyNotFound {
			return err
		}
		l.table.Insert(index, key)
	} else {
		return nil // duplicate: idempotent, no-op
	}

	if l.table.NumRetained() >= l.threshold {
		l.propagate()
	}
	return nil
}

// propagate snapshots the local buffer and hands it to the shared
// sketch's executor, resetting the local table immediately so the writer
// can keep buffering while the merge happens in the background. The
// atomic.Bool guard ensures at most one of a local's snapshots is ever
// in flight at a time (spec §4.6: "Locals never block writers on the
// critical path beyond a compare-and-set of this flag; if the flag is
// already set, the local continues buffering").
func (l *Local) propagate() {
	if l.inFlight.CompareAndSwap(false, true) {
		l.snapshotAndSubmit(nil)
	}
}

// snapshotAndSubmit copies the local table's retained hashes out, resets
// the table, and submits the snapshot to the shared sketch. onDone, if
// non-nil, runs after the shared executor has merged the snapshot, in
// addition to clearing the in-flight flag.
func (l *Local) snapshotAndSubmit(onDone func()) {
	entries := make([]uint64, 0, l.table.NumRetained())
	for h := range l.table.All() {
		entries = append(entries, h)
	}
	if l.ordered {
		slices.Sort(entries)
	}
	snapTheta := l.table.Theta64()
	seedHash, _ := l.table.SeedHash()

	l.table.Reset()

	l.shared.submit(propagationJob{
		entries:  entries,
		theta:    snapTheta,
		ordered:  l.ordered,
		seedHash: seedHash,
		done: func() {
			l.inFlight.Store(false)
			if onDone != nil {
				onDone()
			}
		},
	})
}

// Flush forces propagation of any buffered entries and blocks until the
// shared sketch has merged them. It exists for tests and for callers that
// need a read-after-write guarantee at a specific point (spec §5: "a
// writer thread suspends only if it voluntarily awaits propagation
// (test-only)") — production write paths never call it.
func (l *Local) Flush(ctx context.Context) error {
	for l.inFlight.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	if l.table.NumRetained() == 0 {
		return nil
	}

	done := make(chan struct{})
	l.inFlight.Store(true)
	l.snapshotAndSubmit(func() { close(done) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset discards any buffered, not-yet-propagated entries.
func (l *Local) Reset() {
	l.table.Reset()
}

// NumBuffered returns the number of hashes currently buffered locally,
// not yet propagated to the shared sketch.
func (l *Local) NumBuffered() uint32 { return l.table.NumRetained() }
