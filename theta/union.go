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

package theta

import (
	"slices"

	"github.com/thetasketches/thetasketch-go/internal/quickselect"
)

// Union accumulates sketches into their set union (C5): an inner update
// sketch of nominal size k_union, plus an independent unionTheta cap that
// tracks the minimum theta seen across all inputs. The result is trimmed to
// the union's own k; the nominal k of the input sketches is not tracked.
type Union struct {
	policy    Policy
	hashtable *Hashtable
	theta     uint64
}

type unionOptions struct {
	theta     uint64
	seed      uint64
	p         float32
	lgCurSize uint8
	lgK       uint8
	rf        ResizeFactor
	policy    Policy
}

// UnionOptionFunc configures a Union.
type UnionOptionFunc func(*unionOptions)

// WithUnionLgK sets log2(k) for the union's inner sketch.
func WithUnionLgK(lgK uint8) UnionOptionFunc {
	return func(opts *unionOptions) { opts.lgK = lgK }
}

// WithUnionResizeFactor sets the inner table's growth step (default 8).
func WithUnionResizeFactor(rf ResizeFactor) UnionOptionFunc {
	return func(opts *unionOptions) { opts.rf = rf }
}

// WithUnionSketchP sets the inner sketch's sampling probability.
func WithUnionSketchP(p float32) UnionOptionFunc {
	return func(opts *unionOptions) { opts.p = p }
}

// WithUnionSeed sets the hash seed; unions built with different seeds
// cannot be mixed with sketches hashed under another seed.
func WithUnionSeed(seed uint64) UnionOptionFunc {
	return func(opts *unionOptions) { opts.seed = seed }
}

// WithUnionPolicy sets the policy applied when an incoming hash matches an
// entry already retained by the union.
func WithUnionPolicy(policy Policy) UnionOptionFunc {
	return func(opts *unionOptions) { opts.policy = policy }
}

// NewUnion builds a union accumulator.
func NewUnion(opts ...UnionOptionFunc) (*Union, error) {
	options := &unionOptions{
		lgK:    DefaultLgK,
		rf:     DefaultResizeFactor,
		p:      1.0,
		seed:   DefaultSeed,
		policy: &noopPolicy{},
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := validateLgKAndP(options.lgK, options.p); err != nil {
		return nil, err
	}

	options.lgCurSize = startingSubMultiple(options.lgK+1, MinLgK, uint8(options.rf))
	options.theta = startingThetaFromP(options.p)

	table := NewHashtable(options.lgCurSize, options.lgK, options.rf, options.p, options.theta, options.seed, true, quickSelectLoadFactor)

	return &Union{
		hashtable: table,
		policy:    options.policy,
		theta:     table.theta,
	}, nil
}

// Update folds sketch into the union (spec §4.5, Union.update): empty
// inputs are a no-op; theta is the running minimum across inputs; ordered
// inputs allow early termination once a hash falls outside unionTheta.
func (u *Union) Update(sketch Sketch) error {
	if sketch == nil || sketch.IsEmpty() {
		return nil
	}

	if err := matchSeedHash(u.hashtable.seed, sketch); err != nil {
		return err
	}

	u.hashtable.isEmpty = false
	u.theta = min(u.theta, sketch.Theta64())

	for entry := range sketch.All() {
		if entry < u.theta && entry < u.hashtable.theta {
			index, err := u.hashtable.Find(entry)
			if err != nil {
				if err == ErrKeyNotFound {
					u.hashtable.Insert(index, entry)
					continue
				}
				return err
			}
			u.policy.Apply(&u.hashtable.entries[index], entry)
		} else if sketch.IsOrdered() {
			break
		}
	}

	u.theta = min(u.theta, u.hashtable.theta)
	return nil
}

// Result compacts the union's current state, capped by unionTheta.
func (u *Union) Result(ordered bool) (*CompactSketch, error) {
	seedHash, err := seedHashOf(u.hashtable.seed)
	if err != nil {
		return nil, err
	}

	if u.hashtable.isEmpty {
		return newCompactSketchFromEntries(true, true, seedHash, u.theta, nil), nil
	}

	var entries []uint64
	theta := min(u.theta, u.hashtable.theta)
	nominalNum := uint32(1) << u.hashtable.lgNomSize

	for _, entry := range u.hashtable.entries {
		if entry != 0 && (u.theta >= u.hashtable.theta || entry < theta) {
			entries = append(entries, entry)
		}
	}

	if uint32(len(entries)) > nominalNum {
		quickselect.Select(entries, 0, len(entries)-1, int(nominalNum))
		theta = entries[nominalNum]
		entries = entries[:nominalNum]
	}

	if ordered {
		slices.Sort(entries)
	}

	return newCompactSketchFromEntries(u.hashtable.isEmpty, ordered, seedHash, theta, entries), nil
}

// OrderedResult compacts the union with its hashes sorted ascending.
func (u *Union) OrderedResult() (*CompactSketch, error) { return u.Result(true) }

// Reset restores the union to its initial empty state.
func (u *Union) Reset() {
	u.hashtable.Reset()
	u.theta = u.hashtable.theta
}

// Policy returns the policy used on matched entries.
func (u *Union) Policy() Policy { return u.policy }
