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
	"fmt"
	"iter"
	"strings"

	"github.com/thetasketches/thetasketch-go/internal/binomialbounds"
	"github.com/thetasketches/thetasketch-go/internal/hashing"
)

// ErrDuplicateKey is returned by Update* when the hashed value is already
// retained (P3: idempotence of update).
var ErrDuplicateKey = fmt.Errorf("duplicate key")

// ErrIgnored is returned by the convenience updaters for no-op inputs: empty
// byte/string values (spec §4.3, updatePrimitive).
var ErrIgnored = fmt.Errorf("ignored: empty input")

// updateSketchCore implements the read contract and update path shared by
// every update-sketch family over a *Hashtable; QuickSelectUpdateSketch and
// AlphaUpdateSketch embed it and differ only in construction and rebuild
// policy (carried by the table's loadFactor) plus an optional post-insert
// hook for Alpha's continuous theta adjustment.
type updateSketchCore struct {
	table    *Hashtable
	onInsert func(*Hashtable)
}

func (s *updateSketchCore) IsEmpty() bool { return s.table.isEmpty }

func (s *updateSketchCore) IsOrdered() bool { return s.table.numEntries <= 1 }

func (s *updateSketchCore) Theta64() uint64 {
	if s.IsEmpty() {
		return MaxTheta
	}
	return s.table.theta
}

func (s *updateSketchCore) NumRetained() uint32 { return s.table.numEntries }

func (s *updateSketchCore) SeedHash() (uint16, error) { return hashing.SeedHash(s.table.seed) }

func (s *updateSketchCore) Estimate() float64 {
	if s.IsEmpty() {
		return 0
	}
	return float64(s.NumRetained()) / s.Theta()
}

func (s *updateSketchCore) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *updateSketchCore) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *updateSketchCore) IsEstimationMode() bool {
	return s.Theta64() < MaxTheta && !s.IsEmpty()
}

func (s *updateSketchCore) Theta() float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

// LgK returns log2 of the configured nominal entries.
func (s *updateSketchCore) LgK() uint8 { return s.table.lgNomSize }

// ResizeFactor returns the table's configured growth step.
func (s *updateSketchCore) ResizeFactor() ResizeFactor { return s.table.rf }

func (s *updateSketchCore) updateKey(key uint64) error {
	index, err := s.table.Find(key)
	if err != nil {
		if err == ErrKeyNotFound {
			s.table.Insert(index, key)
			if s.onInsert != nil {
				s.onInsert(s.table)
			}
			return nil
		}
		return err
	}
	return ErrDuplicateKey
}

func (s *updateSketchCore) updateUint64(value uint64) error {
	key, err := s.table.HashUint64AndScreen(value)
	if err != nil {
		if err == ErrHashExceedsTheta {
			return nil
		}
		return err
	}
	return s.updateKey(key)
}

func (s *updateSketchCore) updateUint32(value uint32) error {
	key, err := s.table.HashUint32AndScreen(value)
	if err != nil {
		if err == ErrHashExceedsTheta {
			return nil
		}
		return err
	}
	return s.updateKey(key)
}

func (s *updateSketchCore) updateString(value string) error {
	if value == "" {
		return ErrIgnored
	}
	key, err := s.table.HashStringAndScreen(value)
	if err != nil {
		if err == ErrHashExceedsTheta {
			return nil
		}
		return err
	}
	return s.updateKey(key)
}

func (s *updateSketchCore) updateBytes(data []byte) error {
	if len(data) == 0 {
		return ErrIgnored
	}
	key, err := s.table.HashAndScreen(data)
	if err != nil {
		if err == ErrHashExceedsTheta {
			return nil
		}
		return err
	}
	return s.updateKey(key)
}

// Trim removes retained entries in excess of the nominal size k, if any.
func (s *updateSketchCore) Trim() { s.table.Trim() }

// Reset restores the sketch to its initial empty state.
func (s *updateSketchCore) Reset() { s.table.Reset() }

// Rebuild forces a rebuild even below threshold, ahead of emission.
func (s *updateSketchCore) Rebuild() { s.table.rebuild() }

// All iterates the retained hashes in table order.
func (s *updateSketchCore) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, entry := range s.table.entries {
			if entry != 0 {
				if !yield(entry) {
					return
				}
			}
		}
	}
}

// Compact snapshots the sketch into an immutable compact sketch.
func (s *updateSketchCore) Compact(ordered bool) *CompactSketch {
	return NewCompactSketch(s, ordered)
}

// CompactOrdered snapshots the sketch with its hashes sorted ascending.
func (s *updateSketchCore) CompactOrdered() *CompactSketch {
	return s.Compact(true)
}

func sketchSummary(s Sketch, shouldPrintItems bool, lgK, lgCurSize uint8, rf ResizeFactor) string {
	seedHash, _ := s.SeedHash()
	lb, _ := s.LowerBound(2)
	ub, _ := s.UpperBound(2)

	var b strings.Builder
	fmt.Fprintf(&b, "### Theta sketch summary:\n")
	fmt.Fprintf(&b, "   num retained entries : %d\n", s.NumRetained())
	fmt.Fprintf(&b, "   seed hash            : %d\n", seedHash)
	fmt.Fprintf(&b, "   empty?               : %t\n", s.IsEmpty())
	fmt.Fprintf(&b, "   ordered?             : %t\n", s.IsOrdered())
	fmt.Fprintf(&b, "   estimation mode?     : %t\n", s.IsEstimationMode())
	fmt.Fprintf(&b, "   theta (fraction)     : %f\n", s.Theta())
	fmt.Fprintf(&b, "   theta (raw 64-bit)   : %d\n", s.Theta64())
	fmt.Fprintf(&b, "   estimate             : %f\n", s.Estimate())
	fmt.Fprintf(&b, "   lower bound 95%% conf : %f\n", lb)
	fmt.Fprintf(&b, "   upper bound 95%% conf : %f\n", ub)
	fmt.Fprintf(&b, "   lg nominal size      : %d\n", lgK)
	fmt.Fprintf(&b, "   lg current size      : %d\n", lgCurSize)
	fmt.Fprintf(&b, "   resize factor        : %d\n", 1<<rf)
	fmt.Fprintf(&b, "### End sketch summary\n")

	if shouldPrintItems {
		fmt.Fprintf(&b, "### Retained entries\n")
		for hash := range s.All() {
			fmt.Fprintf(&b, "%d\n", hash)
		}
		fmt.Fprintf(&b, "### End retained entries\n")
	}
	return b.String()
}

// QuickSelectUpdateSketch is the primary update-sketch family: it streams
// items into a hash table, enforces the theta invariant by growing up to
// lgNomLongs+1 and then rebuilding (partial quickselect) to shed excess
// entries.
type QuickSelectUpdateSketch struct {
	updateSketchCore
}

type updateSketchOptions struct {
	theta     uint64
	seed      uint64
	p         float32
	lgCurSize uint8
	lgK       uint8
	rf        ResizeFactor
}

// UpdateSketchOptionFunc configures a QuickSelectUpdateSketch or
// AlphaUpdateSketch.
type UpdateSketchOptionFunc func(*updateSketchOptions)

// WithUpdateSketchLgK sets log2(k), the nominal number of retained entries.
func WithUpdateSketchLgK(lgK uint8) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.lgK = lgK }
}

// WithUpdateSketchResizeFactor sets the hash table's growth step (default 8).
func WithUpdateSketchResizeFactor(rf ResizeFactor) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.rf = rf }
}

// WithUpdateSketchP sets the sampling probability (initial theta). Default 1
// retains everything until the sketch enters estimation mode.
func WithUpdateSketchP(p float32) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.p = p }
}

// WithUpdateSketchSeed sets the hash seed. Sketches built with different
// seeds cannot be combined in set operations (I5).
func WithUpdateSketchSeed(seed uint64) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.seed = seed }
}

func resolveUpdateSketchOptions(opts ...UpdateSketchOptionFunc) (*updateSketchOptions, error) {
	options := &updateSketchOptions{
		lgK:  DefaultLgK,
		rf:   DefaultResizeFactor,
		p:    1.0,
		seed: DefaultSeed,
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := validateLgKAndP(options.lgK, options.p); err != nil {
		return nil, err
	}
	options.lgCurSize = startingSubMultiple(options.lgK+1, MinLgK, uint8(options.rf))
	options.theta = startingThetaFromP(options.p)
	return options, nil
}

// NewQuickSelectUpdateSketch builds a QuickSelect update sketch.
func NewQuickSelectUpdateSketch(opts ...UpdateSketchOptionFunc) (*QuickSelectUpdateSketch, error) {
	options, err := resolveUpdateSketchOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &QuickSelectUpdateSketch{
		updateSketchCore: updateSketchCore{
			table: NewHashtable(options.lgCurSize, options.lgK, options.rf, options.p, options.theta, options.seed, true, quickSelectLoadFactor),
		},
	}, nil
}

func (s *QuickSelectUpdateSketch) String(shouldPrintItems bool) string {
	return sketchSummary(s, shouldPrintItems, s.LgK(), s.table.lgCurSize, s.ResizeFactor())
}

func (s *QuickSelectUpdateSketch) UpdateUint64(value uint64) error { return s.updateUint64(value) }
func (s *QuickSelectUpdateSketch) UpdateInt64(value int64) error   { return s.updateUint64(uint64(value)) }
func (s *QuickSelectUpdateSketch) UpdateUint32(value uint32) error { return s.updateUint32(value) }
func (s *QuickSelectUpdateSketch) UpdateInt32(value int32) error   { return s.updateUint32(uint32(value)) }
func (s *QuickSelectUpdateSketch) UpdateUint16(value uint16) error { return s.updateUint32(uint32(value)) }
func (s *QuickSelectUpdateSketch) UpdateInt16(value int16) error   { return s.updateUint32(uint32(int32(value))) }
func (s *QuickSelectUpdateSketch) UpdateUint8(value uint8) error   { return s.updateUint32(uint32(value)) }
func (s *QuickSelectUpdateSketch) UpdateInt8(value int8) error     { return s.updateUint32(uint32(int32(value))) }

// UpdateFloat64 hashes a double after canonicalizing -0.0 and NaN so equal
// values always hash identically.
func (s *QuickSelectUpdateSketch) UpdateFloat64(value float64) error {
	return s.updateUint64(hashing.CanonicalDoubleBits(value))
}

// UpdateFloat32 widens to float64 before hashing.
func (s *QuickSelectUpdateSketch) UpdateFloat32(value float32) error {
	return s.UpdateFloat64(float64(value))
}

// UpdateString hashes a string; an empty string is a no-op (IGNORED).
func (s *QuickSelectUpdateSketch) UpdateString(value string) error { return s.updateString(value) }

// UpdateBytes hashes raw bytes; an empty slice is a no-op (IGNORED).
func (s *QuickSelectUpdateSketch) UpdateBytes(data []byte) error { return s.updateBytes(data) }

// ToByteArray serializes the sketch using the update-sketch wire layout
// (spec §6: preambleLongs 3, the full hash array).
func (s *QuickSelectUpdateSketch) ToByteArray() ([]byte, error) {
	return encodeUpdateSketch(uint8(FamilyQuickSelect), s.table)
}
