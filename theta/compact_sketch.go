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
	"bytes"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/thetasketches/thetasketch-go/internal/binomialbounds"
)

// UncompressedSerialVersion is the writer's current serial version for
// compact sketches (SerVer 3).
const UncompressedSerialVersion = 3

// CompactSketchType is the family byte for a compact sketch.
const CompactSketchType = uint8(FamilyCompact)

// Offsets in sizeof(type), per §4.1/§6.
const (
	compactSketchPreLongsByte         = 0
	compactSketchSerialVersionByte    = 1
	compactSketchTypeByte             = 2
	compactSketchFlagsByte            = 5
	compactSketchSeedHashU16          = 3
	compactSketchSingleEntryU64       = 1
	compactSketchNumEntriesU32        = 2
	compactSketchEntriesExactU64      = 2
	compactSketchEntriesEstimationU64 = 3
	compactSketchThetaU64             = 2
)

// Serialization flag bit positions.
const (
	serializationFlagIsBigEndian uint8 = iota
	serializationFlagIsReadOnly
	serializationFlagIsEmpty
	serializationFlagIsCompact
	serializationFlagIsOrdered
)

// CompactSketch is the immutable snapshot form of a theta sketch (C4): a
// densely packed array of retained hashes plus theta, empty, and ordered
// flags.
type CompactSketch struct {
	entries   []uint64
	theta     uint64
	seedHash  uint16
	isEmpty   bool
	isOrdered bool
}

// NewCompactSketch snapshots source into a compact sketch, sorting its
// hashes ascending if ordered is requested and the source isn't already.
func NewCompactSketch(source Sketch, ordered bool) *CompactSketch {
	isEmpty := source.IsEmpty()
	sourceOrdered := source.IsOrdered()
	seedHash, _ := source.SeedHash()
	theta := source.Theta64()

	var entries []uint64
	if !isEmpty {
		for entry := range source.All() {
			entries = append(entries, entry)
		}
		if ordered && !sourceOrdered {
			slices.Sort(entries)
		}
	}

	return &CompactSketch{
		isEmpty:   isEmpty,
		isOrdered: sourceOrdered || ordered,
		seedHash:  seedHash,
		theta:     theta,
		entries:   entries,
	}
}

func newCompactSketchFromEntries(isEmpty, isOrdered bool, seedHash uint16, theta uint64, entries []uint64) *CompactSketch {
	if len(entries) <= 1 {
		isOrdered = true
	}
	return &CompactSketch{
		isEmpty:   isEmpty,
		isOrdered: isOrdered,
		seedHash:  seedHash,
		theta:     theta,
		entries:   entries,
	}
}

func (s *CompactSketch) IsEmpty() bool   { return s.isEmpty }
func (s *CompactSketch) IsOrdered() bool { return s.isOrdered }
func (s *CompactSketch) Theta64() uint64 { return s.theta }

func (s *CompactSketch) NumRetained() uint32 { return uint32(len(s.entries)) }

func (s *CompactSketch) SeedHash() (uint16, error) { return s.seedHash, nil }

func (s *CompactSketch) Estimate() float64 {
	if s.isEmpty {
		return 0
	}
	return float64(s.NumRetained()) / s.Theta()
}

func (s *CompactSketch) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(len(s.entries)), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *CompactSketch) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(len(s.entries)), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *CompactSketch) IsEstimationMode() bool {
	return s.Theta64() < MaxTheta && !s.isEmpty
}

func (s *CompactSketch) Theta() float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

func (s *CompactSketch) String(shouldPrintItems bool) string {
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
	fmt.Fprintf(&b, "### End sketch summary\n")

	if shouldPrintItems {
		fmt.Fprintf(&b, "### Retained entries\n")
		for entry := range s.All() {
			fmt.Fprintf(&b, "%d\n", entry)
		}
		fmt.Fprintf(&b, "### End retained entries\n")
	}
	return b.String()
}

func (s *CompactSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, entry := range s.entries {
			if !yield(entry) {
				return
			}
		}
	}
}

// Equal implements P4/P5's notion of sketch equality: same (empty, theta,
// retained hashes as a multiset).
func (s *CompactSketch) Equal(other *CompactSketch) bool {
	if s.isEmpty != other.isEmpty || s.theta != other.theta || len(s.entries) != len(other.entries) {
		return false
	}
	a := slices.Clone(s.entries)
	b := slices.Clone(other.entries)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *CompactSketch) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *CompactSketch) preambleLongs() uint8 {
	if s.IsEstimationMode() {
		return 3
	}
	if s.isEmpty || len(s.entries) == 1 {
		return 1
	}
	return 2
}

// MaxSerializedSizeBytes returns the maximum serialized size for a sketch
// built with the given lgK.
func MaxSerializedSizeBytes(lgK uint8) int {
	table := NewHashtable(lgK+1, lgK, ResizeX1, 1.0, MaxTheta, DefaultSeed, true, quickSelectLoadFactor)
	capacity := table.computeCapacity()
	return 8 * (3 + int(capacity))
}

// SerializedSizeBytes computes the number of bytes required to serialize
// the sketch's current state.
func (s *CompactSketch) SerializedSizeBytes() int {
	return int(s.preambleLongs())*8 + len(s.entries)*8
}
