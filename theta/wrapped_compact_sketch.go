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
)

// WrappedCompactSketch provides read-only Sketch access directly over a
// serialized byte buffer, without copying retained hashes into a Go slice
// up front (C4's "wrap" form).
type WrappedCompactSketch struct {
	data *compactSketchData
}

// WrapCompactSketch wraps a serialized compact sketch buffer for reading.
func WrapCompactSketch(bytes []byte, seed uint64) (*WrappedCompactSketch, error) {
	data, err := decodeCompactSketch(bytes, seed)
	if err != nil {
		return nil, err
	}
	return &WrappedCompactSketch{data: &data}, nil
}

func (s *WrappedCompactSketch) IsEmpty() bool   { return s.data.isEmpty }
func (s *WrappedCompactSketch) IsOrdered() bool { return s.data.isOrdered }
func (s *WrappedCompactSketch) Theta64() uint64 { return s.data.theta }

func (s *WrappedCompactSketch) NumRetained() uint32 { return s.data.numEntries }

func (s *WrappedCompactSketch) SeedHash() (uint16, error) { return s.data.seedHash, nil }

func (s *WrappedCompactSketch) Theta() float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

func (s *WrappedCompactSketch) IsEstimationMode() bool {
	return s.Theta64() < MaxTheta && !s.data.isEmpty
}

func (s *WrappedCompactSketch) Estimate() float64 {
	if s.data.isEmpty {
		return 0
	}
	return float64(s.NumRetained()) / s.Theta()
}

func (s *WrappedCompactSketch) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *WrappedCompactSketch) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

// All lazily yields retained hashes directly from the underlying buffer
// rather than materializing the full entry slice.
func (s *WrappedCompactSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for i := uint32(0); i < s.data.numEntries; i++ {
			offset := s.data.entriesStartIdx + int(i)*8
			entry := uint64(s.data.bytes[offset]) |
				uint64(s.data.bytes[offset+1])<<8 |
				uint64(s.data.bytes[offset+2])<<16 |
				uint64(s.data.bytes[offset+3])<<24 |
				uint64(s.data.bytes[offset+4])<<32 |
				uint64(s.data.bytes[offset+5])<<40 |
				uint64(s.data.bytes[offset+6])<<48 |
				uint64(s.data.bytes[offset+7])<<56
			if !yield(entry) {
				return
			}
		}
	}
}

func (s *WrappedCompactSketch) String(shouldPrintItems bool) string {
	var b strings.Builder

	seedHash, _ := s.SeedHash()
	lb, _ := s.LowerBound(2)
	ub, _ := s.UpperBound(2)

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
