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

// Package theta implements the KMV/Theta cardinality sketch: update
// sketches (QuickSelect and Alpha), immutable compact snapshots, and the
// union/intersection/A-not-B set-operation engine over them.
package theta

import "iter"

// Sketch is the read-only contract shared by every theta sketch variant:
// update sketches, compact sketches (heap or foreign-memory backed), and
// set-operation results.
type Sketch interface {
	// IsEmpty reports whether this sketch represents the empty set. This is
	// distinct from having zero retained entries: a non-empty sketch whose
	// theta has collapsed its retained set to nothing is not "empty".
	IsEmpty() bool

	// Estimate returns the sketch's estimate of the input stream's
	// distinct count.
	Estimate() float64

	// LowerBound returns the approximate lower confidence bound for
	// numStdDevs standard deviations (1, 2 or 3), corresponding roughly to
	// the 67%, 95% and 99% confidence intervals.
	LowerBound(numStdDevs uint8) (float64, error)

	// UpperBound returns the approximate upper confidence bound for
	// numStdDevs standard deviations (1, 2 or 3).
	UpperBound(numStdDevs uint8) (float64, error)

	// IsEstimationMode reports whether the sketch has left exact mode,
	// i.e. theta has shrunk below its initial value.
	IsEstimationMode() bool

	// Theta returns theta as a fraction in (0, 1].
	Theta() float64

	// Theta64 returns theta as a raw integer in [1, 2^63 - 1].
	Theta64() uint64

	// NumRetained returns the number of retained hashes.
	NumRetained() uint32

	// SeedHash returns the 16-bit fingerprint of the update seed used to
	// hash this sketch's inputs.
	SeedHash() (uint16, error)

	// IsOrdered reports whether retained entries iterate in ascending
	// order.
	IsOrdered() bool

	// String renders a human-readable summary; if shouldPrintItems is
	// true, the retained hashes are listed too.
	String(shouldPrintItems bool) string

	// All iterates the retained hashes, ascending if IsOrdered, in table
	// order otherwise.
	All() iter.Seq[uint64]
}
