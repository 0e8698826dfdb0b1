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

import "slices"

// ANotB computes the set difference a \ b (C5): entries retained by a whose
// hash is below the combined theta and does not appear in b. Unlike Union
// and Intersection it is stateless — a single call, not an accumulator.
func ANotB(a, b Sketch, seed uint64, ordered bool) (*CompactSketch, error) {
	seedHash, err := seedHashOf(seed)
	if err != nil {
		return nil, err
	}

	if a == nil || a.IsEmpty() {
		return newCompactSketchFromEntries(true, true, seedHash, MaxTheta, nil), nil
	}
	if err := matchSeedHash(seed, a); err != nil {
		return nil, err
	}

	theta := a.Theta64()
	if b != nil && !b.IsEmpty() {
		if err := matchSeedHash(seed, b); err != nil {
			return nil, err
		}
		theta = min(theta, b.Theta64())
	}

	var entries []uint64
	if b == nil || b.IsEmpty() {
		entries = computeSortBased(a, nil, theta)
	} else if a.IsOrdered() && b.IsOrdered() {
		entries = computeSortBased(a, b, theta)
	} else {
		entries = computeHashBased(a, b, theta, seed)
	}

	// empty = A.empty (spec §4.5): a is guaranteed non-empty here since the
	// a.IsEmpty() case returned above, regardless of how many entries
	// survive the subtraction.
	if ordered {
		slices.Sort(entries)
	}

	return newCompactSketchFromEntries(false, ordered, seedHash, theta, entries), nil
}

// computeSortBased handles the case where b is absent/empty, or both a and b
// are already ordered: b's entries below theta go into a set (its scan stops
// at the first entry at or past theta), then one pass over a filters against it.
func computeSortBased(a, b Sketch, theta uint64) []uint64 {
	var exclude map[uint64]struct{}
	if b != nil {
		exclude = make(map[uint64]struct{}, b.NumRetained())
		for entry := range b.All() {
			if entry >= theta {
				break
			}
			exclude[entry] = struct{}{}
		}
	}

	var out []uint64
	for entry := range a.All() {
		if entry >= theta {
			break
		}
		if exclude != nil {
			if _, found := exclude[entry]; found {
				continue
			}
		}
		out = append(out, entry)
	}
	return out
}

// computeHashBased handles unordered inputs via a temporary scratch table
// built over b, screened against theta.
func computeHashBased(a, b Sketch, theta, seed uint64) []uint64 {
	lgSize := lgSizeFromCount(b.NumRetained(), quickSelectLoadFactor)
	scratch := NewHashtable(lgSize, lgSize-1, ResizeX1, 1.0, MaxTheta, seed, false, quickSelectLoadFactor)

	for entry := range b.All() {
		if entry < theta {
			index, _ := scratch.Find(entry)
			scratch.entries[index] = entry
		}
	}

	var out []uint64
	for entry := range a.All() {
		if entry >= theta {
			continue
		}
		if _, err := scratch.Find(entry); err == ErrKeyNotFound || err == ErrKeyNotFoundAndNoEmptySlots {
			out = append(out, entry)
		}
	}
	return out
}
