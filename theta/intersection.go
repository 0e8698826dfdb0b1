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

// Intersection accumulates sketches into their set intersection (C5). It is
// a three-state machine (§4.5): VIRGIN (no update yet), EMPTY_SET (the running
// intersection has collapsed to nothing), and NON_EMPTY. Calling Result
// before any Update is an illegal-state error; a virgin intersection fed a
// nil sketch collapses directly to EMPTY_SET (an intersection with "nothing"
// is nothing).
type Intersection struct {
	policy    Policy
	table     *Hashtable
	seed      uint64
	theta     uint64
	isEmpty   bool
	isValid   bool // true once at least one Update has run
	firstCall bool
}

// NewIntersection builds an intersection accumulator seeded for hashing.
func NewIntersection(seed uint64, policy Policy) *Intersection {
	if policy == nil {
		policy = &noopPolicy{}
	}
	return &Intersection{
		policy:    policy,
		seed:      seed,
		theta:     MaxTheta,
		firstCall: true,
	}
}

// Update folds sketch into the running intersection.
func (i *Intersection) Update(sketch Sketch) error {
	if i.isValid && i.isEmpty {
		return nil // already collapsed to EMPTY_SET; further updates are no-ops
	}

	if sketch == nil || sketch.IsEmpty() {
		i.isValid = true
		i.isEmpty = true
		i.table = nil
		i.firstCall = false
		return nil
	}

	if err := matchSeedHash(i.seed, sketch); err != nil {
		return err
	}

	i.theta = min(i.theta, sketch.Theta64())

	if i.firstCall {
		i.firstCall = false
		i.isValid = true

		count := sketch.NumRetained()
		lgSize := lgSizeFromCount(count, quickSelectLoadFactor)
		i.table = NewHashtable(lgSize, lgSize-1, ResizeX1, 1.0, MaxTheta, i.seed, false, quickSelectLoadFactor)

		for entry := range sketch.All() {
			if entry < i.theta {
				outcome, err := i.table.InsertIfUnique(entry)
				if err != nil {
					return err
				}
				if outcome == Duplicate {
					return corruptf("duplicate key, possibly corrupted input sketch")
				}
			}
		}
		return nil
	}

	i.intersectAgainst(sketch)
	return nil
}

// intersectAgainst retains only entries present in both the running table
// and sketch, screened against the latest theta.
func (i *Intersection) intersectAgainst(sketch Sketch) {
	present := make(map[uint64]struct{}, sketch.NumRetained())
	for entry := range sketch.All() {
		if entry < i.theta {
			present[entry] = struct{}{}
		}
	}

	kept := make([]uint64, 0, len(i.table.entries))
	for idx, existing := range i.table.entries {
		if existing == 0 || existing >= i.theta {
			continue
		}
		if _, ok := present[existing]; ok {
			i.policy.Apply(&i.table.entries[idx], existing)
			kept = append(kept, i.table.entries[idx])
		}
	}

	lgSize := lgSizeFromCount(uint32(len(kept)), quickSelectLoadFactor)
	newTable := NewHashtable(lgSize, lgSize-1, ResizeX1, 1.0, MaxTheta, i.seed, false, quickSelectLoadFactor)
	for _, entry := range kept {
		index, _ := newTable.Find(entry)
		newTable.entries[index] = entry
		newTable.numEntries++
	}
	// A zero-count result here is a true intersection of two non-empty
	// inputs that happen to share nothing, not the EMPTY_SET state: the
	// empty flag stays false so lower-bound estimation still applies
	// (spec §4.5, distinguishing "empty" from "zero retained").
	i.table = newTable
}

// HasResult reports whether at least one Update has been applied.
func (i *Intersection) HasResult() bool { return i.isValid }

// Result compacts the running intersection. Calling it before any Update
// is an illegal-state error (spec §4.5).
func (i *Intersection) Result(ordered bool) (*CompactSketch, error) {
	if !i.isValid {
		return nil, illegalStatef("get result called before update")
	}

	seedHash, err := seedHashOf(i.seed)
	if err != nil {
		return nil, err
	}

	if i.isEmpty || i.table == nil {
		return newCompactSketchFromEntries(true, true, seedHash, MaxTheta, nil), nil
	}

	var entries []uint64
	for _, e := range i.table.entries {
		if e != 0 {
			entries = append(entries, e)
		}
	}
	if ordered {
		slices.Sort(entries)
	}

	return newCompactSketchFromEntries(false, ordered, seedHash, i.theta, entries), nil
}

// OrderedResult compacts the intersection with its hashes sorted ascending.
func (i *Intersection) OrderedResult() (*CompactSketch, error) { return i.Result(true) }

// Policy returns the policy applied on matched entries.
func (i *Intersection) Policy() Policy { return i.policy }
