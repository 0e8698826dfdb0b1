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

// PairwiseUnion computes the union of two ordered compact sketches directly,
// without an accumulator, trimming the result to lgK's nominal size the same
// way Union.Result does. Both inputs must already be ordered; this is a
// cheap alternative to building a Union when only two sketches are being
// combined.
func PairwiseUnion(a, b Sketch, lgK uint8, seed uint64, ordered bool) (*CompactSketch, error) {
	if err := requireOrderedPair(a, b); err != nil {
		return nil, err
	}

	u, err := NewUnion(WithUnionLgK(lgK), WithUnionSeed(seed))
	if err != nil {
		return nil, err
	}
	if err := u.Update(a); err != nil {
		return nil, err
	}
	if err := u.Update(b); err != nil {
		return nil, err
	}
	return u.Result(ordered)
}

// PairwiseIntersect computes the intersection of two ordered compact
// sketches directly.
func PairwiseIntersect(a, b Sketch, seed uint64, ordered bool) (*CompactSketch, error) {
	if err := requireOrderedPair(a, b); err != nil {
		return nil, err
	}

	inter := NewIntersection(seed, nil)
	if err := inter.Update(a); err != nil {
		return nil, err
	}
	if err := inter.Update(b); err != nil {
		return nil, err
	}
	return inter.Result(ordered)
}

// PairwiseANotB computes a \ b for two ordered compact sketches directly.
// It is contract-equivalent to ANotB but requires ordered inputs, which lets
// it skip the hash-based scratch table entirely.
func PairwiseANotB(a, b Sketch, seed uint64, ordered bool) (*CompactSketch, error) {
	if err := requireOrderedPair(a, b); err != nil {
		return nil, err
	}
	return ANotB(a, b, seed, ordered)
}

func requireOrderedPair(a, b Sketch) error {
	if a != nil && !a.IsEmpty() && !a.IsOrdered() {
		return invalidArgumentf("pairwise operations require ordered inputs")
	}
	if b != nil && !b.IsEmpty() && !b.IsOrdered() {
		return invalidArgumentf("pairwise operations require ordered inputs")
	}
	return nil
}
