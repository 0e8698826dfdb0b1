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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// P8: aNotB(A, A).estimate == 0.
func TestANotBOfSketchWithItselfIsZero(t *testing.T) {
	a := buildUpdateSketch(t, 10, 0, 1000)

	result, err := ANotB(a, a, DefaultSeed, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Estimate())
	assert.False(t, result.IsEmpty(), "empty must stay false: A itself is non-empty (spec §4.5)")
}

// P8: aNotB(A, empty) === A.
func TestANotBOfSketchAndEmptyEqualsSketch(t *testing.T) {
	a := buildUpdateSketch(t, 10, 0, 1000)

	result, err := ANotB(a, nil, DefaultSeed, true)
	require.NoError(t, err)
	assert.Equal(t, a.Estimate(), result.Estimate())
	assert.Equal(t, a.NumRetained(), result.NumRetained())
}

func TestANotBOfEmptyAIsEmpty(t *testing.T) {
	b := buildUpdateSketch(t, 10, 0, 1000)

	result, err := ANotB(nil, b, DefaultSeed, true)
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

// S3: k=1024, A on 0..2047, B on 1024..3071; A-not-B within 5% of 1024.
func TestANotBWithinFivePercentOfTrueCardinality(t *testing.T) {
	const lgK = 10
	a := buildUpdateSketch(t, lgK, 0, 2048)
	b := buildUpdateSketch(t, lgK, 1024, 3072)

	result, err := ANotB(a, b, DefaultSeed, true)
	require.NoError(t, err)
	assert.InDelta(t, 1024.0, result.Estimate(), 1024.0*0.05)
}

func TestANotBUnorderedInputsTakesHashBasedPath(t *testing.T) {
	a := buildUpdateSketch(t, 10, 0, 500)
	b := buildUpdateSketch(t, 10, 250, 750)

	// Neither input is ordered: update sketches with >1 retained entry never
	// are, so this exercises computeHashBased rather than computeSortBased.
	assert.False(t, a.IsOrdered())
	assert.False(t, b.IsOrdered())

	result, err := ANotB(a, b, DefaultSeed, false)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, result.Estimate(), 250.0*0.1)
}

func TestANotBOrderedResultIsSorted(t *testing.T) {
	a := buildUpdateSketch(t, 10, 0, 200)
	b := buildUpdateSketch(t, 10, 100, 150)

	result, err := ANotB(a, b, DefaultSeed, true)
	require.NoError(t, err)

	var previous uint64
	first := true
	for h := range result.All() {
		if !first {
			assert.Less(t, previous, h)
		}
		previous = h
		first = false
	}
}
