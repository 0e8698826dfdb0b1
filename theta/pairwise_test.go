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

func orderedCompact(t *testing.T, lgK uint8, from, to int) *CompactSketch {
	t.Helper()
	return buildUpdateSketch(t, lgK, from, to).CompactOrdered()
}

func TestPairwiseOperationsRejectUnorderedInputs(t *testing.T) {
	unordered := buildUpdateSketch(t, 10, 0, 500)
	ordered := orderedCompact(t, 10, 0, 500)

	_, err := PairwiseUnion(unordered, ordered, 10, DefaultSeed, true)
	assert.Error(t, err)

	_, err = PairwiseIntersect(unordered, ordered, DefaultSeed, true)
	assert.Error(t, err)

	_, err = PairwiseANotB(unordered, ordered, DefaultSeed, true)
	assert.Error(t, err)
}

func TestPairwiseUnionMatchesAccumulator(t *testing.T) {
	a := orderedCompact(t, 10, 0, 2048)
	b := orderedCompact(t, 10, 1024, 3072)

	direct, err := PairwiseUnion(a, b, 10, DefaultSeed, true)
	require.NoError(t, err)

	u, err := NewUnion(WithUnionLgK(10))
	require.NoError(t, err)
	require.NoError(t, u.Update(a))
	require.NoError(t, u.Update(b))
	accumulated, err := u.Result(true)
	require.NoError(t, err)

	assert.InDelta(t, accumulated.Estimate(), direct.Estimate(), 0.0001)
}

func TestPairwiseIntersectMatchesAccumulator(t *testing.T) {
	a := orderedCompact(t, 10, 0, 2048)
	b := orderedCompact(t, 10, 1024, 3072)

	direct, err := PairwiseIntersect(a, b, DefaultSeed, true)
	require.NoError(t, err)

	i := NewIntersection(DefaultSeed, nil)
	require.NoError(t, i.Update(a))
	require.NoError(t, i.Update(b))
	accumulated, err := i.Result(true)
	require.NoError(t, err)

	assert.InDelta(t, accumulated.Estimate(), direct.Estimate(), 0.0001)
}

func TestPairwiseANotBMatchesANotB(t *testing.T) {
	a := orderedCompact(t, 10, 0, 2048)
	b := orderedCompact(t, 10, 1024, 3072)

	direct, err := PairwiseANotB(a, b, DefaultSeed, true)
	require.NoError(t, err)

	reference, err := ANotB(a, b, DefaultSeed, true)
	require.NoError(t, err)

	assert.InDelta(t, reference.Estimate(), direct.Estimate(), 0.0001)
}

func TestPairwiseOperationsToleratesNilAndEmpty(t *testing.T) {
	a := orderedCompact(t, 10, 0, 100)

	_, err := PairwiseUnion(a, nil, 10, DefaultSeed, true)
	assert.NoError(t, err)

	_, err = PairwiseIntersect(a, nil, DefaultSeed, true)
	assert.NoError(t, err)

	_, err = PairwiseANotB(a, nil, DefaultSeed, true)
	assert.NoError(t, err)
}
