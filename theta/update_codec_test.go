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

// P4: heapify(toByteArray(s)) === s for every sketch variant.
func TestQuickSelectUpdateSketchHeapifyRoundTrip(t *testing.T) {
	original, err := NewQuickSelectUpdateSketch(WithUpdateSketchLgK(10))
	require.NoError(t, err)
	for i := 0; i < 5000; i++ {
		require.NoError(t, original.UpdateUint64(uint64(i)))
	}

	data, err := original.ToByteArray()
	require.NoError(t, err)

	restored, err := HeapifyQuickSelectUpdateSketch(data, DefaultSeed)
	require.NoError(t, err)

	assert.Equal(t, original.NumRetained(), restored.NumRetained())
	assert.Equal(t, original.Theta64(), restored.Theta64())
	assert.Equal(t, original.IsEmpty(), restored.IsEmpty())
	assert.InDelta(t, original.Estimate(), restored.Estimate(), 0.0001)

	originalSeedHash, _ := original.SeedHash()
	restoredSeedHash, _ := restored.SeedHash()
	assert.Equal(t, originalSeedHash, restoredSeedHash)
}

func TestQuickSelectUpdateSketchHeapifyRoundTripVirgin(t *testing.T) {
	original, err := NewQuickSelectUpdateSketch()
	require.NoError(t, err)

	data, err := original.ToByteArray()
	require.NoError(t, err)
	assert.Len(t, data, 8)

	restored, err := HeapifyQuickSelectUpdateSketch(data, DefaultSeed)
	require.NoError(t, err)
	assert.True(t, restored.IsEmpty())
}

func TestAlphaUpdateSketchHeapifyRoundTrip(t *testing.T) {
	original, err := NewAlphaUpdateSketch(WithUpdateSketchLgK(10))
	require.NoError(t, err)
	for i := 0; i < 5000; i++ {
		require.NoError(t, original.UpdateUint64(uint64(i)))
	}

	data, err := original.ToByteArray()
	require.NoError(t, err)

	restored, err := HeapifyAlphaUpdateSketch(data, DefaultSeed)
	require.NoError(t, err)

	assert.Equal(t, original.NumRetained(), restored.NumRetained())
	assert.InDelta(t, original.Estimate(), restored.Estimate(), 0.0001)
}

func TestHeapifyQuickSelectUpdateSketchWrongFamilyIsRejected(t *testing.T) {
	alpha, err := NewAlphaUpdateSketch(WithUpdateSketchLgK(8))
	require.NoError(t, err)
	require.NoError(t, alpha.UpdateUint64(1))

	data, err := alpha.ToByteArray()
	require.NoError(t, err)

	_, err = HeapifyQuickSelectUpdateSketch(data, DefaultSeed)
	assert.Error(t, err)
}

func TestHeapifyUpdateSketchWrongSeedIsRejected(t *testing.T) {
	original, err := NewQuickSelectUpdateSketch(WithUpdateSketchSeed(1234))
	require.NoError(t, err)
	require.NoError(t, original.UpdateUint64(1))

	data, err := original.ToByteArray()
	require.NoError(t, err)

	_, err = HeapifyQuickSelectUpdateSketch(data, DefaultSeed)
	assert.Error(t, err)
}
