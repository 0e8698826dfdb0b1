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

package thetaconcurrent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalRejectsNilShared(t *testing.T) {
	_, err := NewLocal(nil)
	assert.Error(t, err)
}

func TestNewLocalRejectsBadMaxConcurrencyError(t *testing.T) {
	shared, err := NewShared()
	require.NoError(t, err)
	defer shared.Shutdown(context.Background())

	_, err = NewLocal(shared, WithMaxConcurrencyError(1.0))
	assert.Error(t, err)

	_, err = NewLocal(shared, WithMaxConcurrencyError(-0.1))
	assert.Error(t, err)
}

func TestLocalAutoPropagatesAtThreshold(t *testing.T) {
	shared, err := NewShared(WithSharedLgK(12))
	require.NoError(t, err)
	defer shared.Shutdown(context.Background())

	local, err := NewLocal(shared, WithLocalLgK(4), WithMaxConcurrencyError(0.0))
	require.NoError(t, err)

	// threshold == k == 16 when maxConcurrencyError is 0.
	for i := 0; i < 16; i++ {
		require.NoError(t, local.UpdateUint64(uint64(i)))
	}

	// propagate() is asynchronous past the CAS; give the executor a beat.
	deadline := time.Now().Add(2 * time.Second)
	for (local.NumBuffered() != 0 || shared.IsEmpty()) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	assert.Equal(t, uint32(0), local.NumBuffered())
	assert.False(t, shared.IsEmpty())
}

func TestLocalFlushIsNoopWhenEmpty(t *testing.T) {
	shared, err := NewShared()
	require.NoError(t, err)
	defer shared.Shutdown(context.Background())

	local, err := NewLocal(shared)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, local.Flush(ctx))
	assert.True(t, shared.IsEmpty())
}

func TestLocalScreensAgainstVolatileTheta(t *testing.T) {
	shared, err := NewShared(WithSharedP(1e-9))
	require.NoError(t, err)
	defer shared.Shutdown(context.Background())

	local, err := NewLocal(shared, WithLocalLgK(4))
	require.NoError(t, err)

	for i := 0; i < 16; i++ {
		require.NoError(t, local.UpdateUint64(uint64(i)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, local.Flush(ctx))

	// With p this small, essentially every hash is screened out before it
	// is ever retained locally; the shared sketch should stay empty rather
	// than accumulate entries that were never below its starting theta.
	assert.True(t, shared.IsEmpty())
}

func TestLocalResetDiscardsBufferedEntries(t *testing.T) {
	shared, err := NewShared()
	require.NoError(t, err)
	defer shared.Shutdown(context.Background())

	local, err := NewLocal(shared, WithLocalLgK(6), WithMaxConcurrencyError(0.5))
	require.NoError(t, err)

	require.NoError(t, local.UpdateUint64(1))
	require.NoError(t, local.UpdateUint64(2))
	assert.Equal(t, uint32(2), local.NumBuffered())

	local.Reset()
	assert.Equal(t, uint32(0), local.NumBuffered())
}
