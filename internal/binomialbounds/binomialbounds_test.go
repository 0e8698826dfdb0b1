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

package binomialbounds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerBound(t *testing.T) {
	testCases := []struct {
		name         string
		numSamples   uint64
		theta        float64
		numStdDevs   uint
		wantErrorMsg string
		validate     func(t *testing.T, result float64)
	}{
		{
			name:       "numSamples == 0",
			numSamples: 0,
			theta:      0.5,
			numStdDevs: 1,
			validate: func(t *testing.T, result float64) {
				assert.Zero(t, result)
			},
		},
		{
			name:       "theta == 1.0 returns numSamples exactly",
			numSamples: 100,
			theta:      1.0,
			numStdDevs: 1,
			validate: func(t *testing.T, result float64) {
				assert.Equal(t, 100.0, result)
			},
		},
		{
			name:       "theta == 1.0 ignores numStdDevs",
			numSamples: 100,
			theta:      1.0,
			numStdDevs: 3,
			validate: func(t *testing.T, result float64) {
				assert.Equal(t, 100.0, result)
			},
		},
		{
			name:       "estimation mode, stddev=1",
			numSamples: 500,
			theta:      0.1,
			numStdDevs: 1,
			validate: func(t *testing.T, result float64) {
				estimate := 500.0 / 0.1
				assert.Less(t, result, estimate)
				assert.GreaterOrEqual(t, result, 0.0)
			},
		},
		{
			name:       "estimation mode, stddev=2 is tighter than stddev=3",
			numSamples: 500,
			theta:      0.1,
			numStdDevs: 2,
			validate: func(t *testing.T, result float64) {
				three, err := LowerBound(500, 0.1, 3)
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, result, three)
			},
		},
		{
			name:       "clamps at zero rather than going negative",
			numSamples: 1,
			theta:      0.001,
			numStdDevs: 3,
			validate: func(t *testing.T, result float64) {
				assert.Zero(t, result)
			},
		},
		{
			name:       "theta=0 with samples yields NaN",
			numSamples: 10,
			theta:      0.0,
			numStdDevs: 1,
			validate: func(t *testing.T, result float64) {
				assert.True(t, math.IsNaN(result))
			},
		},
		{
			name:         "invalid theta < 0",
			numSamples:   100,
			theta:        -0.1,
			numStdDevs:   1,
			wantErrorMsg: "theta must be in [0, 1]",
		},
		{
			name:         "invalid theta > 1",
			numSamples:   100,
			theta:        1.1,
			numStdDevs:   1,
			wantErrorMsg: "theta must be in [0, 1]",
		},
		{
			name:         "invalid stddev = 0",
			numSamples:   100,
			theta:        0.5,
			numStdDevs:   0,
			wantErrorMsg: "numStdDevs must be 1, 2 or 3",
		},
		{
			name:         "invalid stddev = 4",
			numSamples:   100,
			theta:        0.5,
			numStdDevs:   4,
			wantErrorMsg: "numStdDevs must be 1, 2 or 3",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := LowerBound(tc.numSamples, tc.theta, tc.numStdDevs)
			if tc.wantErrorMsg != "" {
				assert.ErrorContains(t, err, tc.wantErrorMsg)
				return
			}
			assert.NoError(t, err)
			tc.validate(t, result)
		})
	}
}

func TestUpperBound(t *testing.T) {
	testCases := []struct {
		name         string
		numSamples   uint64
		theta        float64
		numStdDevs   uint
		wantErrorMsg string
		validate     func(t *testing.T, result float64)
	}{
		{
			name:       "theta == 1.0 returns numSamples exactly",
			numSamples: 100,
			theta:      1.0,
			numStdDevs: 1,
			validate: func(t *testing.T, result float64) {
				assert.Equal(t, 100.0, result)
			},
		},
		{
			name:       "numSamples == 0 still carries a positive upper bound",
			numSamples: 0,
			theta:      0.5,
			numStdDevs: 1,
			validate: func(t *testing.T, result float64) {
				assert.Greater(t, result, 0.0)
			},
		},
		{
			name:       "estimation mode exceeds the naive estimate",
			numSamples: 500,
			theta:      0.1,
			numStdDevs: 1,
			validate: func(t *testing.T, result float64) {
				estimate := 500.0 / 0.1
				assert.Greater(t, result, estimate)
			},
		},
		{
			name:       "wider for more std devs",
			numSamples: 500,
			theta:      0.1,
			numStdDevs: 3,
			validate: func(t *testing.T, result float64) {
				one, err := UpperBound(500, 0.1, 1)
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, result, one)
			},
		},
		{
			name:       "theta=0 with samples yields +Inf",
			numSamples: 10,
			theta:      0.0,
			numStdDevs: 1,
			validate: func(t *testing.T, result float64) {
				assert.True(t, math.IsInf(result, 1))
			},
		},
		{
			name:         "invalid theta < 0",
			numSamples:   100,
			theta:        -0.1,
			numStdDevs:   1,
			wantErrorMsg: "theta must be in [0, 1]",
		},
		{
			name:         "invalid theta > 1",
			numSamples:   100,
			theta:        1.1,
			numStdDevs:   1,
			wantErrorMsg: "theta must be in [0, 1]",
		},
		{
			name:         "invalid stddev = 0",
			numSamples:   100,
			theta:        0.5,
			numStdDevs:   0,
			wantErrorMsg: "numStdDevs must be 1, 2 or 3",
		},
		{
			name:         "invalid stddev = 4",
			numSamples:   100,
			theta:        0.5,
			numStdDevs:   4,
			wantErrorMsg: "numStdDevs must be 1, 2 or 3",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := UpperBound(tc.numSamples, tc.theta, tc.numStdDevs)
			if tc.wantErrorMsg != "" {
				assert.ErrorContains(t, err, tc.wantErrorMsg)
				return
			}
			assert.NoError(t, err)
			tc.validate(t, result)
		})
	}
}

func TestBoundsBracketExactModeEstimate(t *testing.T) {
	for numStdDevs := uint(1); numStdDevs <= 3; numStdDevs++ {
		lb, err := LowerBound(1000, 1.0, numStdDevs)
		assert.NoError(t, err)
		ub, err := UpperBound(1000, 1.0, numStdDevs)
		assert.NoError(t, err)
		assert.Equal(t, 1000.0, lb)
		assert.Equal(t, 1000.0, ub)
	}
}

func TestLowerBoundNeverExceedsUpperBound(t *testing.T) {
	for _, theta := range []float64{0.01, 0.1, 0.5, 0.9, 0.999} {
		for _, n := range []uint64{0, 1, 10, 500, 100000} {
			for numStdDevs := uint(1); numStdDevs <= 3; numStdDevs++ {
				lb, err := LowerBound(n, theta, numStdDevs)
				assert.NoError(t, err)
				ub, err := UpperBound(n, theta, numStdDevs)
				assert.NoError(t, err)
				assert.LessOrEqual(t, lb, ub)
			}
		}
	}
}
