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

// Package binomialbounds computes the confidence-interval bounds theta
// sketches report from Sketch.LowerBound/UpperBound (spec §4.3, §8 P2).
//
// The retrieval pack that seeded this module carried only this package's
// test file, not its implementation (the real Apache DataSketches engine
// computes these bounds from a table of exact binomial-search results for
// small sample counts and a normal approximation above that, neither of
// which was present to ground against). This implementation instead uses
// the Horvitz-Thompson normal approximation directly: for Bernoulli(theta)
// sampling, Var[n_hat] ≈ numSamples*(1-theta)/theta^2, which is the same
// approximation theta/bounds_on_ratios_in_sampled_sets.go falls back to
// once its "exact" special cases don't apply.
package binomialbounds

import (
	"fmt"
	"math"
)

func kappaFor(numStdDevs uint) (float64, error) {
	switch numStdDevs {
	case 1:
		return 1.0, nil
	case 2:
		return 2.0, nil
	case 3:
		return 3.0, nil
	default:
		return 0, fmt.Errorf("numStdDevs must be 1, 2 or 3: %d", numStdDevs)
	}
}

func validate(theta float64, numStdDevs uint) (float64, error) {
	if theta < 0 || theta > 1 {
		return 0, fmt.Errorf("theta must be in [0, 1]: %v", theta)
	}
	return kappaFor(numStdDevs)
}

// LowerBound returns an approximate lower confidence bound on the true
// distinct count, given numSamples retained hashes observed at sampling
// rate theta. Exact mode (theta == 1) returns numSamples exactly.
func LowerBound(numSamples uint64, theta float64, numStdDevs uint) (float64, error) {
	kappa, err := validate(theta, numStdDevs)
	if err != nil {
		return 0, err
	}
	if theta == 1.0 {
		return float64(numSamples), nil
	}
	if numSamples == 0 {
		return 0, nil
	}
	estimate := float64(numSamples) / theta
	lb := estimate - kappa*stdDev(numSamples, theta)
	if lb < 0 {
		return 0, nil
	}
	return lb, nil
}

// UpperBound returns an approximate upper confidence bound on the true
// distinct count. A zero-retained sample still carries information (the
// true count could be nonzero and simply unlucky under sampling), so one
// pseudo-observation is folded in as a continuity correction, keeping the
// bound finite and strictly positive even when numSamples is zero.
func UpperBound(numSamples uint64, theta float64, numStdDevs uint) (float64, error) {
	kappa, err := validate(theta, numStdDevs)
	if err != nil {
		return 0, err
	}
	if theta == 1.0 {
		return float64(numSamples), nil
	}
	n := numSamples + 1
	estimate := float64(n) / theta
	return estimate + kappa*stdDev(n, theta), nil
}

func stdDev(numSamples uint64, theta float64) float64 {
	variance := float64(numSamples) * (1 - theta) / (theta * theta)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
