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
	"github.com/thetasketches/thetasketch-go/internal/hashing"
)

func checkEqual[T comparable](actual, expected T, description string) error {
	if actual != expected {
		return malformedHeaderf("%s mismatch: expected %v, actual %v", description, expected, actual)
	}
	return nil
}

// CheckSerialVersionEqual checks the decoded serial version against what the
// reader expects.
func CheckSerialVersionEqual(actual, expected uint8) error {
	return checkEqual(actual, expected, "serial version")
}

// CheckSketchFamilyEqual checks the decoded family byte.
func CheckSketchFamilyEqual(actual, expected uint8) error {
	return checkEqual(actual, expected, "sketch family")
}

// CheckSketchTypeEqual checks the decoded sketch type.
func CheckSketchTypeEqual(actual, expected uint8) error {
	return checkEqual(actual, expected, "sketch type")
}

// CheckSeedHashEqual checks a decoded seed hash against the caller's seed
// (I5: all sketches in a set operation must share a seed hash).
func CheckSeedHashEqual(actual, expected uint16) error {
	if actual != expected {
		return invalidArgumentf("seed hash mismatch: expected %d, got %d", expected, actual)
	}
	return nil
}

func seedHashOf(seed uint64) (uint16, error) {
	return hashing.SeedHash(seed)
}

func matchSeedHash(seed uint64, sketch Sketch) error {
	if sketch.IsEmpty() {
		return nil
	}
	expected, err := seedHashOf(seed)
	if err != nil {
		return err
	}
	actual, err := sketch.SeedHash()
	if err != nil {
		return err
	}
	return CheckSeedHashEqual(actual, expected)
}

// startingThetaFromP returns the initial theta for sampling probability p,
// avoiding a multiplication that might not land exactly on MaxTheta at
// p == 1.
func startingThetaFromP(p float32) uint64 {
	if p < 1 {
		return uint64(float64(MaxTheta) * float64(p))
	}
	return MaxTheta
}

// startingSubMultiple computes the starting lgCurSize for a table whose
// target size is lgTgt, floored at lgMin, stepping down by multiples of
// lgRf (the resize factor's log2).
func startingSubMultiple(lgTgt, lgMin, lgRf uint8) uint8 {
	if lgTgt <= lgMin {
		return lgMin
	}
	if lgRf == 0 {
		return lgTgt
	}
	return ((lgTgt - lgMin) % lgRf) + lgMin
}

func validateLgKAndP(lgK uint8, p float32) error {
	if lgK < MinLgK {
		return invalidArgumentf("lgK must not be less than %d: %d", MinLgK, lgK)
	}
	if lgK > MaxLgK {
		return invalidArgumentf("lgK must not be greater than %d: %d", MaxLgK, lgK)
	}
	if p <= 0 || p > 1 {
		return invalidArgumentf("sampling probability must be in (0, 1]: %v", p)
	}
	return nil
}

func validateMemorySize(data []byte, expectedBytes int) error {
	if len(data) < expectedBytes {
		return malformedHeaderf("at least %d bytes expected, actual %d", expectedBytes, len(data))
	}
	return nil
}
