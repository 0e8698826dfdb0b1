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

// Package hashing wraps the 128-bit MurmurHash3 implementation used to turn
// arbitrary input items into the 64-bit keys the theta sketch tables store.
//
// The hash itself is treated as an external collaborator (spec §1): this
// package never reimplements MurmurHash3, it only adapts
// github.com/twmb/murmur3's 128-bit sum to the sketch's key convention —
// the high 63 bits of h1, top bit cleared, zero reserved for "empty slot".
package hashing

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/twmb/murmur3"
)

// ErrZeroHash is returned when a hash collides with the reserved empty-slot
// sentinel. It is vanishingly rare and is surfaced rather than silently
// resampled, so callers can decide whether to retry with a different seed.
var ErrZeroHash = errors.New("hashing: item hashed to the reserved zero value")

// KeyOf derives a sketch key from raw little-endian encoded bytes and an
// update seed: the 128-bit murmur3 sum's low word, shifted right one bit to
// clear the sign bit and leave 63 usable bits.
func KeyOf(data []byte, seed uint64) (uint64, error) {
	h1, _ := murmur3.SeedSum128(seed, seed, data)
	key := h1 >> 1
	if key == 0 {
		return 0, ErrZeroHash
	}
	return key, nil
}

// KeyOfUint64 hashes a single 64-bit integer.
func KeyOfUint64(v uint64, seed uint64) (uint64, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return KeyOf(buf[:], seed)
}

// KeyOfUint32 hashes a single 32-bit integer.
func KeyOfUint32(v uint32, seed uint64) (uint64, error) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return KeyOf(buf[:], seed)
}

// KeyOfString hashes UTF-8 string bytes.
func KeyOfString(s string, seed uint64) (uint64, error) {
	return KeyOf([]byte(s), seed)
}

// KeyOfFloat64 hashes a float64 after canonicalizing -0.0 and NaN so that
// equal-valued doubles always hash identically (spec §4.3).
func KeyOfFloat64(v float64, seed uint64) (uint64, error) {
	return KeyOfUint64(CanonicalDoubleBits(v), seed)
}

// CanonicalDoubleBits returns the bit pattern to hash for a float64,
// collapsing -0.0 into 0.0 and every NaN into a single canonical NaN.
func CanonicalDoubleBits(v float64) uint64 {
	if v == 0 {
		return 0
	}
	if math.IsNaN(v) {
		return 0x7ff8000000000000
	}
	return math.Float64bits(v)
}

// SeedHash derives the 16-bit seed fingerprint (spec §4.1, "seed hash")
// used to detect sketches hashed under incompatible seeds. A seed hash of
// zero is disallowed by the algorithm (it would collide with "absent"), so
// such seeds are rejected outright.
func SeedHash(seed uint64) (uint16, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	h1, _ := murmur3.SeedSum128(0, 0, buf[:])
	sh := uint16(h1 & 0xffff)
	if sh == 0 {
		return 0, errors.New("hashing: seed produces a zero seed hash, choose a different seed")
	}
	return sh, nil
}
