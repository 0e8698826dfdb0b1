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

import "github.com/thetasketches/thetasketch-go/internal/hashing"

// AlphaUpdateSketch is the higher-accuracy update-sketch family (spec
// §4.3): heap-only, with a lower effective load factor (15/32 vs
// QuickSelect's 15/16) and a continuous theta adjustment once estimation
// mode is reached, trading a little extra rebuild work for ~30% lower RSE
// at the same k.
//
// "Continuous" here means every insert past the nominal size k triggers an
// immediate partial rebuild back down to k, instead of letting the table
// fill to the load-factor threshold before consolidating — the same
// rebuild primitive QuickSelect uses, just invoked far more often, so theta
// tracks the input stream smoothly rather than in large steps.
type AlphaUpdateSketch struct {
	updateSketchCore
}

// NewAlphaUpdateSketch builds an Alpha update sketch.
func NewAlphaUpdateSketch(opts ...UpdateSketchOptionFunc) (*AlphaUpdateSketch, error) {
	options, err := resolveUpdateSketchOptions(opts...)
	if err != nil {
		return nil, err
	}
	table := NewHashtable(options.lgCurSize, options.lgK, options.rf, options.p, options.theta, options.seed, true, alphaLoadFactor)

	s := &AlphaUpdateSketch{updateSketchCore: updateSketchCore{table: table}}
	s.onInsert = s.adjustThetaContinuously
	return s, nil
}

func (s *AlphaUpdateSketch) adjustThetaContinuously(t *Hashtable) {
	nominal := uint32(1) << t.lgNomSize
	if t.lgCurSize > t.lgNomSize && t.numEntries > nominal {
		t.rebuild()
	}
}

func (s *AlphaUpdateSketch) String(shouldPrintItems bool) string {
	return sketchSummary(s, shouldPrintItems, s.LgK(), s.table.lgCurSize, s.ResizeFactor())
}

func (s *AlphaUpdateSketch) UpdateUint64(value uint64) error { return s.updateUint64(value) }
func (s *AlphaUpdateSketch) UpdateInt64(value int64) error   { return s.updateUint64(uint64(value)) }
func (s *AlphaUpdateSketch) UpdateUint32(value uint32) error { return s.updateUint32(value) }
func (s *AlphaUpdateSketch) UpdateInt32(value int32) error   { return s.updateUint32(uint32(value)) }
func (s *AlphaUpdateSketch) UpdateUint16(value uint16) error { return s.updateUint32(uint32(value)) }
func (s *AlphaUpdateSketch) UpdateInt16(value int16) error   { return s.updateUint32(uint32(int32(value))) }
func (s *AlphaUpdateSketch) UpdateUint8(value uint8) error   { return s.updateUint32(uint32(value)) }
func (s *AlphaUpdateSketch) UpdateInt8(value int8) error     { return s.updateUint32(uint32(int32(value))) }

// UpdateFloat64 hashes a double after canonicalizing -0.0 and NaN.
func (s *AlphaUpdateSketch) UpdateFloat64(value float64) error {
	return s.updateUint64(hashing.CanonicalDoubleBits(value))
}

// UpdateFloat32 widens to float64 before hashing.
func (s *AlphaUpdateSketch) UpdateFloat32(value float32) error {
	return s.UpdateFloat64(float64(value))
}

// UpdateString hashes a string; an empty string is a no-op (IGNORED).
func (s *AlphaUpdateSketch) UpdateString(value string) error { return s.updateString(value) }

// UpdateBytes hashes raw bytes; an empty slice is a no-op (IGNORED).
func (s *AlphaUpdateSketch) UpdateBytes(data []byte) error { return s.updateBytes(data) }

// ToByteArray serializes the sketch using the update-sketch wire layout.
func (s *AlphaUpdateSketch) ToByteArray() ([]byte, error) {
	return encodeUpdateSketch(uint8(FamilyAlpha), s.table)
}
