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
	"encoding/binary"
	"io"
)

// Encoder writes a compact theta sketch to bytes in the uncompressed
// SerVer 3 layout.
type Encoder struct {
	w io.Writer
}

// NewEncoder builds an encoder writing to w.
func NewEncoder(w io.Writer) Encoder {
	return Encoder{w: w}
}

// Encode writes sketch to the encoder's writer.
func (enc Encoder) Encode(sketch *CompactSketch) error {
	preambleLongs := sketch.preambleLongs()
	bytes := make([]byte, sketch.SerializedSizeBytes())
	enc.encodeSketch(sketch, bytes, preambleLongs)
	return enc.write(bytes)
}

func (enc Encoder) encodeSketch(sketch *CompactSketch, bytes []byte, preambleLongs uint8) {
	offset := 0
	bytes[offset] = preambleLongs
	offset++
	bytes[offset] = UncompressedSerialVersion
	offset++
	bytes[offset] = CompactSketchType
	offset++
	offset += 2 // unused

	flags := byte(0)
	flags |= 1 << serializationFlagIsCompact
	flags |= 1 << serializationFlagIsReadOnly
	if sketch.IsEmpty() {
		flags |= 1 << serializationFlagIsEmpty
	}
	if sketch.IsOrdered() {
		flags |= 1 << serializationFlagIsOrdered
	}
	bytes[offset] = flags
	offset++

	seedHash, _ := sketch.SeedHash()
	binary.LittleEndian.PutUint16(bytes[offset:offset+2], seedHash)
	offset += 2

	if preambleLongs > 1 {
		numEntries := uint32(len(sketch.entries))
		binary.LittleEndian.PutUint32(bytes[offset:offset+4], numEntries)
		offset += 4
		offset += 4 // unused
	}

	if sketch.IsEstimationMode() {
		binary.LittleEndian.PutUint64(bytes[offset:offset+8], sketch.theta)
		offset += 8
	}

	for _, entry := range sketch.entries {
		binary.LittleEndian.PutUint64(bytes[offset:offset+8], entry)
		offset += 8
	}
}

func (enc Encoder) write(bytes []byte) error {
	n, err := enc.w.Write(bytes)
	if err != nil {
		return err
	}
	if n != len(bytes) {
		return io.ErrShortWrite
	}
	return nil
}
