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
	"errors"
	"fmt"
)

// Kind classifies an error returned by this package so callers can branch on
// errors.Is(err, theta.KindXxx) instead of matching message strings.
type Kind error

var (
	// KindInvalidArgument covers out-of-range k/p/resizeFactor, unknown
	// family, incompatible seed hashes, unordered input where ordered is
	// required, and direct operations on an incompatible variant.
	KindInvalidArgument Kind = errors.New("invalid argument")
	// KindMalformedHeader covers unsupported or mutually inconsistent
	// preamble fields.
	KindMalformedHeader Kind = errors.New("malformed header")
	// KindCorrupt covers table or flag invariants violated after a trusted
	// boundary, e.g. wrapping foreign bytes.
	KindCorrupt Kind = errors.New("corrupt sketch")
	// KindReadOnly covers a mutation attempted through a read-only view.
	KindReadOnly Kind = errors.New("read-only")
	// KindIllegalState covers calling Result on a virgin intersection, or
	// updating after compaction through the same backing region.
	KindIllegalState Kind = errors.New("illegal state")
	// KindInsufficientCapacity covers a target memory region too small for
	// the compact form being written.
	KindInsufficientCapacity Kind = errors.New("insufficient capacity")
	// KindHashTableFull is a logic-bug guard; never expected in a correctly
	// sized table.
	KindHashTableFull Kind = errors.New("hash table full")
)

// wrapKind returns an error reporting msg that errors.Is matches against kind.
func wrapKind(kind Kind, msg string) error {
	return fmt.Errorf("%s: %w", msg, kind)
}

func invalidArgumentf(format string, args ...any) error {
	return wrapKind(KindInvalidArgument, fmt.Sprintf(format, args...))
}

func malformedHeaderf(format string, args ...any) error {
	return wrapKind(KindMalformedHeader, fmt.Sprintf(format, args...))
}

func corruptf(format string, args ...any) error {
	return wrapKind(KindCorrupt, fmt.Sprintf(format, args...))
}

func illegalStatef(format string, args ...any) error {
	return wrapKind(KindIllegalState, fmt.Sprintf(format, args...))
}

func insufficientCapacityf(format string, args ...any) error {
	return wrapKind(KindInsufficientCapacity, fmt.Sprintf(format, args...))
}
