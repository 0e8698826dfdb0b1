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

// Package quickselect provides an in-place partial-sort selection
// algorithm used to find the k-th smallest hash in a sketch's retained set
// during rebuild (spec §4.2, "rebuild"). It is a Hoare-style quickselect
// over unsigned 64-bit keys, the type theta sketches actually store.
package quickselect

// Select partitions arr[lo:hi+1] in place until arr[pivot] holds the value
// that would occupy that index were the slice fully sorted ascending, and
// returns that value. arr is reordered as a side effect.
func Select(arr []uint64, lo, hi, pivot int) uint64 {
	for hi > lo {
		j := partition(arr, lo, hi)
		switch {
		case j == pivot:
			return arr[pivot]
		case j > pivot:
			hi = j - 1
		default:
			lo = j + 1
		}
	}
	return arr[pivot]
}

func partition(arr []uint64, lo, hi int) int {
	i := lo
	j := hi + 1
	v := arr[lo]
	for {
		for arr[i+1] < v {
			i++
			if i == hi {
				break
			}
		}
		i++
		for v < arr[j-1] {
			j--
			if j == lo {
				break
			}
		}
		j--
		if i >= j {
			break
		}
		arr[i], arr[j] = arr[j], arr[i]
	}
	arr[lo], arr[j] = arr[j], arr[lo]
	return j
}
