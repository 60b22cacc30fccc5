// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"strconv"
	"time"
)

// Value is an exact signed integer with a 64-bit magnitude, wide enough to
// hold the difference of any two uint64 sizes. The zero Value is 0.
type Value struct {
	neg bool
	mag uint64
}

// Uint returns v as a Value.
func Uint(v uint64) Value {
	return Value{mag: v}
}

// Int returns v as a Value.
func Int(v int64) Value {
	if v < 0 {
		// -(v+1)+1 avoids overflowing on math.MinInt64
		return Value{neg: true, mag: uint64(-(v + 1)) + 1}
	}
	return Value{mag: uint64(v)}
}

// Diff returns a - b.
func Diff(a, b uint64) Value {
	if a >= b {
		return Value{mag: a - b}
	}
	return Value{neg: true, mag: b - a}
}

// Age returns now - t rounded to whole seconds, half away from zero.
// It is negative when t lies in the future. Seconds and nanoseconds are
// subtracted separately so the result stays exact beyond the range of
// time.Duration.
func Age(now, t time.Time) Value {
	secs := now.Unix() - t.Unix()
	nanos := int64(now.Nanosecond() - t.Nanosecond())

	// give both parts the same sign
	switch {
	case secs > 0 && nanos < 0:
		secs--
		nanos += int64(time.Second)
	case secs < 0 && nanos > 0:
		secs++
		nanos -= int64(time.Second)
	}

	switch {
	case nanos >= int64(time.Second/2):
		secs++
	case nanos <= -int64(time.Second/2):
		secs--
	}
	return Int(secs)
}

// IsNegative reports whether v < 0.
func (v Value) IsNegative() bool {
	return v.neg && v.mag != 0
}

// String formats v as a plain decimal integer.
func (v Value) String() string {
	s := strconv.FormatUint(v.mag, 10)
	if v.IsNegative() {
		return "-" + s
	}
	return s
}
