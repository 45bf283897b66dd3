// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package assert

import (
	"fmt"
	"strings"
)

// OnBoolean holds a boolean under test.
type OnBoolean struct {
	Assertion
	value bool
}

// ThatBoolean starts a test on a boolean value.
func (a Assertion) ThatBoolean(value bool) OnBoolean { return OnBoolean{a, value} }

// Equals asserts that the value is expect.
func (o OnBoolean) Equals(expect bool) bool {
	return o.Compare(o.value, "==", expect).Test(o.value == expect)
}

// IsTrue asserts that the value is true.
func (o OnBoolean) IsTrue() bool { return o.Equals(true) }

// IsFalse asserts that the value is false.
func (o OnBoolean) IsFalse() bool { return o.Equals(false) }

// OnInteger holds an integer under test.
type OnInteger struct {
	Assertion
	value int
}

// ThatInteger starts a test on an integer value.
func (a Assertion) ThatInteger(value int) OnInteger { return OnInteger{a, value} }

// Equals asserts that the value is expect.
func (o OnInteger) Equals(expect int) bool {
	return o.Compare(o.value, "==", expect).Test(o.value == expect)
}

// IsAtLeast asserts that the value is min or more.
func (o OnInteger) IsAtLeast(min int) bool {
	return o.Compare(o.value, ">=", min).Test(o.value >= min)
}

// IsAtMost asserts that the value is max or less.
func (o OnInteger) IsAtMost(max int) bool {
	return o.Compare(o.value, "<=", max).Test(o.value <= max)
}

// OnString holds a string under test.
type OnString struct {
	Assertion
	value string
}

// ThatString starts a test on a string. Byte slices are converted directly,
// anything else is formatted with fmt.Sprint.
func (a Assertion) ThatString(value interface{}) OnString {
	switch v := value.(type) {
	case string:
		return OnString{a, v}
	case []byte:
		return OnString{a, string(v)}
	default:
		return OnString{a, fmt.Sprint(v)}
	}
}

// Equals asserts that the value is expect. On failure the point where the
// strings diverge is printed.
func (o OnString) Equals(expect string) bool {
	ok := o.value == expect
	o.Compare(o.value, "==", expect)
	if !ok {
		n := 0
		for n < len(o.value) && n < len(expect) && o.value[n] == expect[n] {
			n++
		}
		switch {
		case n == len(expect):
			o.Printf("Longer\tby\t").Println(o.value[n:])
		case n == len(o.value):
			o.Printf("Shorter\tby\t").Println(expect[n:])
		default:
			o.Printf("Differs\tat\t%d\t", n).Println(o.value[n:])
		}
	}
	return o.Test(ok)
}

// Contains asserts that substr occurs in the value.
func (o OnString) Contains(substr string) bool {
	return o.Compare(o.value, "contains", substr).Test(strings.Contains(o.value, substr))
}

// HasPrefix asserts that the value starts with prefix.
func (o OnString) HasPrefix(prefix string) bool {
	return o.Compare(o.value, "starts with", prefix).Test(strings.HasPrefix(o.value, prefix))
}
