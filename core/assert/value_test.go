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


package assert_test

import (
	"testing"

	"github.com/ecoforge/bstruct/core/assert"
	"github.com/ecoforge/bstruct/core/fault"
	"github.com/pkg/errors"
)

type record struct {
	Name  string
	level int
	Ids   []int16
}

func TestDeepEqual(t *testing.T) {
	a := record{Name: "soil", level: 2, Ids: []int16{1, 2}}
	b := record{Name: "soil", level: 2, Ids: []int16{1, 2}}
	c := record{Name: "soil", level: 3, Ids: []int16{1, 2}}
	if !assert.DeepEqual(a, b) {
		t.Errorf("Equal records compared as different")
	}
	if assert.DeepEqual(a, c) {
		t.Errorf("Records differing in an unexported field compared as equal")
	}
}

func TestDeepDiffReports(t *testing.T) {
	fake := &fakeT{}
	a := record{Name: "soil", Ids: []int16{1}}
	b := record{Name: "leaf", Ids: []int16{1}}
	if assert.To(fake).For("diff").That(a).DeepEquals(b) {
		t.Errorf("DeepEquals succeeded for different records")
	}
	if fake.error.Len() == 0 {
		t.Errorf("DeepEquals did not report the difference")
	}
}

func TestIsIn(t *testing.T) {
	const (
		errA = fault.Const("a")
		errB = fault.Const("b")
	)
	class := fault.NewClass("letters", errA)
	fake := &fakeT{}
	if !assert.To(fake).For("member").ThatError(errors.Wrap(errA, "ctx")).IsIn(class) {
		t.Errorf("IsIn failed for a wrapped member")
	}
	if assert.To(fake).For("non member").ThatError(errB).IsIn(class) {
		t.Errorf("IsIn succeeded for a non member")
	}
}
