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

package bstruct_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/ecoforge/bstruct/core/assert"
	"github.com/ecoforge/bstruct/core/data/bstruct"
	"github.com/ecoforge/bstruct/core/log"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

func TestLargeNameTable(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	// "census" takes the first id, leaving MaxNames-1 for the species.
	const writes, species = 70000, bstruct.MaxNames - 1
	name := func(i int) string { return fmt.Sprintf("species-%05d", i%species) }
	create(ctx, path, bstruct.DefaultConfig(), func(w *bstruct.Writer) {
		must(ctx, w.BeginStruct(ctx, "census"))
		for i := 0; i < writes; i++ {
			must(ctx, w.WriteInt32(ctx, name(i), int32(i%species)))
		}
		must(ctx, w.EndStruct(ctx, "census"))
		assert.For(ctx, "NameCount").ThatInteger(w.NameCount()).Equals(bstruct.MaxNames)

		err := w.WriteInt32(ctx, "one-too-many", 0)
		assert.For(ctx, "one too many").ThatError(err).HasCause(bstruct.ErrTooManyNames)
		assert.For(ctx, "NameCount").ThatInteger(w.NameCount()).Equals(bstruct.MaxNames)
	})

	r := open(ctx, path, bstruct.DefaultConfig())
	names := r.Names()
	assert.For(ctx, "Len").ThatInteger(names.Len()).Equals(bstruct.MaxNames)
	last := name(species - 1)
	id, ok := names.ID(last)
	assert.For(ctx, "ID(%v)", last).ThatBoolean(ok).IsTrue()
	assert.For(ctx, "ID(%v)", last).ThatInteger(id).Equals(species)
	got, ok := names.Name(id)
	assert.For(ctx, "Name(%d)", id).ThatBoolean(ok).IsTrue()
	assert.For(ctx, "Name(%d)", id).ThatString(got).Equals(last)

	must(ctx, r.BeginStruct(ctx, "census"))
	for i := 0; i < species; i++ {
		v, err := r.ReadInt32(ctx, name(i))
		must(ctx, err)
		if v != int32(i) {
			assert.For(ctx, "%v", name(i)).That(v).Equals(int32(i))
			break
		}
	}
	// Wide ids read out of order.
	v, err := r.ReadInt32(ctx, name(300))
	assert.For(ctx, "%v", name(300)).ThatError(err).Succeeded()
	assert.For(ctx, "%v", name(300)).That(v).Equals(int32(300))
	must(ctx, r.EndStruct(ctx, "census"))
	must(ctx, r.Finish(ctx))
}

func TestNameTooLong(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	create(ctx, path, bstruct.DefaultConfig(), func(w *bstruct.Writer) {
		longest := strings.Repeat("n", bstruct.MaxNameLength)
		must(ctx, w.WriteInt32(ctx, longest, 1))
		err := w.WriteInt32(ctx, longest+"n", 2)
		assert.For(ctx, "too long").ThatError(err).HasCause(bstruct.ErrNameTooLong)
	})
	r := open(ctx, path, bstruct.DefaultConfig())
	v, err := r.ReadInt32(ctx, strings.Repeat("n", bstruct.MaxNameLength))
	assert.For(ctx, "longest").ThatError(err).Succeeded()
	assert.For(ctx, "longest").That(v).Equals(int32(1))
	must(ctx, r.Finish(ctx))
}

func TestNameTableExport(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	create(ctx, path, bstruct.DefaultConfig(), func(w *bstruct.Writer) {
		must(ctx, w.WriteInt32(ctx, "water", 1))
		must(ctx, w.WriteInt32(ctx, "carbon", 2))
	})
	r := open(ctx, path, bstruct.DefaultConfig())
	defer r.Finish(ctx)

	expect := []bstruct.NameEntry{{Name: "carbon", ID: 1}, {Name: "water", ID: 0}}
	type document struct {
		Names []bstruct.NameEntry `yaml:"names" json:"names"`
	}

	buf := &bytes.Buffer{}
	must(ctx, r.Names().WriteYAML(buf))
	assert.For(ctx, "yaml").ThatString(buf.String()).HasPrefix("names:\n")
	fromYAML := document{}
	must(ctx, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.For(ctx, "yaml names").ThatSlice(fromYAML.Names).DeepEquals(expect)

	buf.Reset()
	must(ctx, r.Names().WriteJSON(buf))
	assert.For(ctx, "json").ThatString(buf.String()).Contains(`"carbon"`)
	fromJSON := document{}
	must(ctx, jsoniter.Unmarshal(buf.Bytes(), &fromJSON))
	assert.For(ctx, "json names").ThatSlice(fromJSON.Names).DeepEquals(expect)
}
