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

package bstruct

import (
	"io"
	"sort"

	"github.com/ecoforge/bstruct/core/data/binary"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// MaxNames is the largest number of distinct names a file can hold.
	MaxNames = 1<<15 - 1
	// MaxNameLength is the longest name in bytes.
	MaxNameLength = 255
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NameEntry pairs a name with its id.
type NameEntry struct {
	Name string `yaml:"name" json:"name"`
	ID   int    `yaml:"id" json:"id"`
}

// nameHash assigns ids to names as they are first written.
type nameHash struct {
	ids map[string]int
}

func newNameHash() *nameHash {
	return &nameHash{ids: map[string]int{}}
}

func (h *nameHash) intern(name string) (int, error) {
	if id, ok := h.ids[name]; ok {
		return id, nil
	}
	if len(name) > MaxNameLength {
		return 0, errors.Wrapf(ErrNameTooLong, "%d bytes", len(name))
	}
	if len(h.ids) >= MaxNames {
		return 0, errors.Wrapf(ErrTooManyNames, "adding %q", name)
	}
	id := len(h.ids)
	h.ids[name] = id
	return id, nil
}

func (h *nameHash) len() int { return len(h.ids) }

func (h *nameHash) entries() []NameEntry {
	out := make([]NameEntry, 0, len(h.ids))
	for name, id := range h.ids {
		out = append(out, NameEntry{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// write encodes the table, sorted by name.
func (h *nameHash) write(w binary.Writer) {
	entries := h.entries()
	w.Int32(int32(len(entries)))
	for _, e := range entries {
		w.Uint8(uint8(len(e.Name)))
		w.String(e.Name)
		w.Int16(int16(e.ID))
	}
}

// NameTable is the read only name table of a finished file.
type NameTable struct {
	byName []NameEntry
	byID   []string
}

func readNameTable(r binary.Reader) (*NameTable, error) {
	count := r.Int32()
	if err := r.Error(); err != nil {
		return nil, errors.Wrap(ErrTruncated, "name table count")
	}
	if count < 0 || count > MaxNames {
		return nil, errors.Wrapf(ErrCorruptNameTable, "count %d", count)
	}
	t := &NameTable{
		byName: make([]NameEntry, count),
		byID:   make([]string, count),
	}
	seen := make([]bool, count)
	for i := range t.byName {
		name := r.String(int(r.Uint8()))
		id := r.Int16()
		if err := r.Error(); err != nil {
			return nil, errors.Wrapf(ErrTruncated, "name table entry %d", i)
		}
		if id < 0 || int32(id) >= count {
			return nil, errors.Wrapf(ErrInvalidNameID, "%q has id %d, table holds %d names", name, id, count)
		}
		if seen[id] {
			return nil, errors.Wrapf(ErrCorruptNameTable, "id %d used twice", id)
		}
		seen[id] = true
		t.byName[i] = NameEntry{Name: name, ID: int(id)}
		t.byID[id] = name
	}
	sort.Slice(t.byName, func(i, j int) bool { return t.byName[i].Name < t.byName[j].Name })
	for i := 1; i < len(t.byName); i++ {
		if t.byName[i].Name == t.byName[i-1].Name {
			return nil, errors.Wrapf(ErrCorruptNameTable, "%q appears twice", t.byName[i].Name)
		}
	}
	return t, nil
}

// Len returns the number of names in the table.
func (t *NameTable) Len() int { return len(t.byID) }

// ID returns the id of name.
func (t *NameTable) ID(name string) (int, bool) {
	i := sort.Search(len(t.byName), func(i int) bool { return t.byName[i].Name >= name })
	if i < len(t.byName) && t.byName[i].Name == name {
		return t.byName[i].ID, true
	}
	return 0, false
}

// Name returns the name with the given id.
func (t *NameTable) Name(id int) (string, bool) {
	if id < 0 || id >= len(t.byID) {
		return "", false
	}
	return t.byID[id], true
}

// Entries returns a copy of the table sorted by name.
func (t *NameTable) Entries() []NameEntry {
	return append([]NameEntry(nil), t.byName...)
}

// hash rebuilds the writer side table so that a file can be appended to.
func (t *NameTable) hash() *nameHash {
	h := &nameHash{ids: make(map[string]int, len(t.byName))}
	for _, e := range t.byName {
		h.ids[e.Name] = e.ID
	}
	return h
}

type nameList struct {
	Names []NameEntry `yaml:"names" json:"names"`
}

// WriteYAML writes the table to w as a YAML document.
func (t *NameTable) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(nameList{t.byName}); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSON writes the table to w as an indented JSON object.
func (t *NameTable) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(nameList{t.byName})
}
