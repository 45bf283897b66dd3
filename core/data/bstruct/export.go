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
	"context"
	"fmt"
	"io"

	"github.com/golang/protobuf/jsonpb"
	structpb "github.com/golang/protobuf/ptypes/struct"
)

type exportFrame struct {
	fields map[string]*structpb.Value
	list   *structpb.ListValue
}

// Export converts the whole file to a protobuf Struct. Structs become
// Structs, arrays become lists and all numbers become doubles. Unnamed top
// level objects are keyed by their position, as "#0", "#1" and so on. Index
// tables are dropped.
func Export(ctx context.Context, r *Reader) (*structpb.Struct, error) {
	root := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	frames := []exportFrame{{fields: root.Fields}}
	unnamed := 0
	add := func(name string, v *structpb.Value) {
		top := &frames[len(frames)-1]
		switch {
		case top.list != nil:
			top.list.Values = append(top.list.Values, v)
		case name == "":
			top.fields[fmt.Sprintf("#%d", unnamed)] = v
			unnamed++
		default:
			top.fields[name] = v
		}
	}
	err := r.Walk(ctx, func(ctx context.Context, e Event) error {
		switch e.Kind {
		case EventBeginStruct:
			s := &structpb.Struct{Fields: map[string]*structpb.Value{}}
			add(e.Name, &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: s}})
			frames = append(frames, exportFrame{fields: s.Fields})
		case EventBeginArray:
			l := &structpb.ListValue{Values: make([]*structpb.Value, 0, e.Size)}
			add(e.Name, &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: l}})
			frames = append(frames, exportFrame{list: l})
		case EventEndStruct, EventEndArray:
			frames = frames[:len(frames)-1]
		case EventValue:
			add(e.Name, toValue(e.Value))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

func toValue(v interface{}) *structpb.Value {
	number := func(f float64) *structpb.Value {
		return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: f}}
	}
	switch v := v.(type) {
	case bool:
		return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}
	case string:
		return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}
	case uint8:
		return number(float64(v))
	case int16:
		return number(float64(v))
	case uint16:
		return number(float64(v))
	case int32:
		return number(float64(v))
	case float32:
		return number(float64(v))
	case float64:
		return number(v)
	default:
		return &structpb.Value{Kind: &structpb.Value_NullValue{NullValue: structpb.NullValue_NULL_VALUE}}
	}
}

// ExportJSON writes the export of r to w as indented JSON.
func ExportJSON(ctx context.Context, r *Reader, w io.Writer) error {
	s, err := Export(ctx, r)
	if err != nil {
		return err
	}
	m := jsonpb.Marshaler{Indent: "  "}
	return m.Marshal(w, s)
}
