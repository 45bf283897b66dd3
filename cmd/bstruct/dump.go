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

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ecoforge/bstruct/core/data/bstruct"
	"github.com/urfave/cli/v2"
)

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Print every object of a file as an indented tree",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "offsets", Usage: "Prefix each line with the offset of its token"},
			&cli.BoolFlag{Name: "index", Usage: "Print the offset tables of index arrays"},
		},
		Action: func(c *cli.Context) error {
			return withFile(c, func(ctx context.Context, r *bstruct.Reader) error {
				return dump(ctx, r, c.App.Writer, c.Bool("offsets"), c.Bool("index"))
			})
		},
	}
}

func dump(ctx context.Context, r *bstruct.Reader, out io.Writer, offsets, index bool) error {
	return r.Walk(ctx, func(ctx context.Context, e bstruct.Event) error {
		if e.Kind == bstruct.EventIndex && !index {
			return nil
		}
		if offsets {
			fmt.Fprintf(out, "%8d ", e.Offset)
		}
		indent := strings.Repeat("  ", e.Depth)
		name := e.Name
		if name == "" {
			name = "-"
		}
		switch e.Kind {
		case bstruct.EventBeginStruct:
			fmt.Fprintf(out, "%s%s {\n", indent, name)
		case bstruct.EventEndStruct:
			fmt.Fprintf(out, "%s}\n", indent)
		case bstruct.EventBeginArray:
			fmt.Fprintf(out, "%s%s [%d] [\n", indent, name, e.Size)
		case bstruct.EventEndArray:
			fmt.Fprintf(out, "%s]\n", indent)
		case bstruct.EventIndex:
			fmt.Fprintf(out, "%sindex %v\n", indent, e.Value)
		default:
			fmt.Fprintf(out, "%s%s: %v = %s\n", indent, name, e.Type, formatValue(e.Value))
		}
		return nil
	})
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprint(v)
	}
}
