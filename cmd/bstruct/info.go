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
	"os"

	"github.com/dustin/go-humanize"
	"github.com/ecoforge/bstruct/core/data/bstruct"
	"github.com/ecoforge/bstruct/core/log"
	"github.com/urfave/cli/v2"
)

type summary struct {
	values, structs, arrays, indexed int
	maxDepth                         int
	types                            [bstruct.MaxType + 1]int
}

func summarize(ctx context.Context, r *bstruct.Reader) (summary, error) {
	s := summary{maxDepth: 1}
	err := r.Walk(ctx, func(ctx context.Context, e bstruct.Event) error {
		if e.Kind == bstruct.EventBeginStruct || e.Kind == bstruct.EventBeginArray {
			if e.Depth+2 > s.maxDepth {
				s.maxDepth = e.Depth + 2
			}
		}
		switch e.Kind {
		case bstruct.EventValue:
			s.values++
			s.types[e.Type]++
		case bstruct.EventBeginStruct:
			s.structs++
		case bstruct.EventBeginArray:
			s.arrays++
		case bstruct.EventIndex:
			s.indexed++
		}
		return nil
	})
	return s, err
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print a summary of a file",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			return withFile(c, func(ctx context.Context, r *bstruct.Reader) error {
				st, err := os.Stat(c.Args().First())
				if err != nil {
					return err
				}
				s, err := summarize(ctx, r)
				if err != nil {
					return err
				}
				h := r.Header()
				out := c.App.Writer
				fmt.Fprintf(out, "Size:        %s\n", humanize.Bytes(uint64(st.Size())))
				fmt.Fprintf(out, "Version:     %d\n", h.Version)
				fmt.Fprintf(out, "Byte order:  %v\n", h.ByteOrder)
				fmt.Fprintf(out, "Name table:  %s names at offset %s\n", humanize.Comma(int64(r.Names().Len())), humanize.Comma(h.TableOffset))
				fmt.Fprintf(out, "Values:      %s\n", humanize.Comma(int64(s.values)))
				fmt.Fprintf(out, "Structs:     %s\n", humanize.Comma(int64(s.structs)))
				fmt.Fprintf(out, "Arrays:      %s (%d indexed)\n", humanize.Comma(int64(s.arrays)), s.indexed)
				fmt.Fprintf(out, "Depth:       %d\n", s.maxDepth)
				for t, n := range s.types {
					if n > 0 {
						log.D(ctx, "%v values: %d", bstruct.Type(t), n)
					}
				}
				return nil
			})
		},
	}
}
