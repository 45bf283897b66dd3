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

// Package bstruct reads and writes self describing binary files of nested,
// named values. It is used to checkpoint long running simulations and to
// restart them from the saved state.
//
// The file layout is:
//
//	[ magic "BSTRUCT" ][ version: int32 ]
//	[ name-table-offset: int64 ]      0 until the writer finishes
//	<token stream...>
//	[ end-of-stream token ]
//	[ name-table-count: int32 ]
//	{ [len: uint8][name bytes][id: int16] } x count
//
// Every value is preceded by a one byte token. The low six bits select the
// type, bit 7 marks a named value and bit 6 selects a 16 bit name id instead
// of an 8 bit one. Named values are followed by the id of their name in the
// name table, then by the payload for the type.
//
// Values inside a struct are named and may be read in any order. Values in an
// array are unnamed and are read in sequence. An index array stores the file
// offset of every record of an array so that a reader can seek directly to
// any record.
//
// All multi-byte values use the byte order the file was written with. Readers
// detect the order from the header.
package bstruct
