// Copyright (C) 2025, j-martina
//
// This file is part of znbx.
//
// znbx is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// znbx is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with znbx.  If not, see <https://www.gnu.org/licenses/>.

package znbx

import (
	"fmt"
)

// errs.go - typed error values for the conditions that abort a compile.
// Loader errors are fatal and leave the caller without a Level; builder
// anomalies that still yield a valid tree become Diagnostic entries
// instead.

// MalformedRecordError - a fixed-layout lump whose byte length is not a
// multiple of the record size, a missing required lump, or a record whose
// fields cannot possibly describe a valid entity.
type MalformedRecordError struct {
	Lump   string
	Index  int // record index within the lump, -1 when not applicable
	Detail string
}

func (e *MalformedRecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed %s lump: %s", e.Lump, e.Detail)
	}
	return fmt.Sprintf("malformed record %d in %s lump: %s", e.Index, e.Lump,
		e.Detail)
}

// PropertyTypeMismatchError - a text-format property whose value cannot be
// coerced to the type its key requires.
type PropertyTypeMismatchError struct {
	Key  string
	Want string
	Got  string
}

func (e *PropertyTypeMismatchError) Error() string {
	return fmt.Sprintf("property %q: expected %s value, got %q", e.Key,
		e.Want, e.Got)
}

// IndexOutOfRangeError - a cross-reference (linedef -> vertex, linedef ->
// sidedef, sidedef -> sector) pointing past the end of the referenced
// sequence.
type IndexOutOfRangeError struct {
	Kind  string // what the index refers to ("vertex", "sidedef", "sector")
	Ref   string // where the reference comes from
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s references %s %d, but only %d exist", e.Ref,
		e.Kind, e.Index, e.Count)
}

// CapacityExceededError - an entity count that does not fit the field
// width of the requested output encoding. Raised before any byte of the
// affected lump is emitted.
type CapacityExceededError struct {
	What  string
	Count int
	Limit int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("%d %s exceed the format limit of %d", e.Count,
		e.What, e.Limit)
}

// DegenerateGeometryError - geometry the node builder cannot work with at
// all, such as a map whose linedefs produce no usable segs. Individual
// zero-length linedefs degrade to diagnostics instead.
type DegenerateGeometryError struct {
	Detail string
}

func (e *DegenerateGeometryError) Error() string {
	return "degenerate geometry: " + e.Detail
}

// Diagnostic - a non-fatal anomaly observed during the compile. The
// processor collects these; they never abort the run.
type Diagnostic struct {
	Kind    string
	Message string
}

func diagf(list *[]Diagnostic, kind string, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	*list = append(*list, Diagnostic{Kind: kind, Message: msg})
	Log.Verbose(1, "%s: %s\n", kind, msg)
}
