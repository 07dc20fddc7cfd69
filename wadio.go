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

// wadio.go - the archive boundary. The compiler neither opens nor
// writes wad files; whoever owns the archive hands lumps in and takes
// lumps out through these two interfaces. MemLumps is the bundled
// in-memory implementation, used by tests and by callers that assemble
// the output archive themselves.

// LumpReader supplies the input lumps of a single map. A missing lump
// is reported as nil, not an error: which lumps are required depends on
// the map format.
type LumpReader interface {
	Lump(name string) []byte
}

// LumpWriter accepts output lumps in emission order. Writing the same
// name twice replaces the earlier contents.
type LumpWriter interface {
	WriteLump(name string, data []byte) error
}

// nonNilLump keeps the writer side of the contract: lump data handed to
// WriteLump is never nil, nil is reserved for "missing" on the reader
// side. An empty lump is a valid lump.
func nonNilLump(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}

// MemLumps keeps lumps in memory, remembering first-write order
type MemLumps struct {
	order []string
	data  map[string][]byte
}

func NewMemLumps() *MemLumps {
	return &MemLumps{
		data: make(map[string][]byte),
	}
}

func (m *MemLumps) Lump(name string) []byte {
	return m.data[name]
}

func (m *MemLumps) WriteLump(name string, data []byte) error {
	if _, ok := m.data[name]; !ok {
		m.order = append(m.order, name)
	}
	m.data[name] = data
	return nil
}

// Names returns lump names in first-write order
func (m *MemLumps) Names() []string {
	ret := make([]string, len(m.order))
	copy(ret, m.order)
	return ret
}
