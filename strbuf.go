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

// strbuf.go - append-only byte string arena. Text-format maps retain
// every property string for write-back, so they are interned here in
// large blocks instead of many small heap strings. Strings are never
// freed individually; the arena's lifetime is the compile.

const STRBUF_BLOCK_SIZE = 100000

const STRBUF_ALIGN = 8

type StringBuffer struct {
	blocks  [][]byte
	current []byte // tail of blocks, remaining free space
}

func CreateStringBuffer() *StringBuffer {
	return &StringBuffer{}
}

// Copy stores a copy of b in the arena and returns the stored slice.
// The returned slice aliases arena memory and stays valid for the life
// of the buffer.
func (sb *StringBuffer) Copy(b []byte) []byte {
	need := len(b)
	if need == 0 {
		return nil
	}
	if need > len(sb.current) {
		blockSize := STRBUF_BLOCK_SIZE
		if need > blockSize {
			blockSize = need + (STRBUF_ALIGN - need%STRBUF_ALIGN)%STRBUF_ALIGN
		}
		block := make([]byte, blockSize)
		sb.blocks = append(sb.blocks, block)
		sb.current = block
	}
	ret := sb.current[:need:need]
	copy(ret, b)
	// keep the bump pointer aligned so distinct strings never share a word
	advance := need + (STRBUF_ALIGN-need%STRBUF_ALIGN)%STRBUF_ALIGN
	if advance > len(sb.current) {
		advance = len(sb.current)
	}
	sb.current = sb.current[advance:]
	return ret
}

func (sb *StringBuffer) CopyString(s string) []byte {
	return sb.Copy([]byte(s))
}

// BlockCount reports how many arena blocks were allocated. Stats only
func (sb *StringBuffer) BlockCount() int {
	return len(sb.blocks)
}
