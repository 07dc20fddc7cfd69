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
	"bytes"
	"testing"
)

func TestStringBufferCopies(t *testing.T) {
	sb := CreateStringBuffer()
	src := []byte("texturemiddle")
	stored := sb.Copy(src)
	if !bytes.Equal(stored, src) {
		t.Fatalf("stored %q, want %q", stored, src)
	}
	src[0] = 'X'
	if stored[0] == 'X' {
		t.Error("arena slice aliases the caller's buffer")
	}
}

func TestStringBufferManySmall(t *testing.T) {
	sb := CreateStringBuffer()
	var kept [][]byte
	for i := 0; i < 50000; i++ {
		kept = append(kept, sb.CopyString("key"))
	}
	for i, k := range kept {
		if string(k) != "key" {
			t.Fatalf("entry %d corrupted: %q", i, k)
		}
	}
	if sb.BlockCount() < 2 {
		t.Errorf("expected multiple arena blocks, got %d", sb.BlockCount())
	}
}

func TestStringBufferOversized(t *testing.T) {
	sb := CreateStringBuffer()
	big := bytes.Repeat([]byte{0xAB}, STRBUF_BLOCK_SIZE*2)
	stored := sb.Copy(big)
	if !bytes.Equal(stored, big) {
		t.Error("oversized copy corrupted")
	}
	after := sb.CopyString("small")
	if string(after) != "small" {
		t.Errorf("allocation after oversized block corrupted: %q", after)
	}
}

func TestStringBufferEmpty(t *testing.T) {
	sb := CreateStringBuffer()
	if got := sb.Copy(nil); got != nil {
		t.Errorf("empty copy should be nil, got %v", got)
	}
}
