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
	"encoding/binary"
	"strconv"
)

// loadbin.go - loaders for the fixed-layout binary lumps, in both the
// Doom and the extended (Hexen) record variants. Any malformed record
// or dangling cross-reference aborts the load; the caller never sees a
// partially built Level.

// LoadLevelBinary reads the five geometry lumps of a binary-format map.
// extended selects the Hexen record variants for THINGS and LINEDEFS.
func LoadLevelBinary(src LumpReader, extended bool) (*Level, error) {
	lvl := &Level{Extended: extended}

	required := func(name string) ([]byte, error) {
		data := src.Lump(name)
		if data == nil {
			return nil, &MalformedRecordError{Lump: name, Index: -1,
				Detail: "lump is missing"}
		}
		return data, nil
	}

	data, err := required("VERTEXES")
	if err != nil {
		return nil, err
	}
	if err = lvl.loadVertices(data); err != nil {
		return nil, err
	}

	data, err = required("SECTORS")
	if err != nil {
		return nil, err
	}
	if err = lvl.loadSectors(data); err != nil {
		return nil, err
	}

	data, err = required("SIDEDEFS")
	if err != nil {
		return nil, err
	}
	if err = lvl.loadSidedefs(data); err != nil {
		return nil, err
	}

	data, err = required("LINEDEFS")
	if err != nil {
		return nil, err
	}
	if extended {
		err = lvl.loadLinedefsExt(data)
	} else {
		err = lvl.loadLinedefs(data)
	}
	if err != nil {
		return nil, err
	}

	data, err = required("THINGS")
	if err != nil {
		return nil, err
	}
	if extended {
		err = lvl.loadThingsExt(data)
	} else {
		err = lvl.loadThings(data)
	}
	if err != nil {
		return nil, err
	}

	if err = lvl.finishLoad(); err != nil {
		return nil, err
	}
	return lvl, nil
}

// checkLumpSize validates that a lump divides evenly into records
func checkLumpSize(lump string, data []byte, recSize int) (int, error) {
	if len(data)%recSize != 0 {
		return 0, &MalformedRecordError{Lump: lump, Index: len(data) / recSize,
			Detail: "lump size is not a multiple of record size"}
	}
	return len(data) / recSize, nil
}

func (lvl *Level) loadVertices(data []byte) error {
	count, err := checkLumpSize("VERTEXES", data, DOOM_VERTEX_SIZE)
	if err != nil {
		return err
	}
	raw := make([]MapVertex, count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, raw); err != nil {
		return &MalformedRecordError{Lump: "VERTEXES", Index: -1, Detail: err.Error()}
	}
	lvl.Vertices = make([]VertexEx, count)
	for i, v := range raw {
		lvl.Vertices[i] = VertexEx{
			X: int32(v.XPos) << FRACBITS,
			Y: int32(v.YPos) << FRACBITS,
		}
	}
	lvl.NumOrgVerts = count
	return nil
}

func (lvl *Level) loadSectors(data []byte) error {
	count, err := checkLumpSize("SECTORS", data, DOOM_SECTOR_SIZE)
	if err != nil {
		return err
	}
	raw := make([]MapSector, count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, raw); err != nil {
		return &MalformedRecordError{Lump: "SECTORS", Index: -1, Detail: err.Error()}
	}
	lvl.Sectors = make([]IntSector, count)
	for i, s := range raw {
		lvl.Sectors[i] = IntSector{
			FloorHeight: s.FloorHeight,
			CeilHeight:  s.CeilHeight,
			FloorName:   s.FloorName,
			CeilName:    s.CeilName,
			LightLevel:  int16(s.LightLevel),
			Special:     int16(s.Special),
			Tag:         int16(s.Tag),
		}
	}
	return nil
}

func (lvl *Level) loadSidedefs(data []byte) error {
	count, err := checkLumpSize("SIDEDEFS", data, DOOM_SIDEDEF_SIZE)
	if err != nil {
		return err
	}
	raw := make([]MapSidedef, count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, raw); err != nil {
		return &MalformedRecordError{Lump: "SIDEDEFS", Index: -1, Detail: err.Error()}
	}
	lvl.Sidedefs = make([]IntSidedef, count)
	for i, sd := range raw {
		lvl.Sidedefs[i] = IntSidedef{
			XOffset: sd.XOffset,
			YOffset: sd.YOffset,
			UpName:  sd.UpName,
			LoName:  sd.LoName,
			MidName: sd.MidName,
			Sector:  uint32(sd.Sector),
		}
	}
	return nil
}

func sidenumFromRaw(raw uint16) uint32 {
	if raw == SIDEDEF_NONE {
		return NO_INDEX32
	}
	return uint32(raw)
}

func (lvl *Level) loadLinedefs(data []byte) error {
	count, err := checkLumpSize("LINEDEFS", data, DOOM_LINEDEF_SIZE)
	if err != nil {
		return err
	}
	raw := make([]MapLinedef, count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, raw); err != nil {
		return &MalformedRecordError{Lump: "LINEDEFS", Index: -1, Detail: err.Error()}
	}
	lvl.Linedefs = make([]IntLinedef, count)
	for i, ld := range raw {
		lvl.Linedefs[i] = IntLinedef{
			V1:      uint32(ld.StartVertex),
			V2:      uint32(ld.EndVertex),
			Flags:   ld.Flags,
			Special: ld.Action,
			Sidenum: [2]uint32{
				sidenumFromRaw(ld.FrontSdef),
				sidenumFromRaw(ld.BackSdef),
			},
		}
		lvl.Linedefs[i].Args[0] = int16(ld.Tag)
	}
	return nil
}

func (lvl *Level) loadLinedefsExt(data []byte) error {
	count, err := checkLumpSize("LINEDEFS", data, HEXEN_LINEDEF_SIZE)
	if err != nil {
		return err
	}
	raw := make([]MapLinedefExt, count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, raw); err != nil {
		return &MalformedRecordError{Lump: "LINEDEFS", Index: -1, Detail: err.Error()}
	}
	lvl.Linedefs = make([]IntLinedef, count)
	for i, ld := range raw {
		lvl.Linedefs[i] = IntLinedef{
			V1:      uint32(ld.StartVertex),
			V2:      uint32(ld.EndVertex),
			Flags:   ld.Flags,
			Special: uint16(ld.Action),
			Sidenum: [2]uint32{
				sidenumFromRaw(ld.FrontSdef),
				sidenumFromRaw(ld.BackSdef),
			},
		}
		for j := 0; j < 5; j++ {
			lvl.Linedefs[i].Args[j] = int16(ld.Args[j])
		}
	}
	return nil
}

func (lvl *Level) loadThings(data []byte) error {
	count, err := checkLumpSize("THINGS", data, DOOM_THING_SIZE)
	if err != nil {
		return err
	}
	raw := make([]MapThing, count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, raw); err != nil {
		return &MalformedRecordError{Lump: "THINGS", Index: -1, Detail: err.Error()}
	}
	lvl.Things = make([]IntThing, count)
	for i, t := range raw {
		lvl.Things[i] = IntThing{
			X:     int32(t.XPos) << FRACBITS,
			Y:     int32(t.YPos) << FRACBITS,
			Angle: t.Angle,
			Type:  t.Type,
			Flags: t.Flags,
		}
	}
	return nil
}

func (lvl *Level) loadThingsExt(data []byte) error {
	count, err := checkLumpSize("THINGS", data, HEXEN_THING_SIZE)
	if err != nil {
		return err
	}
	raw := make([]MapThingExt, count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, raw); err != nil {
		return &MalformedRecordError{Lump: "THINGS", Index: -1, Detail: err.Error()}
	}
	lvl.Things = make([]IntThing, count)
	for i, t := range raw {
		lvl.Things[i] = IntThing{
			X:      int32(t.XPos) << FRACBITS,
			Y:      int32(t.YPos) << FRACBITS,
			Height: t.StartingHeight,
			Angle:  t.Angle,
			Type:   t.Type,
			Flags:  t.Flags,
			TID:    t.TID,
			Action: t.Action,
			Args:   t.Args,
		}
	}
	return nil
}

// finishLoad validates cross-references after either loader has filled
// the model. One-past-the-end indices are rejected like any other out
// of range value.
func (lvl *Level) finishLoad() error {
	numVerts := len(lvl.Vertices)
	numSides := len(lvl.Sidedefs)
	numSectors := len(lvl.Sectors)
	for i := range lvl.Linedefs {
		ld := &lvl.Linedefs[i]
		if int(ld.V1) >= numVerts {
			return &IndexOutOfRangeError{Kind: "vertex", Index: int(ld.V1),
				Count: numVerts, Ref: lindefRef(i)}
		}
		if int(ld.V2) >= numVerts {
			return &IndexOutOfRangeError{Kind: "vertex", Index: int(ld.V2),
				Count: numVerts, Ref: lindefRef(i)}
		}
		for side := 0; side < 2; side++ {
			sd := ld.Sidenum[side]
			if sd != NO_INDEX32 && int(sd) >= numSides {
				return &IndexOutOfRangeError{Kind: "sidedef", Index: int(sd),
					Count: numSides, Ref: lindefRef(i)}
			}
		}
		if ld.Sidenum[0] == NO_INDEX32 {
			return &MalformedRecordError{Lump: "LINEDEFS", Index: i,
				Detail: "linedef has no front sidedef"}
		}
	}
	for i := range lvl.Sidedefs {
		if int(lvl.Sidedefs[i].Sector) >= numSectors {
			return &IndexOutOfRangeError{Kind: "sector",
				Index: int(lvl.Sidedefs[i].Sector), Count: numSectors,
				Ref: sidedefRef(i)}
		}
	}
	return nil
}

func lindefRef(i int) string {
	return "linedef " + strconv.Itoa(i)
}

func sidedefRef(i int) string {
	return "sidedef " + strconv.Itoa(i)
}
