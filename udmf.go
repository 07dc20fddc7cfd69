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
	"strconv"
	"strings"
)

// udmf.go - loader for the text map format, plus TEXTMAP write-back.
// The tokenizer is a boundary: parsing happens over the Scanner
// interface, with TextScanner as the bundled implementation. Keys this
// compiler does not interpret are retained verbatim (arena-backed) and
// written back, so a recompile never strips an editor's or engine's
// custom properties.

type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokNumber
	TokString
	TokAssign
	TokSemicolon
	TokOpenBlock
	TokCloseBlock
)

type Token struct {
	Kind TokenKind
	Text string
}

// Scanner yields text-format tokens. Implementations report io/lex
// errors through the second return; EOF is a token, not an error.
type Scanner interface {
	Next() (Token, error)
}

// TextScanner lexes an in-memory TEXTMAP lump
type TextScanner struct {
	data []byte
	pos  int
	line int
}

func NewTextScanner(data []byte) *TextScanner {
	return &TextScanner{data: data, line: 1}
}

func (s *TextScanner) Next() (Token, error) {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return Token{Kind: TokEOF}, nil
	}
	ch := s.data[s.pos]
	switch ch {
	case '=':
		s.pos++
		return Token{Kind: TokAssign, Text: "="}, nil
	case ';':
		s.pos++
		return Token{Kind: TokSemicolon, Text: ";"}, nil
	case '{':
		s.pos++
		return Token{Kind: TokOpenBlock, Text: "{"}, nil
	case '}':
		s.pos++
		return Token{Kind: TokCloseBlock, Text: "}"}, nil
	case '"':
		return s.lexString()
	}
	if isIdentStart(ch) {
		start := s.pos
		for s.pos < len(s.data) && isIdentChar(s.data[s.pos]) {
			s.pos++
		}
		return Token{Kind: TokIdent, Text: string(s.data[start:s.pos])}, nil
	}
	if isNumberStart(ch) {
		start := s.pos
		s.pos++
		for s.pos < len(s.data) && isNumberChar(s.data[s.pos]) {
			s.pos++
		}
		return Token{Kind: TokNumber, Text: string(s.data[start:s.pos])}, nil
	}
	return Token{}, fmt.Errorf("TEXTMAP line %d: unexpected character %q",
		s.line, rune(ch))
}

func (s *TextScanner) skipSpace() {
	for s.pos < len(s.data) {
		ch := s.data[s.pos]
		if ch == '\n' {
			s.line++
			s.pos++
		} else if ch == ' ' || ch == '\t' || ch == '\r' {
			s.pos++
		} else if ch == '/' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '/' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' {
				s.pos++
			}
		} else if ch == '/' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '*' {
			s.pos += 2
			for s.pos+1 < len(s.data) &&
				!(s.data[s.pos] == '*' && s.data[s.pos+1] == '/') {
				if s.data[s.pos] == '\n' {
					s.line++
				}
				s.pos++
			}
			s.pos += 2
		} else {
			break
		}
	}
}

func (s *TextScanner) lexString() (Token, error) {
	start := s.pos
	s.pos++ // opening quote
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case '\\':
			s.pos += 2
		case '"':
			s.pos++
			unquoted, err := strconv.Unquote(string(s.data[start:s.pos]))
			if err != nil {
				return Token{}, fmt.Errorf("TEXTMAP line %d: bad string literal",
					s.line)
			}
			return Token{Kind: TokString, Text: unquoted}, nil
		case '\n':
			s.line++
			s.pos++
		default:
			s.pos++
		}
	}
	return Token{}, fmt.Errorf("TEXTMAP line %d: unterminated string", s.line)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func isNumberStart(ch byte) bool {
	return ch == '+' || ch == '-' || ch == '.' || (ch >= '0' && ch <= '9')
}

func isNumberChar(ch byte) bool {
	return isNumberStart(ch) || ch == 'x' || ch == 'X' || ch == 'e' ||
		ch == 'E' || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// --- typed property accessors ---

func checkInt(key, val string) (int64, error) {
	v, err := strconv.ParseInt(val, 0, 64)
	if err != nil {
		return 0, &PropertyTypeMismatchError{Key: key, Want: "integer", Got: val}
	}
	return v, nil
}

func checkFloat(key, val string) (float64, error) {
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, &PropertyTypeMismatchError{Key: key, Want: "float", Got: val}
	}
	return v, nil
}

// checkFixed accepts either notation and converts to 16.16 fixed point
func checkFixed(key, val string) (int32, error) {
	v, err := checkFloat(key, val)
	if err != nil {
		return 0, err
	}
	return floatToFixed(v), nil
}

func checkBool(key, val string) (bool, error) {
	switch val {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &PropertyTypeMismatchError{Key: key, Want: "boolean", Got: val}
}

// --- parser ---

type textParser struct {
	sc    Scanner
	lvl   *Level
	arena *StringBuffer
}

// ParseTextMap builds a Level from a text-format token stream. The
// arena receives every retained string; it must outlive the Level.
func ParseTextMap(sc Scanner, arena *StringBuffer) (*Level, error) {
	p := &textParser{
		sc:    sc,
		lvl:   &Level{TextFormat: true},
		arena: arena,
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	if err := p.lvl.finishLoad(); err != nil {
		return nil, err
	}
	p.lvl.NumOrgVerts = len(p.lvl.Vertices)
	return p.lvl, nil
}

func (p *textParser) run() error {
	for {
		tok, err := p.sc.Next()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokEOF:
			return nil
		case TokIdent:
			// either "key = value ;" or "blocktype { ... }"
			next, err := p.sc.Next()
			if err != nil {
				return err
			}
			switch next.Kind {
			case TokAssign:
				val, err := p.readValue(tok.Text)
				if err != nil {
					return err
				}
				p.lvl.MapProps = append(p.lvl.MapProps, p.retain(tok.Text, val))
			case TokOpenBlock:
				if err := p.parseBlock(strings.ToLower(tok.Text)); err != nil {
					return err
				}
			default:
				return &MalformedRecordError{Lump: "TEXTMAP", Index: -1,
					Detail: fmt.Sprintf("expected '=' or '{' after %q", tok.Text)}
			}
		default:
			return &MalformedRecordError{Lump: "TEXTMAP", Index: -1,
				Detail: fmt.Sprintf("unexpected token %q at top level", tok.Text)}
		}
	}
}

// readValue consumes "value ;" after an assign and returns the value
// token. String values keep their quoted spelling for exact write-back.
func (p *textParser) readValue(key string) (Token, error) {
	val, err := p.sc.Next()
	if err != nil {
		return Token{}, err
	}
	switch val.Kind {
	case TokNumber, TokString:
	case TokIdent:
		// true/false keywords arrive as idents
	default:
		return Token{}, &MalformedRecordError{Lump: "TEXTMAP", Index: -1,
			Detail: fmt.Sprintf("missing value for key %q", key)}
	}
	semi, err := p.sc.Next()
	if err != nil {
		return Token{}, err
	}
	if semi.Kind != TokSemicolon {
		return Token{}, &MalformedRecordError{Lump: "TEXTMAP", Index: -1,
			Detail: fmt.Sprintf("missing ';' after value of %q", key)}
	}
	return val, nil
}

// retain interns a key/value pair for write-back
func (p *textParser) retain(key string, val Token) UdmfKey {
	stored := val.Text
	if val.Kind == TokString {
		stored = strconv.Quote(val.Text)
	}
	return UdmfKey{
		Key:   p.arena.CopyString(strings.ToLower(key)),
		Value: p.arena.CopyString(stored),
	}
}

// rawProp is a block property before type dispatch
type rawProp struct {
	key string
	val Token
}

func (p *textParser) collectBlock() ([]rawProp, error) {
	var props []rawProp
	for {
		tok, err := p.sc.Next()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case TokCloseBlock:
			return props, nil
		case TokIdent:
			next, err := p.sc.Next()
			if err != nil {
				return nil, err
			}
			if next.Kind != TokAssign {
				return nil, &MalformedRecordError{Lump: "TEXTMAP", Index: -1,
					Detail: fmt.Sprintf("expected '=' after key %q", tok.Text)}
			}
			val, err := p.readValue(tok.Text)
			if err != nil {
				return nil, err
			}
			props = append(props, rawProp{key: strings.ToLower(tok.Text), val: val})
		case TokEOF:
			return nil, &MalformedRecordError{Lump: "TEXTMAP", Index: -1,
				Detail: "unterminated block"}
		default:
			return nil, &MalformedRecordError{Lump: "TEXTMAP", Index: -1,
				Detail: fmt.Sprintf("unexpected token %q inside block", tok.Text)}
		}
	}
}

func (p *textParser) parseBlock(blockType string) error {
	props, err := p.collectBlock()
	if err != nil {
		return err
	}
	switch blockType {
	case "thing":
		return p.parseThing(props)
	case "vertex":
		return p.parseVertex(props)
	case "linedef":
		return p.parseLinedef(props)
	case "sidedef":
		return p.parseSidedef(props)
	case "sector":
		return p.parseSector(props)
	}
	Log.Verbose(1, "Ignoring unknown TEXTMAP block type %q\n", blockType)
	return nil
}

func (p *textParser) parseThing(props []rawProp) error {
	t := IntThing{}
	for _, kv := range props {
		switch kv.key {
		case "x":
			fx, err := checkFixed(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			t.X = fx
		case "y":
			fy, err := checkFixed(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			t.Y = fy
		case "height":
			fh, err := checkFixed(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			t.Height = int16(fh >> FRACBITS)
		case "angle":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			t.Angle = int16(v)
		case "type":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			t.Type = int16(v)
		case "id":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			t.TID = int16(v)
		case "special":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			t.Action = uint8(v)
		case "arg0", "arg1", "arg2", "arg3", "arg4":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			t.Args[kv.key[3]-'0'] = byte(v)
		default:
			t.Props = append(t.Props, p.retain(kv.key, kv.val))
		}
	}
	p.lvl.Things = append(p.lvl.Things, t)
	return nil
}

func (p *textParser) parseVertex(props []rawProp) error {
	v := VertexEx{}
	for _, kv := range props {
		switch kv.key {
		case "x":
			fx, err := checkFixed(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			v.X = fx
		case "y":
			fy, err := checkFixed(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			v.Y = fy
		default:
			// vertices have no retained property storage; drop silently
		}
	}
	p.lvl.Vertices = append(p.lvl.Vertices, v)
	return nil
}

// linedef flag keys handled natively; everything else is retained
var udmfLineFlags = map[string]uint16{
	"blocking":      LF_IMPASSABLE,
	"blockmonsters": LF_BLOCK_MONSTER,
	"twosided":      LF_TWOSIDED,
	"dontpegtop":    LF_UPPER_UNPEGGED,
	"dontpegbottom": LF_LOWER_UNPEGGED,
	"secret":        LF_SECRET,
	"blocksound":    LF_BLOCK_SOUND,
	"dontdraw":      LF_NEVER_ON_AUTOMAP,
	"mapped":        LF_ALWAYS_ON_AUTOMAP,
}

func (p *textParser) parseLinedef(props []rawProp) error {
	ld := IntLinedef{Sidenum: [2]uint32{NO_INDEX32, NO_INDEX32}}
	for _, kv := range props {
		if bit, ok := udmfLineFlags[kv.key]; ok {
			set, err := checkBool(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			if set {
				ld.Flags |= bit
			}
			continue
		}
		switch kv.key {
		case "v1":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			ld.V1 = uint32(v)
		case "v2":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			ld.V2 = uint32(v)
		case "special":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			ld.Special = uint16(v)
		case "id":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			ld.Args[0] = int16(v)
		case "arg0", "arg1", "arg2", "arg3", "arg4":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			ld.Args[kv.key[3]-'0'] = int16(v)
		case "sidefront":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			ld.Sidenum[0] = uint32(v)
		case "sideback":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			ld.Sidenum[1] = uint32(v)
		default:
			ld.Props = append(ld.Props, p.retain(kv.key, kv.val))
		}
	}
	p.lvl.Linedefs = append(p.lvl.Linedefs, ld)
	return nil
}

func (p *textParser) parseSidedef(props []rawProp) error {
	sd := IntSidedef{
		UpName:  texName("-"),
		LoName:  texName("-"),
		MidName: texName("-"),
	}
	for _, kv := range props {
		switch kv.key {
		case "offsetx":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			sd.XOffset = int16(v)
		case "offsety":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			sd.YOffset = int16(v)
		case "texturetop":
			sd.UpName = texName(kv.val.Text)
		case "texturebottom":
			sd.LoName = texName(kv.val.Text)
		case "texturemiddle":
			sd.MidName = texName(kv.val.Text)
		case "sector":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			sd.Sector = uint32(v)
		default:
			sd.Props = append(sd.Props, p.retain(kv.key, kv.val))
		}
	}
	p.lvl.Sidedefs = append(p.lvl.Sidedefs, sd)
	return nil
}

func (p *textParser) parseSector(props []rawProp) error {
	sec := IntSector{}
	for _, kv := range props {
		switch kv.key {
		case "heightfloor":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			sec.FloorHeight = int16(v)
		case "heightceiling":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			sec.CeilHeight = int16(v)
		case "texturefloor":
			sec.FloorName = texName(kv.val.Text)
		case "textureceiling":
			sec.CeilName = texName(kv.val.Text)
		case "lightlevel":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			sec.LightLevel = int16(v)
		case "special":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			sec.Special = int16(v)
		case "id":
			v, err := checkInt(kv.key, kv.val.Text)
			if err != nil {
				return err
			}
			sec.Tag = int16(v)
		default:
			sec.Props = append(sec.Props, p.retain(kv.key, kv.val))
		}
	}
	p.lvl.Sectors = append(p.lvl.Sectors, sec)
	return nil
}

func texName(s string) [8]byte {
	var ret [8]byte
	copy(ret[:], s)
	return ret
}

func texString(name [8]byte) string {
	end := 0
	for end < 8 && name[end] != 0 {
		end++
	}
	return string(name[:end])
}

// --- write-back ---

// WriteTextMap regenerates the TEXTMAP lump from the model: native
// fields first, then retained properties verbatim. Builder-added
// vertices are included so the emitted nodes reference valid indices.
func WriteTextMap(lw LumpWriter, lvl *Level, cfg *NodeConfig) error {
	var b strings.Builder
	for _, kv := range lvl.MapProps {
		fmt.Fprintf(&b, "%s = %s;\n", kv.Key, kv.Value)
	}
	b.WriteByte('\n')
	for i := range lvl.Things {
		t := &lvl.Things[i]
		writeBlockComment(&b, cfg, "thing", i)
		b.WriteString("thing\n{\n")
		fmt.Fprintf(&b, "x = %s;\n", fixedProp(t.X))
		fmt.Fprintf(&b, "y = %s;\n", fixedProp(t.Y))
		writeIntProp(&b, "height", int64(t.Height), 0)
		writeIntProp(&b, "angle", int64(t.Angle), 0)
		fmt.Fprintf(&b, "type = %d;\n", t.Type)
		writeIntProp(&b, "id", int64(t.TID), 0)
		writeIntProp(&b, "special", int64(t.Action), 0)
		for j, arg := range t.Args {
			writeIntProp(&b, fmt.Sprintf("arg%d", j), int64(arg), 0)
		}
		writeRetained(&b, t.Props)
		b.WriteString("}\n\n")
	}
	for i := range lvl.Vertices {
		writeBlockComment(&b, cfg, "vertex", i)
		b.WriteString("vertex\n{\n")
		fmt.Fprintf(&b, "x = %s;\n", fixedProp(lvl.Vertices[i].X))
		fmt.Fprintf(&b, "y = %s;\n", fixedProp(lvl.Vertices[i].Y))
		b.WriteString("}\n\n")
	}
	for i := range lvl.Linedefs {
		ld := &lvl.Linedefs[i]
		writeBlockComment(&b, cfg, "linedef", i)
		b.WriteString("linedef\n{\n")
		fmt.Fprintf(&b, "v1 = %d;\n", ld.V1)
		fmt.Fprintf(&b, "v2 = %d;\n", ld.V2)
		for _, key := range udmfLineFlagsOrdered {
			if ld.Flags&udmfLineFlags[key] != 0 {
				fmt.Fprintf(&b, "%s = true;\n", key)
			}
		}
		writeIntProp(&b, "special", int64(ld.Special), 0)
		writeIntProp(&b, "id", int64(ld.Args[0]), 0)
		for j := 1; j < 5; j++ {
			writeIntProp(&b, fmt.Sprintf("arg%d", j), int64(ld.Args[j]), 0)
		}
		fmt.Fprintf(&b, "sidefront = %d;\n", int32(ld.Sidenum[0]))
		if ld.Sidenum[1] != NO_INDEX32 {
			fmt.Fprintf(&b, "sideback = %d;\n", ld.Sidenum[1])
		}
		writeRetained(&b, ld.Props)
		b.WriteString("}\n\n")
	}
	for i := range lvl.Sidedefs {
		sd := &lvl.Sidedefs[i]
		writeBlockComment(&b, cfg, "sidedef", i)
		b.WriteString("sidedef\n{\n")
		writeIntProp(&b, "offsetx", int64(sd.XOffset), 0)
		writeIntProp(&b, "offsety", int64(sd.YOffset), 0)
		writeTexProp(&b, "texturetop", sd.UpName)
		writeTexProp(&b, "texturebottom", sd.LoName)
		writeTexProp(&b, "texturemiddle", sd.MidName)
		fmt.Fprintf(&b, "sector = %d;\n", sd.Sector)
		writeRetained(&b, sd.Props)
		b.WriteString("}\n\n")
	}
	for i := range lvl.Sectors {
		sec := &lvl.Sectors[i]
		writeBlockComment(&b, cfg, "sector", i)
		b.WriteString("sector\n{\n")
		writeIntProp(&b, "heightfloor", int64(sec.FloorHeight), 0)
		writeIntProp(&b, "heightceiling", int64(sec.CeilHeight), 0)
		writeTexProp(&b, "texturefloor", sec.FloorName)
		writeTexProp(&b, "textureceiling", sec.CeilName)
		writeIntProp(&b, "lightlevel", int64(sec.LightLevel), 160)
		writeIntProp(&b, "special", int64(sec.Special), 0)
		writeIntProp(&b, "id", int64(sec.Tag), 0)
		writeRetained(&b, sec.Props)
		b.WriteString("}\n\n")
	}
	return lw.WriteLump("TEXTMAP", []byte(b.String()))
}

// emission order for flag keys; map iteration order is not stable
var udmfLineFlagsOrdered = []string{
	"blocking", "blockmonsters", "twosided", "dontpegtop", "dontpegbottom",
	"secret", "blocksound", "dontdraw", "mapped",
}

func writeBlockComment(b *strings.Builder, cfg *NodeConfig, kind string, index int) {
	if cfg != nil && cfg.WriteComments {
		fmt.Fprintf(b, "// %s %d\n", kind, index)
	}
}

// writeRetained emits the properties the parser kept verbatim; string
// values still carry their quoted spelling
func writeRetained(b *strings.Builder, props []UdmfKey) {
	for _, kv := range props {
		fmt.Fprintf(b, "%s = %s;\n", kv.Key, kv.Value)
	}
}

// writeIntProp skips values equal to the format's default
func writeIntProp(b *strings.Builder, key string, v int64, def int64) {
	if v != def {
		fmt.Fprintf(b, "%s = %d;\n", key, v)
	}
}

func writeTexProp(b *strings.Builder, key string, name [8]byte) {
	if IsEmptyTexture(name[:]) || name[0] == 0 {
		return
	}
	fmt.Fprintf(b, "%s = %s;\n", key, strconv.Quote(texString(name)))
}

// fixedProp prints a fixed-point coordinate the shortest exact way
func fixedProp(v int32) string {
	if v%FRACUNIT == 0 {
		return strconv.Itoa(int(v >> FRACBITS))
	}
	return strconv.FormatFloat(fixedToFloat(v), 'f', -1, 64)
}
