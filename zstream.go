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
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"
)

// zstream.go - output stream for extended node lumps. The signature is
// written raw; everything after it either stays raw or goes through a
// deflate compressor, depending on which of the two sibling encodings
// was requested. Scalar writers are little-endian throughout.

type ZStream struct {
	raw        *bytes.Buffer
	compressor *zlib.Writer
	target     io.Writer
	finalized  bool
	scratch    [4]byte
}

// CreateZStream starts a stream whose header is written uncompressed.
// compressionLevel is a zlib level, consulted only when compressed is
// true.
func CreateZStream(header []byte, compressed bool, compressionLevel int) (*ZStream, error) {
	z := &ZStream{
		raw: &bytes.Buffer{},
	}
	if header != nil {
		z.raw.Write(header)
	}
	if compressed {
		var err error
		z.compressor, err = zlib.NewWriterLevel(z.raw, compressionLevel)
		if err != nil {
			return nil, err
		}
		z.target = z.compressor
	} else {
		z.target = z.raw
	}
	return z, nil
}

func (z *ZStream) Write(b []byte) (int, error) {
	if z.finalized {
		return 0, errors.New("write to finalized ZStream")
	}
	return z.target.Write(b)
}

func (z *ZStream) WriteUint8(v uint8) error {
	z.scratch[0] = v
	_, err := z.Write(z.scratch[:1])
	return err
}

func (z *ZStream) WriteUint16(v uint16) error {
	binary.LittleEndian.PutUint16(z.scratch[:2], v)
	_, err := z.Write(z.scratch[:2])
	return err
}

func (z *ZStream) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(z.scratch[:4], v)
	_, err := z.Write(z.scratch[:4])
	return err
}

func (z *ZStream) WriteInt16(v int16) error {
	return z.WriteUint16(uint16(v))
}

// WriteFixed emits a 16.16 fixed-point value
func (z *ZStream) WriteFixed(v int32) error {
	return z.WriteUint32(uint32(v))
}

// FinalizeAndGetBytes flushes the compressor (if any) and returns the
// complete lump. Valid once; the compressor is released on every path,
// including the error one.
func (z *ZStream) FinalizeAndGetBytes() ([]byte, error) {
	if z.finalized {
		return nil, errors.New("ZStream already finalized")
	}
	z.finalized = true
	if z.compressor != nil {
		err := z.compressor.Close()
		z.compressor = nil
		if err != nil {
			return nil, err
		}
	}
	return z.raw.Bytes(), nil
}
