// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package interp

import (
	"encoding/binary"
	"errors"
)

// magic identifies a CodeBlock byte stream; bumped only if the wire layout
// itself (not the opcode set) changes shape.
var magic = [4]byte{'k', 'o', 'r', 'k'}

// codeBlockVersion is opaque and advances whenever the opcode table changes
// in an incompatible way; loaders reject a mismatch rather than guess.
const codeBlockVersion = 1

// ErrBadMagic is returned by Decode when the byte stream doesn't start with
// the CodeBlock magic.
var ErrBadMagic = errors.New("interp: not a CodeBlock")

// ErrVersionMismatch is returned by Decode when the stream's version doesn't
// match codeBlockVersion.
var ErrVersionMismatch = errors.New("interp: CodeBlock version mismatch")

// ErrTruncated is returned by Decode when the stream ends mid-record.
var ErrTruncated = errors.New("interp: truncated CodeBlock")

// FuncEntry is one declared function's metadata, indexed by OpFuncDecl's
// operand. Argument names are resolved through the string pool, matching
// the wire format's FuncRec.
type FuncEntry struct {
	Name     string
	NS       string
	Pkg      string
	ArgNames []string
	EntryIP  int
	EndIP    int
}

// SourceLine maps a bytecode offset to a 1-based source line, used for
// diagnostics only.
type SourceLine struct {
	IP   int
	Line int
}

// CodeBlock is an immutable compiled unit: a string pool, a function table,
// and an opcode stream. Path is the originating source path, consulted by
// pathexpand when resolving relative script paths at runtime.
type CodeBlock struct {
	Path       string
	Strings    []string
	Functions  []FuncEntry
	Code       []byte
	SourceMap  []SourceLine
	GlobalsLen int
}

// lineFor returns the nearest source line at or before ip, 0 if unknown.
func (cb *CodeBlock) lineFor(ip int) int {
	line := 0
	for _, e := range cb.SourceMap {
		if e.IP > ip {
			break
		}
		line = e.Line
	}
	return line
}

// str resolves a string-pool index, returning "" for an out-of-range index
// rather than panicking on a malformed stream.
func (cb *CodeBlock) str(idx uint32) string {
	if int(idx) >= len(cb.Strings) {
		return ""
	}
	return cb.Strings[idx]
}

// Encode serializes cb as: magic, version, globals length, string pool,
// function table, code, source map — all little-endian.
func (cb *CodeBlock) Encode() []byte {
	var buf []byte
	buf = append(buf, magic[:]...)
	buf = appendU32(buf, codeBlockVersion)
	buf = appendU32(buf, uint32(cb.GlobalsLen))

	buf = appendU32(buf, uint32(len(cb.Strings)))
	for _, s := range cb.Strings {
		buf = appendU32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}

	buf = appendU32(buf, uint32(len(cb.Functions)))
	for _, f := range cb.Functions {
		buf = appendStr(buf, f.Name)
		buf = appendStr(buf, f.NS)
		buf = appendStr(buf, f.Pkg)
		buf = appendU32(buf, uint32(len(f.ArgNames)))
		for _, a := range f.ArgNames {
			buf = appendStr(buf, a)
		}
		buf = appendU32(buf, uint32(f.EntryIP))
		buf = appendU32(buf, uint32(f.EndIP))
	}

	buf = appendU32(buf, uint32(len(cb.Code)))
	buf = append(buf, cb.Code...)

	buf = appendU32(buf, uint32(len(cb.SourceMap)))
	for _, e := range cb.SourceMap {
		buf = appendU32(buf, uint32(e.IP))
		buf = appendU32(buf, uint32(e.Line))
	}
	return buf
}

// Decode parses a CodeBlock previously produced by Encode.
func Decode(data []byte) (*CodeBlock, error) {
	if len(data) < 12 || string(data[:4]) != string(magic[:]) {
		return nil, ErrBadMagic
	}
	r := &reader{buf: data[4:]}
	version, err := r.u32()
	if err != nil {
		return nil, err
	}
	if version != codeBlockVersion {
		return nil, ErrVersionMismatch
	}
	globalsLen, err := r.u32()
	if err != nil {
		return nil, err
	}

	cb := &CodeBlock{GlobalsLen: int(globalsLen)}

	nstr, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nstr; i++ {
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		cb.Strings = append(cb.Strings, s)
	}

	nfunc, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nfunc; i++ {
		var f FuncEntry
		if f.Name, err = r.str(); err != nil {
			return nil, err
		}
		if f.NS, err = r.str(); err != nil {
			return nil, err
		}
		if f.Pkg, err = r.str(); err != nil {
			return nil, err
		}
		nargs, err := r.u32()
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < nargs; j++ {
			a, err := r.str()
			if err != nil {
				return nil, err
			}
			f.ArgNames = append(f.ArgNames, a)
		}
		entry, err := r.u32()
		if err != nil {
			return nil, err
		}
		end, err := r.u32()
		if err != nil {
			return nil, err
		}
		f.EntryIP, f.EndIP = int(entry), int(end)
		cb.Functions = append(cb.Functions, f)
	}

	codeLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	cb.Code = code

	nmap, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nmap; i++ {
		ip, err := r.u32()
		if err != nil {
			return nil, err
		}
		line, err := r.u32()
		if err != nil {
			return nil, err
		}
		cb.SourceMap = append(cb.SourceMap, SourceLine{IP: int(ip), Line: int(line)})
	}
	return cb, nil
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendStr(buf []byte, s string) []byte {
	buf = appendU32(buf, uint32(len(s)))
	return append(buf, s...)
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) u32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, ErrTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
