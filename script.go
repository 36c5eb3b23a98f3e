package qwi

import (
	"bytes"
	"fmt"
)

// ScriptAttachment is the name under which hosts keep the script blob.
const ScriptAttachment = "code"

type scriptDelimiter struct {
	tag   Tag
	name  string
	open  []byte
	close []byte
}

// scriptDelimiters is both the disassembly scan order and the reassembly order.
var scriptDelimiters = []scriptDelimiter{
	{tag: TagPage, name: "page", open: []byte("<page>"), close: []byte("</page>")},
	{tag: TagFont, name: "font", open: []byte("<font>"), close: []byte("</font>")},
	{tag: TagCode, name: "code", open: []byte("<code>"), close: []byte("</code>")},
}

// DisassembleScript splits a script blob into file-scope sections. Every
// <page> region is extracted first, then every <font>, then every <code>,
// regardless of where they appear in blob. Text outside the delimiters is
// dropped. An opening delimiter without a matching close fails with
// ErrUnterminatedTag.
func DisassembleScript(blob []byte) ([]Section, error) {
	var out []Section
	for _, d := range scriptDelimiters {
		pos := 0
		for {
			i := bytes.Index(blob[pos:], d.open)
			if i < 0 {
				break
			}
			start := pos + i + len(d.open)
			j := bytes.Index(blob[start:], d.close)
			if j < 0 {
				return nil, fmt.Errorf("%w: missing %s for %q section", ErrUnterminatedTag, d.close, d.name)
			}
			payload := make([]byte, j)
			copy(payload, blob[start:start+j])
			out = append(out, Section{Scope: ScopeFile, Tag: d.tag, Payload: payload})
			pos = start + j + len(d.close)
		}
	}
	return out, nil
}

// ReassembleScript rebuilds a script blob from file-scope sections. Regions
// come out grouped as all pages, then all fonts, then all code, each group in
// section order. This is the order DisassembleScript stores them in, not
// necessarily the order the blob was first written in.
// Sections with other tags or element scope are ignored. A nil result means
// there was nothing to reassemble.
func ReassembleScript(sections []Section) []byte {
	var out []byte
	for _, d := range scriptDelimiters {
		for _, s := range sections {
			if s.Scope != ScopeFile || s.Tag != d.tag {
				continue
			}
			out = append(out, d.open...)
			out = append(out, s.Payload...)
			out = append(out, d.close...)
		}
	}
	return out
}

// encodeScript builds the file-scope optional block for blob.
func encodeScript(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	sections, err := DisassembleScript(blob)
	if err != nil {
		return nil, err
	}
	w := NewOptionalWriter(ScopeFile)
	for _, s := range sections {
		if _, err := w.SetSection(s.Tag, s.Payload); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}
