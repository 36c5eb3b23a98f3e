package qwi

import (
	"errors"
	"strings"
	"testing"
)

func TestDisassembleScript_Order(t *testing.T) {
	blob := []byte("<code>c</code><page>p1</page>junk<font>f</font><page>p2</page>")
	sections, err := DisassembleScript(blob)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		tag     Tag
		payload string
	}{{TagPage, "p1"}, {TagPage, "p2"}, {TagFont, "f"}, {TagCode, "c"}}
	if len(sections) != len(want) {
		t.Fatalf("got %d sections", len(sections))
	}
	for i, w := range want {
		if sections[i].Tag != w.tag || string(sections[i].Payload) != w.payload || sections[i].Scope != ScopeFile {
			t.Fatalf("section %d = %s %q", i, sections[i].Tag, sections[i].Payload)
		}
	}

	got := string(ReassembleScript(sections))
	if got != "<page>p1</page><page>p2</page><font>f</font><code>c</code>" {
		t.Fatalf("reassembled %q", got)
	}
}

func TestDisassembleScript_Unterminated(t *testing.T) {
	_, err := DisassembleScript([]byte("<font>ok</font><page>abc"))
	if !errors.Is(err, ErrUnterminatedTag) || !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrUnterminatedTag, got %v", err)
	}
	if !strings.Contains(err.Error(), "page") {
		t.Fatalf("error does not name the tag: %v", err)
	}
}

func TestDisassembleScript_EmptyRegions(t *testing.T) {
	sections, err := DisassembleScript([]byte("<code></code>"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 || len(sections[0].Payload) != 0 {
		t.Fatalf("sections = %+v", sections)
	}
	block, err := encodeScript([]byte("<code></code>"))
	if err != nil {
		t.Fatal(err)
	}
	back, err := Sections(ScopeFile, block)
	if err != nil {
		t.Fatal(err)
	}
	if string(ReassembleScript(back)) != "<code></code>" {
		t.Fatalf("empty code region lost")
	}
}

func TestReassembleScript_IgnoresOtherSections(t *testing.T) {
	got := ReassembleScript([]Section{
		{Scope: ScopeElement, Tag: TagPage, Payload: []byte("x")},
		{Scope: ScopeFile, Tag: TagName, Payload: []byte("y")},
	})
	if got != nil {
		t.Fatalf("got %q", got)
	}
	if b, err := encodeScript(nil); b != nil || err != nil {
		t.Fatalf("encodeScript(nil) = %v, %v", b, err)
	}
}
