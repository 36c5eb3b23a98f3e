package qwi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ErrorKinds(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.qwi")
	_, err := Load(testCtx(), missing)
	var qe *Error
	if !errors.As(err, &qe) || qe.Kind != KindIO {
		t.Fatalf("missing file: %v", err)
	}
	if qe.Op != "load" || qe.Path != missing {
		t.Fatalf("error fields = %+v", qe)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Fatalf("message does not name the file: %v", err)
	}

	garbage := filepath.Join(dir, "garbage.qwi")
	if err := os.WriteFile(garbage, []byte(strings.Repeat("x", 64)), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(testCtx(), garbage)
	if !errors.As(err, &qe) || qe.Kind != KindFormat || !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("garbage file: %v", err)
	}

	short := filepath.Join(dir, "short.qwi")
	if err := os.WriteFile(short, []byte("QWI!"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadInfo(testCtx(), short)
	if !errors.As(err, &qe) || qe.Kind != KindFormat || qe.Op != "inspect" || !errors.Is(err, ErrTruncated) {
		t.Fatalf("short file: %v", err)
	}
}

func TestSaveLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.qwi")
	in := &Image{
		Layers: []Layer{grayLayer("Background", 40, 30, 0), rgbaLayer("Top", 10, 10)},
		Script: []byte("<page>1</page>"),
	}
	if err := Save(testCtx(), path, in, WithCompression(CompLZ4)); err != nil {
		t.Fatal(err)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0o644 {
		t.Fatalf("mode = %v", st.Mode().Perm())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %d entries", len(entries))
	}

	got, err := Load(testCtx(), path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Filename != path || len(got.Layers) != 2 || got.Layers[1].Name != "Top" {
		t.Fatalf("loaded %q with %d layers", got.Filename, len(got.Layers))
	}
	if string(got.Script) != "<page>1</page>" {
		t.Fatalf("script = %q", got.Script)
	}

	info, err := LoadInfo(testCtx(), path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Type != "multilayer" || len(info.Elements) != 2 || info.Elements[1].Planes != 4 {
		t.Fatalf("info = %+v", info)
	}
}

func TestSave_SingleImageNamedAfterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sunset.qwi")
	if err := Save(testCtx(), path, &Image{Layers: []Layer{grayLayer("ignored", 8, 8, 0)}}); err != nil {
		t.Fatal(err)
	}
	got, err := Load(testCtx(), path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Layers[0].Name != "sunset" {
		t.Fatalf("name = %q, want sunset", got.Layers[0].Name)
	}
}

func TestSave_ValidationLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.qwi")
	err := Save(testCtx(), path, nil)
	var qe *Error
	if !errors.As(err, &qe) || qe.Kind != KindValidation || qe.Op != "save" {
		t.Fatalf("nil image: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("directory has %d entries", len(entries))
	}
}

func TestSave_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testCtx())
	cancel()
	path := filepath.Join(t.TempDir(), "out.qwi")
	in := &Image{Layers: []Layer{grayLayer("", 8, 8, 0), grayLayer("", 8, 8, 1)}}
	err := Save(ctx, path, in)
	var qe *Error
	if !errors.As(err, &qe) || qe.Kind != KindCancelled {
		t.Fatalf("expected KindCancelled, got %v", err)
	}
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation cause lost: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file created: %v", err)
	}
}

func TestSave_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.qwi")
	err := Save(testCtx(), path, &Image{Layers: []Layer{grayLayer("", 4, 4, 0)}})
	var qe *Error
	if !errors.As(err, &qe) || qe.Kind != KindIO {
		t.Fatalf("expected KindIO, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{ErrTruncated, KindFormat},
		{fmt.Errorf("element 3: %w", ErrInvalidBitstream), KindFormat},
		{ErrLimitExceeded, KindResource},
		{ErrResource, KindResource},
		{ErrVersionMismatch, KindVersion},
		{ErrValidation, KindValidation},
		{cancelled(context.DeadlineExceeded), KindCancelled},
		{context.Canceled, KindCancelled},
		{io.ErrClosedPipe, KindIO},
	}
	for _, c := range cases {
		if got := classify(c.err); got != c.want {
			t.Errorf("classify(%v) = %s, want %s", c.err, got, c.want)
		}
	}
	if ErrorKind(42).String() != "unknown" {
		t.Fatal("ErrorKind.String")
	}
}

func TestNewError(t *testing.T) {
	if newError("load", "x", nil) != nil {
		t.Fatal("nil error wrapped")
	}
	inner := newError("load", "a.qwi", ErrTruncated)
	outer := newError("save", "b.qwi", inner)
	if outer != inner {
		t.Fatal("*Error wrapped twice")
	}
	if !errors.Is(outer, ErrFormat) {
		t.Fatal("Unwrap lost the cause")
	}
}

func TestReadErr(t *testing.T) {
	if err := readErr("x", io.EOF); !errors.Is(err, ErrTruncated) {
		t.Fatalf("EOF: %v", err)
	}
	if err := readErr("x", io.ErrUnexpectedEOF); !errors.Is(err, ErrTruncated) {
		t.Fatalf("unexpected EOF: %v", err)
	}
	err := readErr("x", io.ErrClosedPipe)
	if !errors.Is(err, ErrIO) || !errors.Is(err, io.ErrClosedPipe) || errors.Is(err, ErrFormat) {
		t.Fatalf("closed pipe: %v", err)
	}
}
