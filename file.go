package qwi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Load decodes the QWI file at path. Failures are returned as *Error naming
// the path.
func Load(ctx context.Context, path string, opts ...ReadOption) (*Image, error) {
	data, unmap, err := openMapped(path)
	if err != nil {
		return nil, newError("load", path, err)
	}
	defer func() { _ = unmap() }()

	opts = append([]ReadOption{WithFilename(path)}, opts...)
	img, err := Decode(ctx, bytes.NewReader(data), opts...)
	if err != nil {
		return nil, newError("load", path, err)
	}
	return img, nil
}

// LoadInfo is Inspect for a file path.
func LoadInfo(ctx context.Context, path string, opts ...ReadOption) (*Info, error) {
	data, unmap, err := openMapped(path)
	if err != nil {
		return nil, newError("inspect", path, err)
	}
	defer func() { _ = unmap() }()

	opts = append([]ReadOption{WithFilename(path)}, opts...)
	info, err := Inspect(ctx, bytes.NewReader(data), opts...)
	if err != nil {
		return nil, newError("inspect", path, err)
	}
	return info, nil
}

func openMapped(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	size := st.Size()
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, nil, fmt.Errorf("%w: file of %d bytes", ErrResource, size)
	}
	if size < fileHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d byte file", ErrTruncated, size)
	}
	data, unmap, err := mapFile(f, int(size))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return data, unmap, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !(err == io.EOF && n == size) {
		return nil, err
	}
	return buf, nil
}

// Save encodes img and writes it to path. The image is fully encoded before
// the file is touched, and the data goes through a temporary file in the same
// directory that replaces path only once completely written.
func Save(ctx context.Context, path string, img *Image, opts ...WriteOption) error {
	cfg := newWriteConfig(opts)
	b, err := buildContainer(ctx, img, cfg)
	if err != nil {
		return newError("save", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return newError("save", path, fmt.Errorf("%w: %w", ErrIO, err))
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return newError("save", path, fmt.Errorf("%w: %w", ErrIO, err))
	}
	if _, err := b.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return newError("save", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return newError("save", path, fmt.Errorf("%w: %w", ErrIO, err))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return newError("save", path, fmt.Errorf("%w: %w", ErrIO, err))
	}
	return nil
}
