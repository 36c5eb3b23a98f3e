//go:build !unix

package qwi

import "os"

func mapFile(f *os.File, size int) ([]byte, func() error, error) {
	data, err := readAllAt(f, size)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
