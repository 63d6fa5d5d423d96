package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/KyungWonPark/idx2root/internal/idx"
)

// binTable writes records back to back without a header: little-endian
// int32 labels, or the raw uint8 pixels of each image.
type binTable struct {
	f    *os.File
	w    *bufio.Writer
	kind idx.Kind
}

func newBinTable(path string, hdr idx.Header) (*binTable, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("[BinTable] failed to create file %s: %w", path, err)
	}

	return &binTable{f: f, w: bufio.NewWriter(f), kind: hdr.Kind()}, nil
}

func (t *binTable) Append(rec idx.Record) error {
	var err error
	switch t.kind {
	case idx.Labels:
		err = binary.Write(t.w, binary.LittleEndian, rec.Label)
	case idx.Images:
		_, err = t.w.Write(rec.Pixels)
	}
	if err != nil {
		return fmt.Errorf("[BinTable] failed to write record %d: %w", rec.Index, err)
	}
	return nil
}

func (t *binTable) Close() error {
	if err := t.w.Flush(); err != nil {
		t.f.Close()
		return fmt.Errorf("[BinTable] failed to write %s: %w", t.f.Name(), err)
	}
	return t.f.Close()
}
