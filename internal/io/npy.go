package io

import (
	"fmt"

	"github.com/KyungWonPark/idx2root/internal/idx"
	"github.com/kshedden/gonpy"
)

// npyTable collects records and writes them as a single numpy array on
// Close: int32 with shape (count) for labels, uint8 with shape
// (count, rows, cols) for images.
type npyTable struct {
	path   string
	hdr    idx.Header
	rows   int
	labels []int32
	pixels []uint8
}

func newNpyTable(path string, hdr idx.Header) *npyTable {
	t := &npyTable{path: path, hdr: hdr}
	switch hdr.Kind() {
	case idx.Labels:
		t.labels = make([]int32, 0, reserve(uint64(hdr.Count)))
	case idx.Images:
		t.pixels = make([]uint8, 0, reserve(uint64(hdr.Count)*uint64(hdr.RecordSize())))
	}
	return t
}

func (t *npyTable) Append(rec idx.Record) error {
	switch t.hdr.Kind() {
	case idx.Labels:
		t.labels = append(t.labels, rec.Label)
	case idx.Images:
		t.pixels = append(t.pixels, rec.Pixels...)
	}
	t.rows++
	return nil
}

func (t *npyTable) Close() error {
	w, err := gonpy.NewFileWriter(t.path)
	if err != nil {
		return fmt.Errorf("[NpyTable] failed to open file %s: %w", t.path, err)
	}
	w.Shape = append([]int{t.rows}, t.hdr.Dims()...)
	w.Version = 2

	switch t.hdr.Kind() {
	case idx.Labels:
		err = w.WriteInt32(t.labels)
	case idx.Images:
		err = w.WriteUint8(t.pixels)
	}
	if err != nil {
		return fmt.Errorf("[NpyTable] failed to write file %s: %w", t.path, err)
	}

	return nil
}
