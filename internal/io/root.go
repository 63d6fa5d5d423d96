package io

import (
	"fmt"

	"github.com/KyungWonPark/idx2root/internal/idx"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

// rootTable writes records to a ROOT file as a TTree with one branch:
// "labels" (labels/I) or "images" (std::vector<uint8_t>).
type rootTable struct {
	f    *groot.File
	tree rtree.Writer
	kind idx.Kind

	label int32
	image []uint8
}

func newRootTable(path string, hdr idx.Header, opts Options) (*rootTable, error) {
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("[RootTable] failed to create file %s: %w", path, err)
	}

	t := &rootTable{f: f, kind: hdr.Kind()}

	var wvars []rtree.WriteVar
	switch t.kind {
	case idx.Labels:
		wvars = []rtree.WriteVar{{Name: t.kind.String(), Value: &t.label}}
	case idx.Images:
		t.image = make([]uint8, 0, hdr.RecordSize())
		wvars = []rtree.WriteVar{{Name: t.kind.String(), Value: &t.image}}
	}

	t.tree, err = rtree.NewWriter(f, opts.Name, wvars, rtree.WithTitle(opts.Title))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("[RootTable] failed to create tree %s: %w", opts.Name, err)
	}

	return t, nil
}

func (t *rootTable) Append(rec idx.Record) error {
	switch t.kind {
	case idx.Labels:
		t.label = rec.Label
	case idx.Images:
		t.image = append(t.image[:0], rec.Pixels...)
	}

	if _, err := t.tree.Write(); err != nil {
		return fmt.Errorf("[RootTable] failed to write entry %d: %w", rec.Index, err)
	}
	return nil
}

func (t *rootTable) Close() error {
	err := t.tree.Close()
	if cerr := t.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("[RootTable] failed to close file: %w", err)
	}
	return nil
}
