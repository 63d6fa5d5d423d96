// Package io writes decoded IDX records to tabular output files.
package io

import (
	"fmt"
	"strings"

	"github.com/KyungWonPark/idx2root/internal/idx"
)

// Format selects the output file type.
type Format string

// Supported output formats
const (
	FormatROOT Format = "root"
	FormatNpy  Format = "npy"
	FormatCSV  Format = "csv"
	FormatBin  Format = "bin"
)

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatROOT, FormatNpy, FormatCSV, FormatBin:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Suffix is the file name suffix appended to the input path.
func (f Format) Suffix() string {
	return "." + string(f)
}

// Table receives records in input order. One row is written per record,
// holding a single column named after the record kind.
// Close finalizes the file; the table must not be used afterwards.
type Table interface {
	Append(rec idx.Record) error
	Close() error
}

// Options describes the output table.
type Options struct {
	// Name of the table (the ROOT tree name).
	Name string
	// Title of the table, only stored by ROOT files.
	Title string
}

// DefaultOptions returns the names used for MNIST conversions.
func DefaultOptions() Options {
	return Options{Name: "MNIST", Title: "MNIST_data"}
}

// capHint bounds the capacity reserved from header fields; tables holding
// every record grow past it as records arrive.
const capHint = 1 << 20

func reserve(n uint64) int {
	if n > capHint {
		return capHint
	}
	return int(n)
}

// Create creates the output file at path for records described by hdr.
func Create(format Format, path string, hdr idx.Header, opts Options) (Table, error) {
	if err := hdr.Validate(); err != nil {
		return nil, err
	}

	switch format {
	case FormatROOT:
		return newRootTable(path, hdr, opts)
	case FormatNpy:
		return newNpyTable(path, hdr), nil
	case FormatCSV:
		return newCSVTable(path, hdr)
	case FormatBin:
		return newBinTable(path, hdr)
	}
	return nil, fmt.Errorf("unknown output format %q", string(format))
}
