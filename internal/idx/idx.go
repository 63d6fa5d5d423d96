// Package idx decodes IDX files, the binary container of the MNIST
// handwritten digit database (http://yann.lecun.com/exdb/mnist/).
package idx

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic numbers of the two supported IDX files.
const (
	MagicLabels uint32 = 2049
	MagicImages uint32 = 2051
)

// Kind is the record shape announced by the magic number.
type Kind int

// Record kinds
const (
	Labels Kind = iota + 1
	Images
)

// String returns the column name used for records of this kind.
func (k Kind) String() string {
	switch k {
	case Labels:
		return "labels"
	case Images:
		return "images"
	}
	return "unknown"
}

// Header is the fixed part of an IDX file.
// Rows and Cols are only set for image files.
type Header struct {
	Magic uint32
	Count uint32
	Rows  uint32
	Cols  uint32
}

// Kind returns the record shape of the file.
func (h Header) Kind() Kind {
	switch h.Magic {
	case MagicLabels:
		return Labels
	case MagicImages:
		return Images
	}
	return 0
}

// Dims returns the extra dimensions following the record count.
func (h Header) Dims() []int {
	if h.Kind() == Images {
		return []int{int(h.Rows), int(h.Cols)}
	}
	return []int{}
}

// MaxRecordSize bounds rows*cols of an image record.
const MaxRecordSize = 1 << 24

// RecordSize is the number of bytes of one record. It saturates above
// MaxRecordSize; such headers are rejected by Validate.
func (h Header) RecordSize() int {
	if h.Kind() != Images {
		return 1
	}
	n := uint64(h.Rows) * uint64(h.Cols)
	if n > MaxRecordSize {
		return MaxRecordSize + 1
	}
	return int(n)
}

// Validate checks the magic number and the image dimensions.
func (h Header) Validate() error {
	if h.Kind() == 0 {
		return &InvalidFormatError{Magic: h.Magic}
	}
	if n := uint64(h.Rows) * uint64(h.Cols); h.Kind() == Images && n > MaxRecordSize {
		return &InvalidFormatError{
			Magic:  h.Magic,
			Reason: fmt.Sprintf("image of %dx%d pixels exceeds %d bytes", h.Rows, h.Cols, MaxRecordSize),
		}
	}
	return nil
}

// InvalidFormatError reports a magic number which is neither 2049 nor 2051,
// or image dimensions too large to decode.
type InvalidFormatError struct {
	Magic  uint32
	Reason string
}

func (e *InvalidFormatError) Error() string {
	if e.Reason != "" {
		return "not a valid MNIST idx file: " + e.Reason
	}
	return fmt.Sprintf("not a valid MNIST idx file (magic number %d)", e.Magic)
}

// TruncatedInputError reports a stream that ended before the expected
// number of bytes could be read. Record is -1 while reading the header.
type TruncatedInputError struct {
	Record int
	Want   int
	Got    int
}

func (e *TruncatedInputError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("truncated idx header: read %d of %d bytes", e.Got, e.Want)
	}
	return fmt.Sprintf("truncated idx record %d: read %d of %d bytes", e.Record, e.Got, e.Want)
}

// readFull fills buf from r and converts short reads into a TruncatedInputError.
func readFull(r io.Reader, buf []byte, record int) error {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &TruncatedInputError{Record: record, Want: len(buf), Got: n}
	}
	return err
}

// ReadUint32 reads 4 bytes from r as a big-endian unsigned integer.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if err := readFull(r, buf[:], -1); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadHeader reads the magic number, the record count and, for image files,
// the number of rows and columns. The magic number is checked before
// anything else is read.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	var err error

	if h.Magic, err = ReadUint32(r); err != nil {
		return h, err
	}
	if h.Kind() == 0 {
		return h, &InvalidFormatError{Magic: h.Magic}
	}
	if h.Count, err = ReadUint32(r); err != nil {
		return h, err
	}

	if h.Kind() == Images {
		if h.Rows, err = ReadUint32(r); err != nil {
			return h, err
		}
		if h.Cols, err = ReadUint32(r); err != nil {
			return h, err
		}
	}

	return h, h.Validate()
}
