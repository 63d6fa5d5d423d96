package idx

import (
	"io"
)

// Record is one decoded entry of an IDX file.
//
// Label is set for label files. Pixels holds rows*cols bytes in row-major
// order for image files; the slice is reused by the next call to Next.
type Record struct {
	Index  int
	Label  int32
	Pixels []uint8
}

// Decoder reads the records of an IDX file in input order.
type Decoder struct {
	r    io.Reader
	hdr  Header
	next int
	buf  []byte
}

// NewDecoder reads the header from r and returns a decoder positioned on the
// first record.
func NewDecoder(r io.Reader) (*Decoder, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	return &Decoder{
		r:   r,
		hdr: hdr,
		buf: make([]byte, hdr.RecordSize()),
	}, nil
}

// Header returns the header read by NewDecoder.
func (d *Decoder) Header() Header {
	return d.hdr
}

// Next decodes the next record. It returns io.EOF once Count records have
// been read and a *TruncatedInputError if the stream ends early.
func (d *Decoder) Next() (Record, error) {
	if d.next >= int(d.hdr.Count) {
		return Record{}, io.EOF
	}

	if err := readFull(d.r, d.buf, d.next); err != nil {
		return Record{}, err
	}

	rec := Record{Index: d.next}
	switch d.hdr.Kind() {
	case Labels:
		rec.Label = int32(d.buf[0])
	case Images:
		rec.Pixels = d.buf
	}
	d.next++

	return rec, nil
}
