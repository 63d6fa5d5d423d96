// Package convert turns an IDX file into an output table, one row per record.
package convert

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/KyungWonPark/idx2root/internal/idx"
	idxio "github.com/KyungWonPark/idx2root/internal/io"
	"github.com/magneticio/go-common/logging"
)

// FileOpenError reports an input file that could not be opened.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("file %s could not be opened: %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() error {
	return e.Err
}

// Options controls a conversion.
type Options struct {
	Format idxio.Format
	// Suffix appended to the input path. Empty means the format's suffix.
	Suffix string
	Table  idxio.Options
	// Progress prints a line every Progress images. Zero disables it.
	Progress int
	// Report receives the conversion report. Nil discards it.
	Report io.Writer
}

// DefaultOptions converts to ROOT with the MNIST table names.
func DefaultOptions() Options {
	return Options{
		Format:   idxio.FormatROOT,
		Table:    idxio.DefaultOptions(),
		Progress: 1000,
	}
}

// OutputPath returns the file written for input.
func OutputPath(input string, opts Options) string {
	if opts.Suffix != "" {
		return input + opts.Suffix
	}
	return input + opts.Format.Suffix()
}

// Result summarizes a finished conversion.
type Result struct {
	Header  idx.Header
	Output  string
	Records int
}

// Run converts the IDX file at input. On failure after the output file has
// been created, the partial output is removed.
func Run(input string, opts Options) (Result, error) {
	report := opts.Report
	if report == nil {
		report = io.Discard
	}

	f, err := os.Open(input)
	if err != nil {
		return Result{}, &FileOpenError{Path: input, Err: err}
	}
	defer f.Close()

	dec, err := idx.NewDecoder(bufio.NewReader(f))
	if err != nil {
		return Result{}, err
	}

	hdr := dec.Header()
	res := Result{Header: hdr, Output: OutputPath(input, opts)}

	fmt.Fprintf(report, "Magic number: %d\n", hdr.Magic)
	fmt.Fprintf(report, "Number of elements: %d\n", hdr.Count)
	switch hdr.Kind() {
	case idx.Labels:
		fmt.Fprintln(report, "Detected label file.")
	case idx.Images:
		fmt.Fprintln(report, "Detected image file.")
		fmt.Fprintf(report, "ROWS: %d\n", hdr.Rows)
		fmt.Fprintf(report, "COLUMNS: %d\n", hdr.Cols)
	}

	table, err := idxio.Create(opts.Format, res.Output, hdr, opts.Table)
	if err != nil {
		removeOutput(res.Output)
		return res, err
	}

	res.Records, err = copyRecords(dec, table, opts.Progress, report)
	if err != nil {
		table.Close()
		removeOutput(res.Output)
		return res, err
	}

	if err := table.Close(); err != nil {
		removeOutput(res.Output)
		return res, err
	}

	logging.Info("Wrote %d %s to %s\n", res.Records, hdr.Kind(), res.Output)
	return res, nil
}

func copyRecords(dec *idx.Decoder, table idxio.Table, progress int, report io.Writer) (int, error) {
	hdr := dec.Header()
	n := 0
	for {
		rec, err := dec.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		if hdr.Kind() == idx.Images && progress > 0 && rec.Index%progress == 0 {
			fmt.Fprintf(report, "Image %d of %d\n", rec.Index+1, hdr.Count)
		}

		if err := table.Append(rec); err != nil {
			return n, err
		}
		n++
	}
}

func removeOutput(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Error("Failed to remove partial output %s: %v\n", path, err)
	}
}
