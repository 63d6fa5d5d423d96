package io

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/KyungWonPark/idx2root/internal/idx"
	"github.com/gonum/matrix/mat64"
)

// csvTable gathers records as the rows of a matrix and writes one line per
// record on Close. Label rows hold a single value, image rows rows*cols
// pixel values in row-major order.
type csvTable struct {
	f     *os.File
	kind  idx.Kind
	width int
	rows  int
	data  []float64
}

func newCSVTable(path string, hdr idx.Header) (*csvTable, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("[CSVTable] failed to create file %s: %w", path, err)
	}

	width := hdr.RecordSize()
	return &csvTable{
		f:     f,
		kind:  hdr.Kind(),
		width: width,
		data:  make([]float64, 0, reserve(uint64(hdr.Count)*uint64(width))),
	}, nil
}

func (t *csvTable) Append(rec idx.Record) error {
	if t.kind == idx.Labels {
		t.data = append(t.data, float64(rec.Label))
	} else {
		for _, p := range rec.Pixels {
			t.data = append(t.data, float64(p))
		}
	}
	t.rows++
	return nil
}

func (t *csvTable) Close() error {
	w := bufio.NewWriter(t.f)
	if t.rows > 0 && t.width > 0 {
		if err := Mat64toCSV(w, mat64.NewDense(t.rows, t.width, t.data)); err != nil {
			t.f.Close()
			return fmt.Errorf("[CSVTable] failed to write %s: %w", t.f.Name(), err)
		}
	} else {
		// mat64 rejects zero-sized matrices
		for i := 0; i < t.rows; i++ {
			w.WriteString("\n")
		}
	}

	if err := w.Flush(); err != nil {
		t.f.Close()
		return fmt.Errorf("[CSVTable] failed to write %s: %w", t.f.Name(), err)
	}
	return t.f.Close()
}

// Mat64toCSV writes every row of matrix as one comma separated line.
func Mat64toCSV(w *bufio.Writer, matrix *mat64.Dense) error {
	rows, cols := matrix.Dims()

	line := make([]string, cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			line[col] = strconv.FormatFloat(matrix.At(row, col), 'g', -1, 64)
		}
		if _, err := w.WriteString(strings.Join(line, ", ") + "\n"); err != nil {
			return err
		}
	}

	return nil
}

// CSVtoMat64 reads a file written by Mat64toCSV.
func CSVtoMat64(path string) (*mat64.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[CSVtoMat64] failed to open file %s: %w", path, err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.TrimLeadingSpace = true
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("[CSVtoMat64] failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("[CSVtoMat64] %s is empty", path)
	}

	cols := len(records[0])
	matrix := mat64.NewDense(len(records), cols, nil)
	for i, record := range records {
		for j, field := range record {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("[CSVtoMat64] failed to parse line %d: %w", i+1, err)
			}
			matrix.Set(i, j, value)
		}
	}

	return matrix, nil
}
