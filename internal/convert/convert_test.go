package convert_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/KyungWonPark/idx2root/internal/convert"
	"github.com/KyungWonPark/idx2root/internal/idx"
	idxio "github.com/KyungWonPark/idx2root/internal/io"
	"github.com/magneticio/go-common/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

func TestMain(m *testing.M) {
	logging.Init(io.Discard, io.Discard)
	os.Exit(m.Run())
}

func writeInput(t *testing.T, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func readLabels(t *testing.T, path string) []int32 {
	f, err := groot.Open(path)
	require.NoError(t, err)
	defer f.Close()

	obj, err := f.Get("MNIST")
	require.NoError(t, err)

	var label int32
	r, err := rtree.NewReader(obj.(rtree.Tree), []rtree.ReadVar{{Name: "labels", Value: &label}})
	require.NoError(t, err)
	defer r.Close()

	var got []int32
	require.NoError(t, r.Read(func(ctx rtree.RCtx) error {
		got = append(got, label)
		return nil
	}))
	return got
}

func readImages(t *testing.T, path string) [][]uint8 {
	f, err := groot.Open(path)
	require.NoError(t, err)
	defer f.Close()

	obj, err := f.Get("MNIST")
	require.NoError(t, err)

	var image []uint8
	r, err := rtree.NewReader(obj.(rtree.Tree), []rtree.ReadVar{{Name: "images", Value: &image}})
	require.NoError(t, err)
	defer r.Close()

	var got [][]uint8
	require.NoError(t, r.Read(func(ctx rtree.RCtx) error {
		got = append(got, append([]uint8(nil), image...))
		return nil
	}))
	return got
}

func TestOutputPath(t *testing.T) {
	opts := convert.DefaultOptions()
	assert.Equal(t, "train-labels.idx1-ubyte.root", convert.OutputPath("train-labels.idx1-ubyte", opts))

	opts.Format = idxio.FormatNpy
	assert.Equal(t, "t10k-images.idx3-ubyte.npy", convert.OutputPath("t10k-images.idx3-ubyte", opts))

	opts.Suffix = ".out"
	assert.Equal(t, "x.out", convert.OutputPath("x", opts))
}

func TestRunLabels(t *testing.T) {
	input := writeInput(t, "train-labels.idx1-ubyte", []byte{0, 0, 8, 1, 0, 0, 0, 3, 5, 0, 9})

	var report bytes.Buffer
	opts := convert.DefaultOptions()
	opts.Report = &report

	res, err := convert.Run(input, opts)
	require.NoError(t, err)

	assert.Equal(t, input+".root", res.Output)
	assert.Equal(t, 3, res.Records)
	assert.Equal(t, idx.Labels, res.Header.Kind())
	assert.Equal(t, []int32{5, 0, 9}, readLabels(t, res.Output))

	assert.Equal(t, "Magic number: 2049\nNumber of elements: 3\nDetected label file.\n", report.String())
}

func TestRunImages(t *testing.T) {
	input := writeInput(t, "images.idx3-ubyte", []byte{
		0, 0, 8, 3, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 2,
		1, 2, 3, 4,
	})

	var report bytes.Buffer
	opts := convert.DefaultOptions()
	opts.Report = &report

	res, err := convert.Run(input, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Records)
	assert.Equal(t, [][]uint8{{1, 2, 3, 4}}, readImages(t, res.Output))
	assert.Contains(t, report.String(), "Detected image file.\nROWS: 2\nCOLUMNS: 2\n")
	assert.Contains(t, report.String(), "Image 1 of 1\n")
}

func TestRunImagesProgress(t *testing.T) {
	const count = 25
	in := []byte{0, 0, 8, 3, 0, 0, 0, count, 0, 0, 0, 1, 0, 0, 0, 1}
	for i := 0; i < count; i++ {
		in = append(in, byte(i))
	}
	input := writeInput(t, "images", in)

	var report bytes.Buffer
	opts := convert.DefaultOptions()
	opts.Report = &report
	opts.Progress = 10

	res, err := convert.Run(input, opts)
	require.NoError(t, err)
	assert.Equal(t, count, res.Records)

	out := report.String()
	assert.Contains(t, out, "Image 1 of 25\n")
	assert.Contains(t, out, "Image 11 of 25\n")
	assert.Contains(t, out, "Image 21 of 25\n")
	assert.NotContains(t, out, "Image 2 of 25\n")

	got := readImages(t, res.Output)
	require.Len(t, got, count)
	for i, img := range got {
		assert.Equal(t, []uint8{uint8(i)}, img)
	}
}

func TestRunEmpty(t *testing.T) {
	input := writeInput(t, "empty", []byte{0, 0, 8, 1, 0, 0, 0, 0})

	res, err := convert.Run(input, convert.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Records)
	assert.FileExists(t, res.Output)
}

func TestRunFormats(t *testing.T) {
	for _, format := range []idxio.Format{idxio.FormatNpy, idxio.FormatCSV, idxio.FormatBin} {
		input := writeInput(t, "labels", []byte{0, 0, 8, 1, 0, 0, 0, 2, 7, 1})

		opts := convert.DefaultOptions()
		opts.Format = format

		res, err := convert.Run(input, opts)
		require.NoError(t, err, format)
		assert.Equal(t, input+format.Suffix(), res.Output)
		assert.FileExists(t, res.Output)
		assert.Equal(t, 2, res.Records)
	}
}

func TestRunMissingInput(t *testing.T) {
	_, err := convert.Run(filepath.Join(t.TempDir(), "missing"), convert.DefaultOptions())

	var oerr *convert.FileOpenError
	require.True(t, errors.As(err, &oerr))
	assert.True(t, os.IsNotExist(errors.Unwrap(err)))
}

func TestRunInvalidMagic(t *testing.T) {
	input := writeInput(t, "bogus", []byte{0, 0, 8, 2, 0, 0, 0, 1, 0})

	_, err := convert.Run(input, convert.DefaultOptions())

	var ferr *idx.InvalidFormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, uint32(2050), ferr.Magic)
	assert.NoFileExists(t, input+".root")
}

func TestRunTruncatedRemovesOutput(t *testing.T) {
	for _, format := range []idxio.Format{idxio.FormatROOT, idxio.FormatNpy, idxio.FormatCSV, idxio.FormatBin} {
		input := writeInput(t, "short-labels", []byte{0, 0, 8, 1, 0, 0, 0, 5, 1, 2, 3})

		opts := convert.DefaultOptions()
		opts.Format = format

		res, err := convert.Run(input, opts)

		var terr *idx.TruncatedInputError
		require.True(t, errors.As(err, &terr), format)
		assert.Equal(t, 3, terr.Record)
		assert.NoFileExists(t, res.Output)
	}
}

func TestRunShortFileInvalidMagic(t *testing.T) {
	input := writeInput(t, "image.png", []byte{0x89, 'P', 'N', 'G'})

	_, err := convert.Run(input, convert.DefaultOptions())

	var ferr *idx.InvalidFormatError
	require.True(t, errors.As(err, &ferr))
	assert.NoFileExists(t, input+".root")
}

func TestRunOversizedImage(t *testing.T) {
	input := writeInput(t, "huge", []byte{
		0, 0, 8, 3, 0, 0, 0, 1, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		1, 2,
	})

	for _, format := range []idxio.Format{idxio.FormatROOT, idxio.FormatNpy, idxio.FormatCSV, idxio.FormatBin} {
		opts := convert.DefaultOptions()
		opts.Format = format

		res, err := convert.Run(input, opts)

		var ferr *idx.InvalidFormatError
		require.True(t, errors.As(err, &ferr), format)
		assert.NoFileExists(t, convert.OutputPath(input, opts))
		assert.Equal(t, 0, res.Records)
	}
}

func TestRunLargeCountTruncated(t *testing.T) {
	input := writeInput(t, "images", []byte{
		0, 0, 8, 3, 0x7f, 0xff, 0xff, 0xff, 0, 0, 0, 28, 0, 0, 0, 28,
		1, 2,
	})

	for _, format := range []idxio.Format{idxio.FormatROOT, idxio.FormatNpy, idxio.FormatCSV, idxio.FormatBin} {
		opts := convert.DefaultOptions()
		opts.Format = format

		res, err := convert.Run(input, opts)

		var terr *idx.TruncatedInputError
		require.True(t, errors.As(err, &terr), format)
		assert.Equal(t, 0, terr.Record)
		assert.Equal(t, 784, terr.Want)
		assert.Equal(t, 2, terr.Got)
		assert.NoFileExists(t, res.Output)
	}
}

func TestRunTruncatedHeader(t *testing.T) {
	input := writeInput(t, "header", []byte{0, 0, 8})

	_, err := convert.Run(input, convert.DefaultOptions())

	var terr *idx.TruncatedInputError
	require.True(t, errors.As(err, &terr))
	assert.NoFileExists(t, input+".root")
}
