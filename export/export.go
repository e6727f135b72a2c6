// Package export writes CTF matrices, radial profiles and probes to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sbl8/ssbctf/core"
	"github.com/sbl8/ssbctf/ssb"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteMatrixCSV writes m row by row, one CSV record per row.
func WriteMatrixCSV(w io.Writer, m mat.Matrix) error {
	r, c := m.Dims()
	cw := csv.NewWriter(w)
	record := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			record[j] = formatFloat(m.At(i, j))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteProfileCSV writes a q,mean,count table with a header row.
func WriteProfileCSV(w io.Writer, bins []ssb.Bin) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"q", "mean", "count"}); err != nil {
		return err
	}
	for _, b := range bins {
		if err := cw.Write([]string{formatFloat(b.Q), formatFloat(b.Mean), strconv.Itoa(b.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePNG renders m as an 8-bit grayscale image scaled linearly from its
// minimum (black) to its maximum (white). Row i becomes image row i.
// A constant matrix renders black.
func WritePNG(w io.Writer, m mat.Matrix) error {
	r, c := m.Dims()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			values = append(values, m.At(i, j))
		}
	}
	return png.Encode(w, grayImage(values, r, c))
}

func grayImage(values []float64, rows, cols int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	if len(values) == 0 {
		return img
	}
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	for i, v := range values {
		var level uint8
		if span > 0 {
			level = uint8((v-lo)/span*255 + 0.5)
		}
		img.SetGray(i%cols, i/cols, color.Gray{Y: level})
	}
	return img
}

// WriteIntensityPNG renders |f|² of a field.
func WriteIntensityPNG(w io.Writer, f core.Field) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return png.Encode(w, grayImage(f.Intensity(), f.N, f.N))
}

// Result is the subset of a computation that can be written out.
type Result struct {
	Probe   core.Field
	CTF     *mat.Dense
	Profile []ssb.Bin
}

// WriteAll writes res into dir using name as the file stem, once per
// format: csv (<name>.csv), png (<name>.png), profile (<name>_profile.csv),
// field (<name>_probe.ssbf). It returns the written paths.
func WriteAll(dir, name string, res Result, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	for _, format := range formats {
		var (
			path  string
			write func(io.Writer) error
		)
		switch strings.ToLower(format) {
		case "csv":
			path = filepath.Join(dir, name+".csv")
			write = func(w io.Writer) error { return WriteMatrixCSV(w, res.CTF) }
		case "png":
			path = filepath.Join(dir, name+".png")
			write = func(w io.Writer) error { return WritePNG(w, res.CTF) }
		case "profile":
			path = filepath.Join(dir, name+"_profile.csv")
			write = func(w io.Writer) error { return WriteProfileCSV(w, res.Profile) }
		case "field":
			path = filepath.Join(dir, name+"_probe.ssbf")
			write = func(w io.Writer) error { return core.WriteField(w, res.Probe) }
		default:
			return written, fmt.Errorf("unknown output format %q", format)
		}

		if needsCTF(format) && res.CTF == nil {
			return written, fmt.Errorf("format %q requires a CTF", format)
		}
		if err := writeFile(path, write); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func needsCTF(format string) bool {
	f := strings.ToLower(format)
	return f == "csv" || f == "png"
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
