package export

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sbl8/ssbctf/core"
	"github.com/sbl8/ssbctf/ssb"
)

func TestWriteMatrixCSV(t *testing.T) {
	var buf bytes.Buffer
	m := mat.NewDense(2, 3, []float64{0, 0.5, 1, 2, 3.25, 1e-9})
	require.NoError(t, WriteMatrixCSV(&buf, m))
	assert.Equal(t, "0,0.5,1\n2,3.25,1e-09\n", buf.String())
}

func TestWriteProfileCSV(t *testing.T) {
	var buf bytes.Buffer
	bins := []ssb.Bin{{Q: 0.05, Mean: 0.1, Count: 1}, {Q: 0.15, Mean: 0.25, Count: 8}}
	require.NoError(t, WriteProfileCSV(&buf, bins))
	assert.Equal(t, "q,mean,count\n0.05,0.1,1\n0.15,0.25,8\n", buf.String())
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	m := mat.NewDense(2, 3, []float64{0, 1, 2, 3, 4, 5})
	require.NoError(t, WritePNG(&buf, m))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	r, _, _, _ = img.At(2, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestWritePNGConstantIsBlack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, mat.NewDense(2, 2, []float64{3, 3, 3, 3})))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	r, _, _, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestWriteIntensityPNG(t *testing.T) {
	f := core.NewField(core.Grid{N: 2, Sampling: 1})
	f.Set(1, 0, 2i)

	var buf bytes.Buffer
	require.NoError(t, WriteIntensityPNG(&buf, f))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	r, _, _, _ := img.At(0, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	assert.Error(t, WriteIntensityPNG(&buf, core.Field{}))
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	probe := core.NewField(core.Grid{N: 2, Sampling: 0.5})
	probe.Set(0, 0, 1)
	res := Result{
		Probe:   probe,
		CTF:     mat.NewDense(2, 2, []float64{0, 1, 1, 0}),
		Profile: []ssb.Bin{{Q: 0.5, Mean: 0.5, Count: 4}},
	}

	paths, err := WriteAll(dir, "run", res, []string{"csv", "PNG", "profile", "field"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "run.csv"),
		filepath.Join(dir, "run.png"),
		filepath.Join(dir, "run_profile.csv"),
		filepath.Join(dir, "run_probe.ssbf"),
	}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}

	loaded, err := core.LoadField(paths[3])
	require.NoError(t, err)
	assert.Equal(t, probe, loaded)

	csvData, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "0,1\n1,0\n", string(csvData))
}

func TestWriteAllErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteAll(dir, "x", Result{}, []string{"tiff"})
	assert.Error(t, err)

	_, err = WriteAll(dir, "x", Result{}, []string{"png"})
	assert.ErrorContains(t, err, "requires a CTF")
}
