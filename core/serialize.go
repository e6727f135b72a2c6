package core

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Field file layout (little endian):
// [magic "SSBF"(4)][version(1)][N(4)][Sampling float64(8)][N*N × (re float64, im float64)]
const (
	fieldMagic   = "SSBF"
	fieldVersion = 1
	headerSize   = 4 + 1 + 4 + 8

	// maxFieldSize bounds N so that N*N*16 bytes stays addressable.
	maxFieldSize = 1 << 14
)

var (
	ErrBadMagic   = errors.New("not a field file")
	ErrBadVersion = errors.New("unsupported field file version")
)

// WriteField serializes f to w.
func WriteField(w io.Writer, f Field) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.N > maxFieldSize {
		return fmt.Errorf("%w: size %d exceeds %d", ErrInvalidField, f.N, maxFieldSize)
	}

	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[0:4], fieldMagic)
	header[4] = fieldVersion
	binary.LittleEndian.PutUint32(header[5:9], uint32(f.N))
	binary.LittleEndian.PutUint64(header[9:17], math.Float64bits(f.Sampling))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	var sample [16]byte
	for _, v := range f.Data {
		binary.LittleEndian.PutUint64(sample[0:8], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(sample[8:16], math.Float64bits(imag(v)))
		if _, err := bw.Write(sample[:]); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ReadField deserializes a field written by WriteField.
func ReadField(r io.Reader) (Field, error) {
	br := bufio.NewReader(r)

	var header [headerSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return Field{}, fmt.Errorf("read header: %w", err)
	}
	if string(header[0:4]) != fieldMagic {
		return Field{}, ErrBadMagic
	}
	if header[4] != fieldVersion {
		return Field{}, fmt.Errorf("%w: %d", ErrBadVersion, header[4])
	}

	n := binary.LittleEndian.Uint32(header[5:9])
	if n == 0 || n > maxFieldSize {
		return Field{}, fmt.Errorf("%w: size %d", ErrInvalidField, n)
	}
	f := Field{
		N:        int(n),
		Sampling: math.Float64frombits(binary.LittleEndian.Uint64(header[9:17])),
	}
	if err := f.Grid().Validate(); err != nil {
		return Field{}, err
	}

	f.Data = make([]complex128, f.N*f.N)
	var sample [16]byte
	for i := range f.Data {
		if _, err := io.ReadFull(br, sample[:]); err != nil {
			return Field{}, fmt.Errorf("read sample %d: %w", i, err)
		}
		re := math.Float64frombits(binary.LittleEndian.Uint64(sample[0:8]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(sample[8:16]))
		f.Data[i] = complex(re, im)
	}

	return f, nil
}

// SaveField writes f to path, replacing any existing file.
func SaveField(path string, f Field) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteField(file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadField reads a field from path.
func LoadField(path string) (Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return Field{}, err
	}
	defer file.Close()
	return ReadField(file)
}
