package segy

import (
	"errors"
	"io"
	"os"
)

const minBlockSize = 4 << 20

// Source provides random access to the bytes of a SEG-Y file. Reads are
// windowed so very large files never need to be resident in full.
type Source interface {
	Size() int64
	Slice(offset int64, length int) ([]byte, error)
	ReadAt(p []byte, offset int64) (int, error)
	Close() error
}

type fileSource struct {
	file      *os.File
	size      int64
	blockSize int
	buf       []byte
	bufStart  int64
	bufLen    int
}

// OpenSource opens path for windowed read access.
func OpenSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileSource{file: f, size: info.Size(), blockSize: minBlockSize}, nil
}

func (fs *fileSource) Size() int64 {
	return fs.size
}

func (fs *fileSource) Close() error {
	if fs.file == nil {
		return nil
	}
	err := fs.file.Close()
	fs.file = nil
	fs.buf = nil
	fs.bufLen = 0
	return err
}

func (fs *fileSource) grow(need int) {
	newSize := fs.blockSize
	if newSize == 0 {
		newSize = minBlockSize
	}
	for newSize < need {
		newSize *= 2
	}
	fs.blockSize = newSize
	fs.buf = make([]byte, fs.blockSize)
	fs.bufLen = 0
	fs.bufStart = 0
}

func (fs *fileSource) ensure(offset int64, length int) error {
	if fs.file == nil {
		return io.EOF
	}
	if length > fs.blockSize {
		fs.grow(length)
	}
	if fs.buf == nil {
		fs.buf = make([]byte, fs.blockSize)
	}
	if offset >= fs.bufStart && offset+int64(length) <= fs.bufStart+int64(fs.bufLen) {
		return nil
	}
	if offset >= fs.size {
		fs.bufLen = 0
		return io.EOF
	}
	fs.bufStart = offset
	remain := fs.size - offset
	toRead := fs.blockSize
	if int64(toRead) > remain {
		toRead = int(remain)
	}
	if toRead <= 0 {
		fs.bufLen = 0
		return io.EOF
	}
	n, err := fs.file.ReadAt(fs.buf[:toRead], offset)
	if n < toRead && err == nil {
		err = io.EOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		fs.bufLen = 0
		return err
	}
	fs.bufLen = n
	if fs.bufLen == 0 {
		return io.EOF
	}
	return err
}

func (fs *fileSource) Slice(offset int64, length int) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}
	if offset < 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if offset >= fs.size {
		return nil, io.EOF
	}
	err := fs.ensure(offset, length)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if fs.bufLen == 0 {
		return nil, io.EOF
	}
	start := int(offset - fs.bufStart)
	if start < 0 || start >= fs.bufLen {
		return nil, io.ErrUnexpectedEOF
	}
	end := start + length
	if end > fs.bufLen {
		end = fs.bufLen
	}
	view := fs.buf[start:end]
	if len(view) < length {
		return view, io.EOF
	}
	return view, err
}

func (fs *fileSource) ReadAt(p []byte, offset int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	view, err := fs.Slice(offset, len(p))
	n := copy(p, view)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	if err == io.EOF {
		return n, io.EOF
	}
	return n, nil
}

// sliceExact returns exactly length bytes at offset or fails.
func sliceExact(src Source, offset int64, length int) ([]byte, error) {
	view, err := src.Slice(offset, length)
	if len(view) < length {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}
	return view[:length], nil
}
