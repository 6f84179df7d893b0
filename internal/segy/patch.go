package segy

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
)

// PatchEdit represents an in-place modification to a SEG-Y file.
type PatchEdit struct {
	Field  string
	Offset int64
	Data   []byte
}

// ApplyPatch applies the provided edits to path. Each edit must stay within
// the bounds of the file and does not change its length.
func ApplyPatch(path string, edits []PatchEdit) error {
	if len(edits) == 0 {
		return nil
	}
	// Defensive copy so callers can reuse the slice after return.
	ordered := make([]PatchEdit, 0, len(edits))
	for _, e := range edits {
		if len(e.Data) == 0 {
			continue
		}
		buf := make([]byte, len(e.Data))
		copy(buf, e.Data)
		ordered = append(ordered, PatchEdit{Field: e.Field, Offset: e.Offset, Data: buf})
	}
	if len(ordered) == 0 {
		return nil
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Offset < ordered[j].Offset
	})

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	for _, edit := range ordered {
		if edit.Offset < 0 {
			return fmt.Errorf("negative patch offset %d", edit.Offset)
		}
		end := edit.Offset + int64(len(edit.Data))
		if end > size {
			return fmt.Errorf("patch at %d with length %d exceeds file size %d", edit.Offset, len(edit.Data), size)
		}
		if _, err := f.Seek(edit.Offset, io.SeekStart); err != nil {
			return err
		}
		written := 0
		for written < len(edit.Data) {
			n, err := f.Write(edit.Data[written:])
			if err != nil {
				return err
			}
			written += n
		}
	}
	return f.Sync()
}

// HeaderFixEdits plans the in-place binary header repairs that are safe
// without touching sample data: revision stamped to 2.0, fixed-length flag
// raised when the scan observed uniform sizes, a zero sample interval
// defaulted, and the declared trace count aligned with the scan. The format
// code is deliberately left alone; changing it without re-encoding samples
// would corrupt the data.
func HeaderFixEdits(bin BinaryHeader, scan ScanResult) []PatchEdit {
	var edits []PatchEdit
	abs := func(field int) int64 { return int64(TextualHeaderSize + field) }

	if bin.RevMajor != 2 || bin.RevMinor != 0 {
		edits = append(edits, PatchEdit{
			Field:  "revision",
			Offset: abs(binRevision),
			Data:   []byte{2, 0},
		})
	}
	if !bin.FixedLength && scan.Uniform() && len(scan.Descriptors) > 0 {
		flag := make([]byte, 2)
		binary.BigEndian.PutUint16(flag, 1)
		edits = append(edits, PatchEdit{Field: "fixedLengthFlag", Offset: abs(binFixedLength), Data: flag})
	}
	if bin.SampleIntervalUs == 0 {
		iv := make([]byte, 2)
		binary.BigEndian.PutUint16(iv, DefaultSampleIntervalUs)
		edits = append(edits, PatchEdit{Field: "sampleInterval", Offset: abs(binSampleInterval), Data: iv})
	}
	if actual := uint64(len(scan.Descriptors)); actual > 0 && bin.DeclaredTraces != actual {
		count := make([]byte, 8)
		binary.BigEndian.PutUint64(count, actual)
		edits = append(edits, PatchEdit{Field: "traceCount", Offset: abs(binTraceCount), Data: count})
	}
	return edits
}
