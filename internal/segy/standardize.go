package segy

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"example.com/segygate/internal/common"
)

// DefaultSampleIntervalUs replaces a zero sample interval during
// standardization (2 ms).
const DefaultSampleIntervalUs = 2000

// DefaultClipSigma is the outlier clamp threshold in standard deviations.
const DefaultClipSigma = 3.0

// Options controls amplitude processing during standardization. The zero
// value performs pure format and header standardization.
type Options struct {
	// Normalize rescales each trace so its maximum absolute amplitude is 1.
	Normalize bool
	// ClipOutliers clamps samples beyond ClipSigma standard deviations from
	// the trace mean. Applied after normalization when both are set.
	ClipOutliers bool
	// ClipSigma overrides DefaultClipSigma when positive.
	ClipSigma float64
	// Concurrency bounds the number of parallel trace conversions.
	Concurrency int

	Metrics *common.Metrics
}

// Result describes a completed standardization.
type Result struct {
	Path             string
	Traces           int
	Bytes            int64
	SampleIntervalUs uint16
	SourceFormat     FormatCode
}

// Standardize rewrites the scanned file as SEG-Y Rev 2 with IEEE float
// samples and writes it to dstPath. The output is assembled completely before
// it becomes visible: it is written to a temporary file in the destination
// directory and renamed only on success, so no partial file ever appears.
// Traces are converted in parallel over disjoint output regions; cancellation
// is honored between traces and discards the partial output.
func Standardize(ctx context.Context, srcPath, dstPath string, textual TextualHeader, bin BinaryHeader, scan ScanResult, opts Options) (Result, error) {
	if len(scan.Descriptors) == 0 {
		return Result{}, fmt.Errorf("%w: refusing to write a header-only file", ErrNoTraces)
	}
	decode, err := bin.FormatCode.Decoder()
	if err != nil {
		return Result{}, err
	}
	interval := bin.SampleIntervalUs
	if interval == 0 {
		interval = DefaultSampleIntervalUs
	}

	// Each output trace keeps its own resolved sample count, so output
	// offsets are computed up front from the descriptors.
	offsets := make([]int64, len(scan.Descriptors))
	total := int64(FileHeaderSize)
	for i, desc := range scan.Descriptors {
		offsets[i] = total
		total += TraceHeaderSize + int64(desc.SampleCount)*4
	}

	out := make([]byte, total)
	copy(out[:TextualHeaderSize], textual.Raw)
	writeBinaryHeader(out[TextualHeaderSize:FileHeaderSize], bin, scan, interval)

	src, err := os.Open(srcPath)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	if err := convertTraces(ctx, src, decode, scan.Descriptors, offsets, out, interval, opts); err != nil {
		return Result{}, err
	}

	if err := writeAtomically(dstPath, out); err != nil {
		return Result{}, err
	}
	return Result{
		Path:             dstPath,
		Traces:           len(scan.Descriptors),
		Bytes:            total,
		SampleIntervalUs: interval,
		SourceFormat:     bin.FormatCode,
	}, nil
}

func writeBinaryHeader(dst []byte, bin BinaryHeader, scan ScanResult, interval uint16) {
	copy(dst, bin.Raw)
	binary.BigEndian.PutUint16(dst[binSampleInterval:], interval)
	binary.BigEndian.PutUint16(dst[binSamplesPerTrace:], uint16(scan.Descriptors[0].SampleCount))
	binary.BigEndian.PutUint16(dst[binFormatCode:], uint16(FormatIEEEFloat))
	dst[binRevision] = 2
	dst[binRevision+1] = 0
	binary.BigEndian.PutUint16(dst[binFixedLength:], 1)
	binary.BigEndian.PutUint16(dst[binExtendedTextual:], 0)
	binary.BigEndian.PutUint64(dst[binTraceCount:], uint64(len(scan.Descriptors)))
}

func convertTraces(ctx context.Context, src *os.File, decode SampleDecoder, descs []TraceDescriptor, offsets []int64, out []byte, interval uint16, opts Options) error {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if concurrency > len(descs) {
		concurrency = len(descs)
	}
	sigma := opts.ClipSigma
	if sigma <= 0 {
		sigma = DefaultClipSigma
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var scratch []byte
			var samples []float32
			for i := range jobs {
				if runCtx.Err() != nil {
					return
				}
				desc := descs[i]
				if int64(cap(scratch)) < desc.Size {
					scratch = make([]byte, desc.Size)
				}
				raw := scratch[:desc.Size]
				if _, err := src.ReadAt(raw, desc.Offset); err != nil {
					fail(&ConversionError{Trace: desc.Index, Offset: desc.Offset, Err: err})
					return
				}
				if cap(samples) < desc.SampleCount {
					samples = make([]float32, desc.SampleCount)
				}
				vals := samples[:desc.SampleCount]
				elem := 4
				if desc.SampleCount > 0 {
					elem = int(desc.Size-TraceHeaderSize) / desc.SampleCount
				}
				for s := 0; s < desc.SampleCount; s++ {
					v, err := decode(raw[TraceHeaderSize+s*elem:])
					if err != nil {
						fail(&ConversionError{Trace: desc.Index, Offset: desc.Offset, Err: err})
						return
					}
					vals[s] = v
				}
				if opts.Normalize {
					normalizeTrace(vals)
				}
				if opts.ClipOutliers {
					clipTrace(vals, sigma)
				}

				dst := out[offsets[i]:]
				copy(dst[:TraceHeaderSize], raw[:TraceHeaderSize])
				binary.BigEndian.PutUint16(dst[trcSampleCount:], uint16(desc.SampleCount))
				binary.BigEndian.PutUint16(dst[trcSampleInterval:], interval)
				for s, v := range vals {
					EncodeIEEE(v, dst[TraceHeaderSize+s*4:])
				}
				if opts.Metrics != nil {
					opts.Metrics.AddTrace(desc.Size)
				}
			}
		}()
	}

feed:
	for i := range descs {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// normalizeTrace rescales samples so the maximum absolute value maps to 1.
// All-zero traces are left untouched.
func normalizeTrace(samples []float32) {
	var maxAbs float32
	for _, v := range samples {
		if a := float32(math.Abs(float64(v))); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return
	}
	scale := 1 / maxAbs
	for i := range samples {
		samples[i] *= scale
	}
}

// clipTrace clamps samples to mean ± sigma standard deviations.
func clipTrace(samples []float32, sigma float64) {
	if len(samples) == 0 {
		return
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v)
	}
	mean := sum / float64(len(samples))
	var variance float64
	for _, v := range samples {
		d := float64(v) - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(samples)))
	if std == 0 {
		return
	}
	lo := float32(mean - sigma*std)
	hi := float32(mean + sigma*std)
	for i, v := range samples {
		if v < lo {
			samples[i] = lo
		} else if v > hi {
			samples[i] = hi
		}
	}
}

func writeAtomically(dstPath string, out []byte) error {
	dir := filepath.Dir(dstPath)
	tmp, err := os.CreateTemp(dir, ".segy-out-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dstPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
