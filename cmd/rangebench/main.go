// rangebench exercises the range copy/fill engine end to end: it builds
// columns through the device memory manager, runs timed CopyRange and Fill
// rounds, snapshots a column through the LZ4 codec, and writes the
// allocator's CSV event report.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridstonedb/gridstone/internal/column"
	"github.com/gridstonedb/gridstone/internal/memory"
	"github.com/gridstonedb/gridstone/internal/types"
)

func main() {
	rows := flag.Int("rows", 1_000_000, "Elements per column")
	rounds := flag.Int("rounds", 10, "Copy/fill rounds to time")
	typeName := flag.String("type", "Int64", "Element type (e.g. Int32, Float64)")
	report := flag.String("report", "", "Write allocator CSV event report to this path")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	logger := log.NewLogfmtLogger(os.Stderr)
	if !*verbose {
		logger = log.NewNopLogger()
	}

	dt, err := types.ParseDataType(*typeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rangebench: %v\n", err)
		os.Exit(1)
	}

	mgr := memory.NewManager(memory.Config{
		Logger:     logger,
		Registerer: prometheus.NewRegistry(),
	})

	if err := run(mgr, dt, *rows, *rounds); err != nil {
		fmt.Fprintf(os.Stderr, "rangebench: %v\n", err)
		os.Exit(1)
	}

	if *report != "" {
		if err := mgr.Events().WriteFile(*report); err != nil {
			fmt.Fprintf(os.Stderr, "rangebench: write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("allocator report: %s (%d events)\n", *report, mgr.Events().Len())
	}
}

func run(mgr *memory.Manager, dt types.DataType, rows, rounds int) error {
	src, err := randomColumn(dt, rows)
	if err != nil {
		return err
	}
	dst, err := column.New(dt, rows)
	if err != nil {
		return err
	}

	start := time.Now()
	for r := 0; r < rounds; r++ {
		if err := column.CopyRange(dst, src, 0, rows, 0); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	bytesMoved := float64(rows*rounds*dt.FixedSize()) / elapsed.Seconds()
	fmt.Printf("copy_range %s: %d rows x %d rounds in %v (%.1f MB/s), null_count=%d\n",
		dt.Name(), rows, rounds, elapsed, bytesMoved/1e6, dst.NullCount)

	start = time.Now()
	for r := 0; r < rounds; r++ {
		s := types.NewScalar(dt, scalarFor(dt, r))
		if err := column.Fill(dst, s, 0, rows); err != nil {
			return err
		}
	}
	elapsed = time.Since(start)
	fmt.Printf("fill %s: %d rows x %d rounds in %v, null_count=%d\n",
		dt.Name(), rows, rounds, elapsed, dst.NullCount)

	// Snapshot the source and stage the bytes through the device manager,
	// as a spill would.
	snap, err := column.EncodeSnapshot(src)
	if err != nil {
		return err
	}
	var staged []byte
	if err := mgr.Alloc(&staged, len(snap), memory.DefaultStream); err != nil {
		return err
	}
	copy(staged, snap)
	restored, err := column.DecodeSnapshot(staged)
	if err != nil {
		return err
	}
	if err := mgr.Free(staged, memory.DefaultStream); err != nil {
		return err
	}
	free, total, _ := mgr.GetInfo(memory.DefaultStream)
	fmt.Printf("snapshot: %d rows -> %d bytes (%.2fx), device %d/%d free\n",
		restored.Size, len(snap),
		float64(rows*dt.FixedSize())/float64(len(snap)), free, total)

	return nil
}

// randomColumn builds a column of random values with ~10% nulls.
func randomColumn(dt types.DataType, n int) (*column.Column, error) {
	rng := rand.New(rand.NewSource(1))
	valid := make([]bool, n)
	for i := range valid {
		valid[i] = rng.Intn(10) != 0
	}
	switch dt {
	case types.TypeUInt8:
		data := make([]uint8, n)
		for i := range data {
			data[i] = uint8(rng.Uint32())
		}
		return column.FromSlice(dt, data, valid)
	case types.TypeUInt16:
		data := make([]uint16, n)
		for i := range data {
			data[i] = uint16(rng.Uint32())
		}
		return column.FromSlice(dt, data, valid)
	case types.TypeUInt32, types.TypeDateTime:
		data := make([]uint32, n)
		for i := range data {
			data[i] = rng.Uint32()
		}
		return column.FromSlice(dt, data, valid)
	case types.TypeUInt64:
		data := make([]uint64, n)
		for i := range data {
			data[i] = rng.Uint64()
		}
		return column.FromSlice(dt, data, valid)
	case types.TypeInt8:
		data := make([]int8, n)
		for i := range data {
			data[i] = int8(rng.Uint32())
		}
		return column.FromSlice(dt, data, valid)
	case types.TypeInt16:
		data := make([]int16, n)
		for i := range data {
			data[i] = int16(rng.Uint32())
		}
		return column.FromSlice(dt, data, valid)
	case types.TypeInt32:
		data := make([]int32, n)
		for i := range data {
			data[i] = int32(rng.Uint32())
		}
		return column.FromSlice(dt, data, valid)
	case types.TypeInt64:
		data := make([]int64, n)
		for i := range data {
			data[i] = int64(rng.Uint64())
		}
		return column.FromSlice(dt, data, valid)
	case types.TypeFloat32:
		data := make([]float32, n)
		for i := range data {
			data[i] = rng.Float32()
		}
		return column.FromSlice(dt, data, valid)
	case types.TypeFloat64:
		data := make([]float64, n)
		for i := range data {
			data[i] = rng.Float64()
		}
		return column.FromSlice(dt, data, valid)
	default:
		return nil, fmt.Errorf("rangebench: unsupported type %s", dt.Name())
	}
}

// scalarFor returns a fill payload of the right physical type.
func scalarFor(dt types.DataType, r int) types.Value {
	switch dt {
	case types.TypeUInt8:
		return uint8(r)
	case types.TypeUInt16:
		return uint16(r)
	case types.TypeUInt32, types.TypeDateTime:
		return uint32(r)
	case types.TypeUInt64:
		return uint64(r)
	case types.TypeInt8:
		return int8(r)
	case types.TypeInt16:
		return int16(r)
	case types.TypeInt32:
		return int32(r)
	case types.TypeInt64:
		return int64(r)
	case types.TypeFloat32:
		return float32(r)
	case types.TypeFloat64:
		return float64(r)
	default:
		return nil
	}
}
