package memory

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVReport(t *testing.T) {
	m := NewManager(Config{Capacity: 1024, Registerer: prometheus.NewRegistry()})

	var buf []byte
	require.NoError(t, m.Alloc(&buf, 100, Stream(3)))
	require.NoError(t, m.Free(buf, Stream(3)))

	var out bytes.Buffer
	require.NoError(t, m.Events().WriteCSV(&out))

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two events")
	require.Equal(t, csvHeader, records[0])
	require.Equal(t, "Alloc", records[1][0])
	require.Equal(t, "3", records[1][2])
	require.Equal(t, "100", records[1][3])
	require.Equal(t, "Free", records[2][0])
}

func TestWriteFile(t *testing.T) {
	m := NewManager(Config{Capacity: 1024, Registerer: prometheus.NewRegistry()})
	var buf []byte
	require.NoError(t, m.Alloc(&buf, 10, DefaultStream))

	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, m.Events().WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Event Type")
	require.Contains(t, string(data), "Alloc")
}

func TestWriteFileBadPath(t *testing.T) {
	l := NewEventLog()
	err := l.WriteFile(filepath.Join(t.TempDir(), "missing", "dir", "events.csv"))
	require.ErrorIs(t, err, ErrIO)
}

func TestReset(t *testing.T) {
	m := NewManager(Config{Capacity: 1024, Registerer: prometheus.NewRegistry()})
	var buf []byte
	require.NoError(t, m.Alloc(&buf, 10, DefaultStream))
	require.Equal(t, 1, m.Events().Len())

	m.Events().Reset()
	require.Equal(t, 0, m.Events().Len())
}
