package printer

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mmusim/mmu/alloc"
)

// sampleAllocator returns a 100-unit space: P1 [0,29], free [30,59], P3 [60,99].
func sampleAllocator(t *testing.T) *alloc.Allocator {
	t.Helper()
	a, err := alloc.New(100, alloc.FirstFit)
	require.NoError(t, err)
	for _, size := range []int{30, 30, 40} {
		_, err := a.Allocate(size)
		require.NoError(t, err)
	}
	require.NoError(t, a.Free(2))
	return a
}

func TestPrinter_PrintMap_Text(t *testing.T) {
	a := sampleAllocator(t)

	var buf bytes.Buffer
	p := New(&buf, DefaultOptions())
	require.NoError(t, p.PrintMap(a.Snapshot()))

	want := "Memory Map:\n" +
		"Process 1: Base=0, Limit=29, Size=30KB\n" +
		"Free: Base=30, Limit=59, Size=30KB\n" +
		"Process 3: Base=60, Limit=99, Size=40KB\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinter_PrintMap_Bar(t *testing.T) {
	a := sampleAllocator(t)

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.BarWidth = 10
	require.NoError(t, New(&buf, opts).PrintMap(a.Snapshot()))

	assert.Contains(t, buf.String(), "[###...####]\n")
}

func TestPrinter_PrintMap_BarWiderThanSpace(t *testing.T) {
	a, err := alloc.New(4, alloc.FirstFit)
	require.NoError(t, err)
	_, err = a.Allocate(1)
	require.NoError(t, err)

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.BarWidth = 80
	require.NoError(t, New(&buf, opts).PrintMap(a.Snapshot()))
	assert.Contains(t, buf.String(), "[#...]")
}

func TestPrinter_PrintMap_BarHugeSpace(t *testing.T) {
	half := math.MaxInt / 2
	blocks := []alloc.Block{
		{Kind: alloc.KindAllocated, ID: 1, Base: 0, Limit: half - 1, Size: half},
		{Kind: alloc.KindFree, Base: half, Limit: math.MaxInt - 1, Size: math.MaxInt - half},
	}

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.BarWidth = 10
	require.NoError(t, New(&buf, opts).PrintMap(blocks))
	assert.Contains(t, buf.String(), "[#####.....]\n")
}

func TestPrinter_Grouping(t *testing.T) {
	a, err := alloc.New(1_000_000, alloc.BestFit)
	require.NoError(t, err)
	_, err = a.Allocate(12_345)
	require.NoError(t, err)

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Grouping = true
	require.NoError(t, New(&buf, opts).PrintMap(a.Snapshot()))

	assert.Contains(t, buf.String(), "Process 1: Base=0, Limit=12,344, Size=12,345KB")
	assert.Contains(t, buf.String(), "Free: Base=12,345, Limit=999,999, Size=987,655KB")
}

func TestPrinter_ColorOnNonTerminalIsPlain(t *testing.T) {
	a := sampleAllocator(t)

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Color = true
	require.NoError(t, New(&buf, opts).PrintMap(a.Snapshot()))

	// A bytes.Buffer has no color profile, so lipgloss emits no escapes.
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "Process 3: Base=60")
}

func TestPrinter_PrintMap_JSON(t *testing.T) {
	a := sampleAllocator(t)

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Format = FormatJSON
	require.NoError(t, New(&buf, opts).PrintMap(a.Snapshot()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "allocated", got[0]["type"])
	assert.EqualValues(t, 1, got[0]["pid"])
	assert.Nil(t, got[1]["pid"])
	assert.Equal(t, "free", got[1]["type"])
	assert.EqualValues(t, 30, got[1]["size"])
}

func TestPrinter_PrintStats(t *testing.T) {
	a := sampleAllocator(t)

	var buf bytes.Buffer
	require.NoError(t, New(&buf, DefaultOptions()).PrintStats(a.Stats()))

	out := buf.String()
	assert.Contains(t, out, "Memory Stats:")
	assert.Contains(t, out, "Total: 100KB  Used: 70KB  Free: 30KB")
	assert.Contains(t, out, "Processes: 2  Free ranges: 1  Largest free: 30KB")
	assert.Contains(t, out, "Fragmentation: 0.0%")
	assert.Contains(t, out, "Requests: 3 allocations (0 failed), 1 deletions")

	buf.Reset()
	opts := DefaultOptions()
	opts.Format = FormatJSON
	require.NoError(t, New(&buf, opts).PrintStats(a.Stats()))
	var rec StatsRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, NewStatsRecord(a.Stats()), rec)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: 5", alloc.ErrOutOfMemory), "Not enough memory"},
		{alloc.ErrProcessNotFound, "Process ID not found"},
		{alloc.ErrAddressOutOfRange, "Virtual address is outside the process's address space"},
		{alloc.ErrInvalidSize, "Requested memory amount must be strictly positive"},
		{fmt.Errorf("%w: total size must be positive, got 0", alloc.ErrInvalidConfig),
			"Invalid configuration: total size must be positive, got 0"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorMessage(tt.err))
	}
}
