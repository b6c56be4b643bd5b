package printer

import (
	json "github.com/goccy/go-json"

	"github.com/joshuapare/mmusim/mmu/alloc"
)

// BlockRecord is the wire form of a memory map entry. PID is null for free
// blocks.
type BlockRecord struct {
	PID   *int   `json:"pid"`
	Base  int    `json:"base"`
	Limit int    `json:"limit"`
	Size  int    `json:"size"`
	Type  string `json:"type"`
}

// Records converts snapshot blocks into wire records.
func Records(blocks []alloc.Block) []BlockRecord {
	out := make([]BlockRecord, 0, len(blocks))
	for _, b := range blocks {
		rec := BlockRecord{Base: b.Base, Limit: b.Limit, Size: b.Size, Type: b.Kind.String()}
		if b.Kind == alloc.KindAllocated {
			pid := int(b.ID)
			rec.PID = &pid
		}
		out = append(out, rec)
	}
	return out
}

// StatsRecord is the wire form of alloc.Stats.
type StatsRecord struct {
	Total         int     `json:"total"`
	Used          int     `json:"used"`
	Free          int     `json:"free"`
	Processes     int     `json:"processes"`
	FreeRanges    int     `json:"free_ranges"`
	LargestFree   int     `json:"largest_free"`
	Fragmentation float64 `json:"fragmentation"`
	AllocCalls    int     `json:"alloc_calls"`
	AllocFailures int     `json:"alloc_failures"`
	FreeCalls     int     `json:"free_calls"`
}

// NewStatsRecord converts allocator statistics into their wire form.
func NewStatsRecord(s alloc.Stats) StatsRecord {
	return StatsRecord{
		Total:         s.Total,
		Used:          s.Used,
		Free:          s.Free,
		Processes:     s.Allocations,
		FreeRanges:    s.FreeRanges,
		LargestFree:   s.LargestFree,
		Fragmentation: s.Fragmentation,
		AllocCalls:    s.AllocCalls,
		AllocFailures: s.AllocFailures,
		FreeCalls:     s.FreeCalls,
	}
}

func (p *Printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
