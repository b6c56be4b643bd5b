package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/joshuapare/mmusim/mmu/alloc"
	"github.com/joshuapare/mmusim/mmu/printer"
	"github.com/joshuapare/mmusim/mmu/session"
)

// strategyOption is one entry of the strategy drop-down.
type strategyOption struct {
	Value    int
	Name     string
	Selected bool
}

type indexPage struct {
	Title      string
	Error      string
	Total      int
	Strategies []strategyOption
}

type managePage struct {
	Title  string
	Info   session.Info
	Blocks []printer.BlockRecord
}

// operationResponse answers POST /operation.
type operationResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	PID             *int   `json:"pid,omitempty"`
	Base            *int   `json:"base,omitempty"`
	Limit           *int   `json:"limit,omitempty"`
	PhysicalAddress *int   `json:"physical_address,omitempty"`
}

// mapEntry is one row of GET /memory_map. PID is "None" for free blocks.
type mapEntry struct {
	Type  string `json:"Type"`
	PID   any    `json:"PID"`
	Base  int    `json:"Base"`
	Limit int    `json:"Limit"`
	Size  int    `json:"Size"`
}

type statsResponse struct {
	Instance string `json:"instance"`
	Strategy string `json:"strategy"`
	printer.StatsRecord
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	info := s.mgr.Info()
	s.renderIndex(w, http.StatusOK, "", info.Total, info.Strategy)
}

func (s *Server) renderIndex(w http.ResponseWriter, status int, msg string, total int, selected alloc.Strategy) {
	page := indexPage{Title: "Configure", Error: msg, Total: total}
	for _, st := range alloc.Strategies {
		page.Strategies = append(page.Strategies, strategyOption{
			Value:    int(st),
			Name:     st.String(),
			Selected: st == selected,
		})
	}
	s.render(w, status, "index.html", page)
}

// handleInitialize replaces the shared allocator from the configuration form.
func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	total, err := strconv.Atoi(strings.TrimSpace(r.FormValue("total_memory")))
	if err != nil {
		s.renderIndex(w, http.StatusBadRequest, "Total memory must be an integer.", 0, alloc.FirstFit)
		return
	}
	strategy, err := alloc.ParseStrategy(r.FormValue("strategy"))
	if err != nil {
		s.renderIndex(w, http.StatusBadRequest, printer.ErrorMessage(err), total, alloc.FirstFit)
		return
	}
	if _, err := s.mgr.Reset(total, strategy); err != nil {
		s.renderIndex(w, http.StatusBadRequest, printer.ErrorMessage(err), total, strategy)
		return
	}
	http.Redirect(w, r, "/manage_memory", http.StatusSeeOther)
}

func (s *Server) handleManage(w http.ResponseWriter, _ *http.Request) {
	var page managePage
	_ = s.mgr.Do(func(a *alloc.Allocator, info session.Info) error {
		page = managePage{Title: "Manage", Info: info, Blocks: printer.Records(a.Snapshot())}
		return nil
	})
	s.render(w, http.StatusOK, "manage_memory.html", page)
}

// handleOperation dispatches create, delete and convert actions. Allocator
// errors and unknown actions are reported with success=false and status 200;
// malformed numbers get status 400.
func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	action := r.FormValue("action")
	switch action {
	case "create":
		size, ok := s.intField(w, r, "size", "Size")
		if !ok {
			return
		}
		p, err := s.mgr.Allocate(size)
		if err != nil {
			s.writeJSON(w, http.StatusOK, operationResponse{Message: printer.ErrorMessage(err)})
			return
		}
		pid := int(p.ID)
		s.writeJSON(w, http.StatusOK, operationResponse{
			Success: true,
			Message: fmt.Sprintf("Process %d created.", pid),
			PID:     &pid,
			Base:    &p.Base,
			Limit:   &p.Limit,
		})

	case "delete":
		pid, ok := s.intField(w, r, "pid", "Process ID")
		if !ok {
			return
		}
		if err := s.mgr.Free(alloc.ID(pid)); err != nil {
			s.writeJSON(w, http.StatusOK, operationResponse{Message: printer.ErrorMessage(err)})
			return
		}
		s.writeJSON(w, http.StatusOK, operationResponse{
			Success: true,
			Message: fmt.Sprintf("Process %d deleted.", pid),
			PID:     &pid,
		})

	case "convert":
		pid, ok := s.intField(w, r, "pid", "Process ID")
		if !ok {
			return
		}
		va, ok := s.intField(w, r, "virtual_address", "Virtual address")
		if !ok {
			return
		}
		phys, err := s.mgr.Translate(alloc.ID(pid), va)
		if err != nil {
			s.writeJSON(w, http.StatusOK, operationResponse{Message: printer.ErrorMessage(err)})
			return
		}
		s.writeJSON(w, http.StatusOK, operationResponse{
			Success:         true,
			Message:         fmt.Sprintf("Physical Address: %d", phys),
			PID:             &pid,
			PhysicalAddress: &phys,
		})

	default:
		s.writeJSON(w, http.StatusOK, operationResponse{Message: "Invalid action"})
	}
}

// intField parses an integer form field, answering 400 when it is missing or
// malformed.
func (s *Server) intField(w http.ResponseWriter, r *http.Request, key, label string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, operationResponse{
			Message: label + " must be an integer.",
		})
		return 0, false
	}
	return n, true
}

func (s *Server) handleMemoryBlocks(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"blocks": printer.Records(s.mgr.Snapshot()),
	})
}

func (s *Server) handleMemoryMap(w http.ResponseWriter, _ *http.Request) {
	blocks := s.mgr.Snapshot()
	entries := make([]mapEntry, 0, len(blocks))
	for _, b := range blocks {
		e := mapEntry{Type: "Free", PID: "None", Base: b.Base, Limit: b.Limit, Size: b.Size}
		if b.Kind == alloc.KindAllocated {
			e.Type, e.PID = "Process", int(b.ID)
		}
		entries = append(entries, e)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"memory_map": entries})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats, info := s.mgr.Stats()
	s.writeJSON(w, http.StatusOK, statsResponse{
		Instance:    info.ID.String(),
		Strategy:    info.Strategy.String(),
		StatsRecord: printer.NewStatsRecord(stats),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if err := s.mgr.Validate(); err != nil {
		s.log.Error("invariant check failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}
