package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/org-directory/pkg/cycles"
	"github.com/ritzau/org-directory/pkg/model"
	"github.com/ritzau/org-directory/pkg/pubsub"
	"github.com/ritzau/org-directory/pkg/spreadsheet"
	"github.com/ritzau/org-directory/pkg/store"
)

func (s *Server) handleSubscribeDirectory(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	if flusher != nil {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), pubsub.TopicDirectoryStatus)
	if err != nil {
		log.Warn("could not subscribe to directory status", "error", err)
		return
	}
	defer sub.Close()

	// Stream events until the client leaves or the publisher closes
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				log.Debug("SSE client went away", "error", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// statusReader is implemented by publishers that keep recent events
type statusReader interface {
	Last(topic string) (pubsub.Event, bool)
	Subscribers(topic string) int
}

// handleStatus returns the latest directory status for clients without SSE
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if sr, ok := s.publisher.(statusReader); ok {
		if event, ok := sr.Last(pubsub.TopicDirectoryStatus); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(event.Data)
			return
		}
	}

	// Nothing published yet, describe the current snapshot
	snap := s.store.Snapshot()
	state := pubsub.StateReady
	if snap.Version == 0 {
		state = pubsub.StateLoading
	}
	writeJSON(w, http.StatusOK, pubsub.DirectoryStatus{
		State:     state,
		Source:    snap.Origin.Name,
		Fallback:  snap.Origin.Fallback,
		Employees: snap.Len(),
		Version:   snap.Version,
		Cycles:    len(snap.Cycles),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results := s.store.Search(q.Get("q"), q.Get("department"), q.Get("country"))
	if results == nil {
		results = []model.Employee{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleForest(w http.ResponseWriter, r *http.Request) {
	forest, err := s.store.Forest()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forest)
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	tree, err := s.store.Hierarchy(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleMapData(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.MapData(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Filters())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

type cyclesResponse struct {
	Count  int                      `json:"count"`
	Cycles []cycles.ManagementCycle `json:"cycles"`
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	resp := cyclesResponse{Count: len(snap.Cycles), Cycles: snap.Cycles}
	if resp.Cycles == nil {
		resp.Cycles = []cycles.ManagementCycle{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, badRequest("invalid limit %q", v))
			return
		}
		limit = min(n, 50)
	}
	writeJSON(w, http.StatusOK, s.store.Suggest(r.URL.Query().Get("q"), limit))
}

type loadResponse struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	EmployeesCount int       `json:"employees_count"`
	LastSync       time.Time `json:"last_sync"`
	Version        int64     `json:"snapshot_version"`
	Filename       string    `json:"filename,omitempty"`
	Imported       int       `json:"imported,omitempty"`
	Skipped        int       `json:"skipped,omitempty"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		s.writeError(w, r, errLoaderUnavailable)
		return
	}

	snap, err := s.loader.Sync(r.Context(), "manual sync")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loadResponse{
		Success:        true,
		Message:        fmt.Sprintf("Sync completed. Loaded %d employees.", snap.Len()),
		EmployeesCount: snap.Len(),
		LastSync:       snap.LoadedAt,
		Version:        snap.Version,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		s.writeError(w, r, errLoaderUnavailable)
		return
	}

	if r.ContentLength > s.opts.UploadMaxBytes {
		s.writeError(w, r, &http.MaxBytesError{Limit: s.opts.UploadMaxBytes})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.UploadMaxBytes)
	if err := r.ParseMultipartForm(s.opts.UploadMaxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, badRequest("invalid upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, badRequest("no file uploaded"))
		return
	}
	defer file.Close()

	if !spreadsheet.Supported(header.Filename) {
		s.writeError(w, r, badRequest("unsupported file type %q, allowed: %s",
			header.Filename, strings.Join(spreadsheet.Extensions, ", ")))
		return
	}

	records, report, err := spreadsheet.Parse(file, header.Filename, s.opts.Parse)
	if err != nil {
		s.writeError(w, r, badRequest("could not read %s: %v", header.Filename, err))
		return
	}
	spreadsheet.LogReport(header.Filename, report)
	if report.Imported == 0 {
		s.writeError(w, r, badRequest("no employees found in %s", header.Filename))
		return
	}

	snap, err := s.loader.Apply(r.Context(), records, store.Origin{Name: "upload", Location: header.Filename})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loadResponse{
		Success:        true,
		Message:        fmt.Sprintf("Imported %d employees from %s.", report.Imported, header.Filename),
		EmployeesCount: snap.Len(),
		LastSync:       snap.LoadedAt,
		Version:        snap.Version,
		Filename:       header.Filename,
		Imported:       report.Imported,
		Skipped:        report.SkippedNoName,
	})
}

func (s *Server) handleAddEmployee(w http.ResponseWriter, r *http.Request) {
	var e model.Employee
	if err := decodeJSON(w, r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := s.store.AddEmployee(e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	added, _ := snap.Index.Lookup(strings.TrimSpace(e.Name))
	writeJSON(w, http.StatusCreated, added)
}

type changeManagerRequest struct {
	Manager string `json:"manager"` // Empty makes the person a root
}

func (s *Server) handleChangeManager(w http.ResponseWriter, r *http.Request) {
	var req changeManagerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	name := mux.Vars(r)["name"]
	snap, err := s.store.ChangeManager(name, req.Manager)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, _ := snap.Index.Resolve(name)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Connections())
}

type addConnectionRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Designation        string `json:"designation"`
	Champion           string `json:"champion"`
	ConnectionChampion string `json:"connectionChampion"` // Older form field name
	Notes              string `json:"notes"`
}

type addConnectionResponse struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	Data             model.Connection `json:"data"`
	TotalConnections int              `json:"total_connections"`
}

func (s *Server) handleAddConnection(w http.ResponseWriter, r *http.Request) {
	var req addConnectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeError(w, r, badRequest("name is required"))
		return
	}

	champion := req.Champion
	if champion == "" {
		champion = req.ConnectionChampion
	}
	c := s.store.AddConnection(model.Connection{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Designation: strings.TrimSpace(req.Designation),
		Champion:    strings.TrimSpace(champion),
		Notes:       strings.TrimSpace(req.Notes),
	})
	log.InfoContext(r.Context(), "connection added", "id", c.ID, "name", c.Name, "champion", c.Champion)

	writeJSON(w, http.StatusOK, addConnectionResponse{
		Success:          true,
		Message:          "Connection added successfully",
		Data:             c,
		TotalConnections: len(s.store.Connections()),
	})
}

type systemInfoResponse struct {
	Success         bool      `json:"success"`
	DataSource      string    `json:"data_source"`
	Location        string    `json:"location,omitempty"`
	FallbackData    bool      `json:"fallback_data"`
	TotalEmployees  int       `json:"total_employees"`
	LastSync        time.Time `json:"last_sync"`
	SnapshotVersion int64     `json:"snapshot_version"`
	SyncAvailable   bool      `json:"sync_available"`
	UploadFormats   []string  `json:"upload_formats"`
	UploadMaxBytes  int64     `json:"upload_max_bytes"`
	Representatives []string  `json:"representatives"`
	StartedAt       time.Time `json:"started_at"`
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	reps := s.opts.Representatives
	if reps == nil {
		reps = []string{}
	}
	writeJSON(w, http.StatusOK, systemInfoResponse{
		Success:         true,
		DataSource:      snap.Origin.Name,
		Location:        snap.Origin.Location,
		FallbackData:    snap.Origin.Fallback,
		TotalEmployees:  snap.Len(),
		LastSync:        snap.LoadedAt,
		SnapshotVersion: snap.Version,
		SyncAvailable:   s.loader != nil,
		UploadFormats:   spreadsheet.Extensions,
		UploadMaxBytes:  s.opts.UploadMaxBytes,
		Representatives: reps,
		StartedAt:       s.startedAt,
	})
}

type healthResponse struct {
	Status          string    `json:"status"`
	EmployeesLoaded int       `json:"employees_loaded"`
	NewConnections  int       `json:"new_connections"`
	Subscribers     int       `json:"subscribers"`
	DataSource      string    `json:"data_source"`
	FallbackData    bool      `json:"fallback_data"`
	LastSync        time.Time `json:"last_sync"`
	Version         string    `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	subscribers := 0
	if sr, ok := s.publisher.(statusReader); ok {
		subscribers = sr.Subscribers(pubsub.TopicDirectoryStatus)
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "healthy",
		EmployeesLoaded: snap.Len(),
		NewConnections:  len(s.store.Connections()),
		Subscribers:     subscribers,
		DataSource:      snap.Origin.Name,
		FallbackData:    snap.Origin.Fallback,
		LastSync:        snap.LoadedAt,
		Version:         Version,
	})
}
