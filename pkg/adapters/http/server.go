package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes document editing over HTTP.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager

	logger  *slog.Logger
	metrics *observability.Metrics
	version string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics times requests and serves GET /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates a new HTTP handler over the session manager.
func NewHandler(mgr *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Manager: mgr,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeChanges)
	r.Get("/schemas/{type}", s.GetSchema)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.ListDocuments)
		r.Post("/", s.CreateDocument)
		r.Route("/{doc}", func(r chi.Router) {
			r.Get("/", s.GetDocument)
			r.Delete("/", s.DeleteDocument)
			r.Get("/events", s.SubscribeDocument)
			r.Get("/validate", s.ValidateDocument)
			r.Route("/scenes/{scene}/records/{type}", func(r chi.Router) {
				r.Get("/", s.ListRecords)
				r.Post("/{id}/duplicate", s.DuplicateRecord)
				r.Post("/{id}/change-id", s.ChangeRecordID)
				r.Delete("/{id}", s.DeleteRecord)
			})
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ChangeEvent is broadcast to document subscribers after a successful edit.
type ChangeEvent struct {
	Op       domain.Op         `json:"op"`
	Type     domain.RecordType `json:"type"`
	SceneID  int64             `json:"scene_id,omitempty"`
	ID       int64             `json:"id"`
	SourceID int64             `json:"source_id,omitempty"`
}

// CreateDocumentRequest is the body of POST /documents.
type CreateDocumentRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "arbor-http",
		"version": s.version,
	}, s.logger)
}

// ListDocuments handles the GET /documents request.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Manager.List(r.Context())
	if err != nil {
		s.writeError(w, "ListDocuments", err)
		return
	}
	writeJSON(w, http.StatusOK, docs, s.logger)
}

// CreateDocument handles the POST /documents request.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var body CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		http.Error(w, "Invalid request body: id is required", http.StatusBadRequest)
		s.logger.Warn("CreateDocument: Invalid request body", "error", err)
		return
	}
	doc, err := s.Manager.Create(r.Context(), body.ID, body.Name)
	if err != nil {
		s.writeError(w, "CreateDocument", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc, s.logger)
}

// GetDocument handles the GET /documents/{doc} request.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Manager.Load(r.Context(), chi.URLParam(r, "doc"))
	if err != nil {
		s.writeError(w, "GetDocument", err)
		return
	}
	writeJSON(w, http.StatusOK, doc, s.logger)
}

// DeleteDocument handles the DELETE /documents/{doc} request.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "doc")); err != nil {
		s.writeError(w, "DeleteDocument", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchema handles GET /schemas/{type}.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	t := chi.URLParam(r, "type")
	if !domain.IsRecordType(t) {
		http.Error(w, fmt.Sprintf("Unknown record type %q", t), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, schema.For(domain.RecordType(t)), s.logger)
}

// ValidationReport is the body of GET /documents/{doc}/validate.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateDocument handles GET /documents/{doc}/validate. It reports dangling
// references and property problems without changing the document.
func (s *Server) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	report := ValidationReport{Valid: true, Errors: []string{}}
	err := s.Manager.View(r.Context(), chi.URLParam(r, "doc"), func(pf *project.Factory) error {
		if err := pf.Validate(); err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
		err := schema.ValidateTree(pf.Target(), pf.MaxDepth())
		for _, e := range schema.ValidationErrors(err) {
			report.Errors = append(report.Errors, e.Error())
		}
		if err != nil && schema.ValidationErrors(err) == nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.writeError(w, "ValidateDocument", err)
		return
	}
	report.Valid = len(report.Errors) == 0
	writeJSON(w, http.StatusOK, report, s.logger)
}

// ListRecords handles GET /documents/{doc}/scenes/{scene}/records/{type}.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	docID, sceneID, t, ok := s.sceneParams(w, r)
	if !ok {
		return
	}
	var records []*domain.Record
	err := s.Manager.View(r.Context(), docID, func(pf *project.Factory) error {
		sf, err := pf.Scene(sceneID)
		if err != nil {
			return err
		}
		records = sf.Records(t)
		return nil
	})
	if err != nil {
		s.writeError(w, "ListRecords", err)
		return
	}
	if records == nil {
		records = []*domain.Record{}
	}
	writeJSON(w, http.StatusOK, records, s.logger)
}

// DuplicateRecord handles POST .../records/{type}/{id}/duplicate[?deep=true].
func (s *Server) DuplicateRecord(w http.ResponseWriter, r *http.Request) {
	docID, sceneID, t, ok := s.sceneParams(w, r)
	if !ok {
		return
	}
	id, ok := s.recordID(w, r)
	if !ok {
		return
	}
	deep := r.URL.Query().Get("deep") == "true"

	var dup *domain.Record
	err := s.Manager.Edit(r.Context(), docID, func(pf *project.Factory) error {
		sf, err := pf.Scene(sceneID)
		if err != nil {
			return err
		}
		if deep {
			dup, err = sf.DuplicateDeepRecord(t, id)
		} else {
			dup, err = sf.DuplicateRecord(t, id)
		}
		return err
	})
	if err != nil {
		s.writeError(w, "DuplicateRecord", err)
		return
	}

	op := domain.OpDuplicate
	if deep {
		op = domain.OpDuplicateDeep
	}
	s.broadcast(docID, ChangeEvent{Op: op, Type: t, SceneID: sceneID, ID: dup.ID, SourceID: id})
	writeJSON(w, http.StatusCreated, dup, s.logger)
}

// DeleteRecord handles DELETE .../records/{type}/{id}[?deep=true].
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	docID, sceneID, t, ok := s.sceneParams(w, r)
	if !ok {
		return
	}
	id, ok := s.recordID(w, r)
	if !ok {
		return
	}
	deep := r.URL.Query().Get("deep") == "true"

	var removed *domain.Record
	err := s.Manager.Edit(r.Context(), docID, func(pf *project.Factory) error {
		sf, err := pf.Scene(sceneID)
		if err != nil {
			return err
		}
		if deep {
			removed, err = sf.DeleteDeepRecord(t, id)
		} else {
			removed, err = sf.DeleteRecord(t, id)
		}
		return err
	})
	if err != nil {
		s.writeError(w, "DeleteRecord", err)
		return
	}

	op := domain.OpDelete
	if deep {
		op = domain.OpDeleteDeep
	}
	s.broadcast(docID, ChangeEvent{Op: op, Type: t, SceneID: sceneID, ID: id})
	writeJSON(w, http.StatusOK, removed, s.logger)
}

// ChangeRecordID handles POST .../records/{type}/{id}/change-id. The record
// keeps its position and gets a fresh id.
func (s *Server) ChangeRecordID(w http.ResponseWriter, r *http.Request) {
	docID, sceneID, t, ok := s.sceneParams(w, r)
	if !ok {
		return
	}
	id, ok := s.recordID(w, r)
	if !ok {
		return
	}

	var newID int64
	err := s.Manager.Edit(r.Context(), docID, func(pf *project.Factory) error {
		sf, err := pf.Scene(sceneID)
		if err != nil {
			return err
		}
		newID, err = sf.ChangeRecordID(t, id)
		return err
	})
	if err != nil {
		s.writeError(w, "ChangeRecordID", err)
		return
	}

	s.broadcast(docID, ChangeEvent{Op: domain.OpChangeID, Type: t, SceneID: sceneID, ID: newID, SourceID: id})
	writeJSON(w, http.StatusOK, map[string]int64{"id": newID}, s.logger)
}

// SubscribeDocument handles GET /documents/{doc}/events (SSE).
func (s *Server) SubscribeDocument(w http.ResponseWriter, r *http.Request) {
	flusher, ok := startStream(w)
	if !ok {
		s.logger.Error("SubscribeDocument: Streaming not supported")
		return
	}
	docID := chi.URLParam(r, "doc")
	s.logger.Info("SSE: Subscribing to document updates", "doc_id", docID)

	ch, cancel := s.Streams.Subscribe(docID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "doc_id", docID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// SubscribeChanges handles GET /events (SSE): ids of documents changed in the
// backing store, when the store can watch.
func (s *Server) SubscribeChanges(w http.ResponseWriter, r *http.Request) {
	watchable, ok := s.Manager.Store().(ports.Watchable)
	if !ok {
		http.Error(w, "Store does not support watching", http.StatusNotImplemented)
		return
	}
	events, err := watchable.Watch(r.Context())
	if err != nil {
		s.writeError(w, "SubscribeChanges", err)
		return
	}

	flusher, ok := startStream(w)
	if !ok {
		s.logger.Error("SubscribeChanges: Streaming not supported")
		return
	}
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", id)
			flusher.Flush()
		}
	}
}

func startStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

func (s *Server) broadcast(docID string, e ChangeEvent) {
	b, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("Broadcast encode failed", "error", err)
		return
	}
	s.Streams.Broadcast(docID, string(b))
}

func (s *Server) sceneParams(w http.ResponseWriter, r *http.Request) (string, int64, domain.RecordType, bool) {
	sceneID, err := strconv.ParseInt(chi.URLParam(r, "scene"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid scene id", http.StatusBadRequest)
		return "", 0, "", false
	}
	t := chi.URLParam(r, "type")
	if !domain.IsRecordType(t) {
		http.Error(w, fmt.Sprintf("Unknown record type %q", t), http.StatusBadRequest)
		return "", 0, "", false
	}
	return chi.URLParam(r, "doc"), sceneID, domain.RecordType(t), true
}

func (s *Server) recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid record id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIDConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTreeTooDeep):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	} else {
		s.logger.Warn(op+" rejected", "error", err, "status", status)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()}, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "error", err)
	}
}
