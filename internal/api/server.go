// Package api exposes stored comparison runs over a read-only HTTP surface.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"deqc/domain/core"
	"deqc/domain/de"
	"deqc/internal/report"
	"deqc/ports"
)

// Server serves run artifacts from the ledger. It never writes.
type Server struct {
	router *chi.Mux
	reader ports.LedgerReaderPort
	port   string
}

// NewServer creates a read-only API server over a ledger reader
func NewServer(reader ports.LedgerReaderPort, port string) *Server {
	s := &Server{
		router: chi.NewRouter(),
		reader: reader,
		port:   port,
	}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Get("/api/runs/{id}/manifest", s.handleManifest)
	s.router.Get("/api/runs/{id}/artifacts", s.handleArtifacts)
	s.router.Get("/api/runs/{id}/correlations", s.handleCorrelations)
	s.router.Get("/api/runs/{id}/report", s.handleReport)

	return s
}

// Start blocks serving HTTP until the listener fails
func (s *Server) Start() error {
	log.Printf("[API] Serving run ledger on :%s", s.port)
	return http.ListenAndServe(":"+s.port, s.router)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) runID(w http.ResponseWriter, r *http.Request) (core.RunID, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runID(w, r)
	if !ok {
		return
	}
	manifest, err := s.reader.GetRunManifest(r.Context(), runID)
	if err != nil {
		s.notFoundOrError(w, err)
		return
	}
	s.writeJSON(w, manifest)
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runID(w, r)
	if !ok {
		return
	}
	artifacts, err := s.reader.GetArtifactsByRun(r.Context(), runID)
	if err != nil {
		s.notFoundOrError(w, err)
		return
	}
	s.writeJSON(w, artifacts)
}

func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runID(w, r)
	if !ok {
		return
	}
	artifacts, err := s.reader.GetArtifactsByKind(r.Context(), runID, core.ArtifactCorrelationSummary)
	if err != nil {
		s.notFoundOrError(w, err)
		return
	}
	if len(artifacts) == 0 {
		http.Error(w, "no correlation summary for run", http.StatusNotFound)
		return
	}
	s.writeJSON(w, artifacts[len(artifacts)-1].Payload)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runID(w, r)
	if !ok {
		return
	}
	manifest, err := s.reader.GetRunManifest(r.Context(), runID)
	if err != nil {
		s.notFoundOrError(w, err)
		return
	}

	long := s.decodeLongTable(r, runID)
	partition := s.decodePartition(r, runID)

	md := report.BuildMarkdown(manifest, long, partition)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(report.RenderHTML(md))
}

// decodeLongTable reloads the stored long table; a missing artifact yields an
// empty table so the report still renders the manifest sections.
func (s *Server) decodeLongTable(r *http.Request, runID core.RunID) *de.LongTable {
	long := &de.LongTable{
		Dropped: make(map[de.ShrinkageMethod]int),
		Labels:  make(map[de.MetricGroup]de.Correlations),
	}
	artifacts, err := s.reader.GetArtifactsByKind(r.Context(), runID, core.ArtifactMergedTable)
	if err != nil || len(artifacts) == 0 {
		return long
	}
	if decoded := decodePayload[de.LongTable](artifacts[len(artifacts)-1].Payload); decoded != nil {
		return decoded
	}
	return long
}

func (s *Server) decodePartition(r *http.Request, runID core.RunID) *de.SetPartition {
	artifacts, err := s.reader.GetArtifactsByKind(r.Context(), runID, core.ArtifactSetPartition)
	if err != nil || len(artifacts) == 0 {
		return nil
	}
	return decodePayload[de.SetPartition](artifacts[len(artifacts)-1].Payload)
}

// decodePayload handles both in-memory payloads and JSON round-tripped ones
func decodePayload[T any](payload any) *T {
	if typed, ok := payload.(*T); ok {
		return typed
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	return &decoded
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Encode error: %v", err)
	}
}

func (s *Server) notFoundOrError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	log.Printf("[API] Ledger error: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
