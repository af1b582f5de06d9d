// Package server exposes the conversion pipeline over HTTP.
//
// The surface is deliberately small: POST /v1/conversions uploads a
// tabular file and returns the generated document metadata, and
// GET /healthz reports liveness. Authentication, billing and user
// management live outside this service.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slidesmith/slidesmith/pkg/dataset"
	"github.com/slidesmith/slidesmith/pkg/pipeline"
	"github.com/slidesmith/slidesmith/pkg/plan"
	"github.com/slidesmith/slidesmith/pkg/texts"
)

// maxUploadBytes bounds the multipart form held in memory.
const maxUploadBytes = 64 << 20

// Server handles conversion requests.
type Server struct {
	cfg    *Config
	runner *pipeline.Runner
	logger *log.Logger
}

// New builds a server from its configuration: usage store, governor,
// text composer and pipeline runner.
func New(cfg *Config, store plan.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	composer := &texts.Composer{Fallback: texts.FallbackStrategy{}, Logger: logger}
	if cfg.AI.APIKey != "" {
		composer.Primary = texts.NewAIStrategy(cfg.AI.APIKey, cfg.AI.Model)
	}
	governor := &plan.Governor{Store: store}
	return &Server{
		cfg:    cfg,
		runner: pipeline.NewRunner(governor, composer, logger),
		logger: logger,
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/conversions", s.handleConvert)
	return r
}

// ListenAndServe runs the HTTP server until it fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.cfg.Server.Addr)
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// conversionResponse is the success payload of POST /v1/conversions.
type conversionResponse struct {
	OutputPath string   `json:"output_path"`
	SlideCount int      `json:"slide_count"`
	Warnings   []string `json:"warnings"`
}

// handleConvert accepts a multipart upload ("file" plus optional form
// fields title, theme, style, user_id, tier, slides) and runs the
// pipeline on it.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "file" upload`)
		return
	}
	defer file.Close()

	inputPath, cleanup, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.logger.Error("upload save failed", "reason", err)
		writeError(w, http.StatusInternalServerError, "could not store the upload")
		return
	}
	defer cleanup()

	opts, err := s.buildOptions(r, inputPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversionResponse{
		OutputPath: result.OutputPath,
		SlideCount: result.SlideCount,
		Warnings:   append([]string{}, result.Warnings...),
	})
}

// buildOptions maps form fields onto pipeline options.
func (s *Server) buildOptions(r *http.Request, inputPath string) (pipeline.Options, error) {
	opts := pipeline.Options{
		InputPath: inputPath,
		Title:     r.FormValue("title"),
		Theme:     r.FormValue("theme"),
		OutputDir: s.cfg.Deck.OutputDir,
		UserID:    r.FormValue("user_id"),
	}
	if opts.Theme == "" {
		opts.Theme = s.cfg.Deck.Theme
	}
	if tier := r.FormValue("tier"); tier != "" {
		parsed, err := plan.ParseTier(tier)
		if err != nil {
			return opts, err
		}
		opts.Tier = parsed
	}
	if raw := r.FormValue("slides"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, errors.New("slides must be a non-negative integer")
		}
		opts.RequestedSlides = n
	}
	if style := r.FormValue("style"); style != "" {
		params := plan.Derive(opts.Tier)
		params.TextStyle = style
		opts.Params = &params
	}
	return opts, nil
}

// saveUpload stores the uploaded file in a temp directory, keeping the
// original extension so the loader can detect the format.
func (s *Server) saveUpload(src io.Reader, filename string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "slidesmith-upload-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	name := filepath.Base(filename)
	if name == "" || name == "." {
		name = "upload.csv"
	}
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// writeFailure maps the pipeline error taxonomy onto HTTP statuses:
// bad input is the client's fault, quota denials are forbidden,
// everything else is internal.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var le *dataset.LoadError
	if errors.As(err, &le) {
		writeError(w, http.StatusBadRequest, le.Reason)
		return
	}
	var de *plan.DenialError
	if errors.As(err, &de) {
		writeError(w, http.StatusForbidden, de.Reason)
		return
	}
	s.logger.Error("conversion failed", "reason", err)
	writeError(w, http.StatusInternalServerError, "conversion failed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
