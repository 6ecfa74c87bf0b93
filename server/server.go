// Package server exposes folio conversion over HTTP and serves the image
// cache that converted HTML links to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tsawler/folio"
	"github.com/tsawler/folio/config"
	"github.com/tsawler/folio/format"
)

// maxMemory is the part of a multipart upload kept in memory.
const maxMemory = 32 << 20

// Server serves conversion requests.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	router *chi.Mux
}

// New builds the router. A nil cfg means config.Default().
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle(strings.TrimSuffix(cfg.PublicCachePrefix, "/")+"/*", s.cacheHandler())
	r.Post("/convert", s.handleConvert)
	r.Post("/metadata", s.handleMetadata)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("folio: listening", "addr", srv.Addr, "cache", s.cfg.CacheRoot)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

// cacheHandler serves files from the cache root. Directories are not listed.
func (s *Server) cacheHandler() http.Handler {
	if s.cfg.CacheRoot == "" {
		return http.NotFoundHandler()
	}
	prefix := strings.TrimSuffix(s.cfg.PublicCachePrefix, "/")
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(s.cfg.CacheRoot)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	})
}

// handleConvert converts an uploaded book to HTML. Optional start and end
// form values select an inclusive page range.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := s.receive(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer cleanup()

	start, err := formInt(r, "start")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	end, err := formInt(r, "end")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ext := s.extractor(r.Context(), path)
	defer ext.Close()

	if start > 0 || end > 0 {
		count, err := ext.PageCount()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if start < 1 {
			start = 1
		}
		if end < 1 || end > count {
			end = count
		}
		ext = ext.PageRange(start, end)
	}

	html, warnings, err := ext.HTML()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, warning := range warnings {
		s.logger.Warn("folio: conversion warning",
			"request_id", middleware.GetReqID(r.Context()),
			"code", warning.Code.String(),
			"page", warning.Page,
			"msg", warning.Message)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Folio-Warnings", strconv.Itoa(len(warnings)))
	io.WriteString(w, html)
}

type metadataResponse struct {
	Format      string   `json:"format"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Synopsis    string   `json:"synopsis,omitempty"`
	Language    string   `json:"language,omitempty"`
	Series      string   `json:"series,omitempty"`
	SeriesIndex *float64 `json:"series_index,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
	Pages       int      `json:"pages"`
	HasCover    bool     `json:"has_cover"`
	Warnings    []string `json:"warnings,omitempty"`
}

// handleMetadata returns the descriptive metadata of an uploaded book as JSON.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := s.receive(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer cleanup()

	book, warnings, err := s.extractor(r.Context(), path).Metadata()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := metadataResponse{
		Format:      book.Format.String(),
		Title:       book.Title,
		Author:      book.Author,
		Synopsis:    book.Synopsis,
		Language:    book.Language,
		Series:      book.Series,
		SeriesIndex: book.SeriesIndex,
		Publisher:   book.Publisher,
		PublishDate: book.PublishDate,
		Pages:       book.Pages,
		HasCover:    len(book.Cover) > 0,
	}
	for _, warning := range warnings {
		resp.Warnings = append(resp.Warnings, warning.String())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) extractor(ctx context.Context, path string) *folio.Extractor {
	ext := folio.Open(path).
		WithContext(ctx).
		WithLogger(s.logger).
		WithLayout(s.cfg.ParagraphConfig())
	if s.cfg.CacheRoot != "" {
		ext = ext.WithCache(s.cfg.CacheRoot).WithPublicPrefix(s.cfg.PublicCachePrefix)
	}
	return ext
}

// receive stores the "file" part of a multipart upload in a temporary
// directory under its original base name, which becomes the document
// identifier of cached images.
func (s *Server) receive(w http.ResponseWriter, r *http.Request) (string, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return "", nil, badRequest("invalid multipart upload: %v", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, badRequest("missing file field: %v", err)
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || format.Detect(name) == format.Unknown {
		name = "upload"
	}

	dir, err := os.MkdirTemp("", "folio-upload-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	_, err = io.Copy(out, file)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid %s: %q", key, v)
	}
	return n, nil
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(msg, args...)}
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &reqErr), errors.Is(err, folio.ErrPageOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, folio.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("folio: request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"err", err)
	}
	http.Error(w, err.Error(), status)
}
