// Package server exposes the PixelTyper templates, fonts and compositing
// engine over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/PixelTyper/pkg/apperr"
	"github.com/xob0t/PixelTyper/pkg/compose"
	"github.com/xob0t/PixelTyper/pkg/fonts"
	"github.com/xob0t/PixelTyper/pkg/imagefile"
	"github.com/xob0t/PixelTyper/pkg/template"
)

const (
	maxImageUpload = 32 << 20
	maxFontUpload  = 16 << 20
)

// Options wires the server to the core components.
type Options struct {
	Engine *compose.Engine
	Store  *template.Store
	Fonts  *fonts.Resolver
	Log    logrus.FieldLogger
}

// Server is the HTTP API.
type Server struct {
	engine *compose.Engine
	store  *template.Store
	fonts  *fonts.Resolver
	log    logrus.FieldLogger
	assets *assetManager
	tmpDir string
}

// New returns a server. Close removes its uploaded images.
func New(opts Options) (*Server, error) {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	tmpDir, err := os.MkdirTemp("", "pixeltyper-serve-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Server{
		engine: opts.Engine,
		store:  opts.Store,
		fonts:  opts.Fonts,
		log:    opts.Log,
		assets: newAssetManager(tmpDir),
		tmpDir: tmpDir,
	}, nil
}

// Close releases the server's temporary files.
func (s *Server) Close() error {
	return os.RemoveAll(s.tmpDir)
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/templates", s.handleListTemplates)
	mux.HandleFunc("GET /api/templates/{name}", s.handleGetTemplate)
	mux.HandleFunc("PATCH /api/templates/{name}/fonts", s.handleUpdateFonts)
	mux.HandleFunc("GET /api/fonts", s.handleListFonts)
	mux.HandleFunc("POST /api/fonts", s.handleUploadFont)
	mux.HandleFunc("GET /api/images", s.handleListImages)
	mux.HandleFunc("POST /api/images", s.handleUploadImage)
	mux.HandleFunc("GET /api/images/{id}", s.handleGetImage)
	mux.HandleFunc("DELETE /api/images/{id}", s.handleDeleteImage)
	mux.HandleFunc("POST /api/apply", s.handleApply)
	mux.HandleFunc("POST /api/overlay", s.handleOverlay)

	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("PixelTyper API listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdown)
	}
}

// ── Middleware ──

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

// ── Templates ──

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": names})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	pts, err := s.store.Load(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pts)
}

func (s *Server) handleUpdateFonts(w http.ResponseWriter, r *http.Request) {
	var updates map[string]template.FontFields
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.writeError(w, apperr.Validation("decode font updates: %v", err))
		return
	}
	name := r.PathValue("name")
	skipped, err := s.store.UpdateFonts(name, updates)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"template": name, "skipped": skipped})
}

// ── Fonts ──

func (s *Server) handleListFonts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"fonts": s.fonts.Available()})
}

func (s *Server) handleUploadFont(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFontUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, apperr.Validation("no font file uploaded"))
		return
	}
	defer file.Close()

	name, err := s.fonts.Install(header.Filename, file)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

// ── Images ──

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, apperr.Validation("no image file uploaded"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, apperr.Validation("read upload: %v", err))
		return
	}
	mimeType := mime.TypeByExtension(filepath.Ext(header.Filename))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	a, err := s.assets.add(header.Filename, data, mimeType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":   a.ID,
		"name": a.Name,
		"url":  "/api/images/" + a.ID,
	})
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"images": s.assets.list()})
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assets.get(r.PathValue("id"))
	if !ok {
		s.writeError(w, fmt.Errorf("image %s: %w", r.PathValue("id"), apperr.ErrNotFound))
		return
	}
	w.Header().Set("Content-Type", a.Mime)
	http.ServeFile(w, r, a.path)
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.assets.remove(id) {
		s.writeError(w, fmt.Errorf("image %s: %w", id, apperr.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ── Compositing ──

// styleRequest carries the call defaults shared by apply and overlay.
type styleRequest struct {
	Color   string `json:"color"`
	Size    int    `json:"size"`
	Font    string `json:"font"`
	Opacity *int   `json:"opacity"`
	Format  string `json:"format"` // output extension, ".png" when empty
}

func (sr styleRequest) style() template.Style {
	st := template.DefaultStyle()
	if sr.Color != "" {
		st.Color = sr.Color
	}
	if sr.Size != 0 {
		st.Size = sr.Size
	}
	if sr.Font != "" {
		st.Font = sr.Font
	}
	if sr.Opacity != nil {
		st.Opacity = *sr.Opacity
	}
	return st
}

func (sr styleRequest) format() string {
	if sr.Format == "" {
		return ".png"
	}
	return "." + strings.TrimPrefix(strings.ToLower(sr.Format), ".")
}

type applyRequest struct {
	Image     string                         `json:"image"`
	Template  string                         `json:"template"`
	Texts     template.TextMapping           `json:"texts"`
	Overrides map[string]template.FontFields `json:"overrides"`
	styleRequest
}

type overlayRequest struct {
	Image string `json:"image"`
	Text  string `json:"text"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	styleRequest
}

func (s *Server) imagePath(id string) (string, error) {
	a, ok := s.assets.get(id)
	if !ok {
		return "", fmt.Errorf("image %q: %w", id, apperr.ErrNotFound)
	}
	return a.path, nil
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("decode request: %v", err))
		return
	}
	if imagefile.ContentType(req.format()) == "" {
		s.writeError(w, apperr.Validation("unsupported format %q", req.Format))
		return
	}
	path, err := s.imagePath(req.Image)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.engine.Apply(compose.ApplyRequest{
		ImagePath: path,
		Template:  req.Template,
		Texts:     req.Texts,
		Overrides: req.Overrides,
		Defaults:  req.style(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("X-Skipped-Points", strings.Join(res.Skipped, ","))
	w.Header().Set("X-Drawn-Points", fmt.Sprint(res.Drawn))
	s.writeImage(w, req.format(), res.Image)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	var req overlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("decode request: %v", err))
		return
	}
	if imagefile.ContentType(req.format()) == "" {
		s.writeError(w, apperr.Validation("unsupported format %q", req.Format))
		return
	}
	path, err := s.imagePath(req.Image)
	if err != nil {
		s.writeError(w, err)
		return
	}

	img, err := s.engine.Overlay(compose.OverlayRequest{
		ImagePath: path,
		Text:      req.Text,
		Position:  image.Pt(req.X, req.Y),
		Style:     req.style(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeImage(w, req.format(), img)
}

// ── Helpers ──

func (s *Server) writeImage(w http.ResponseWriter, ext string, img image.Image) {
	w.Header().Set("Content-Type", imagefile.ContentType(ext))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="output%s"`, ext))
	if err := imagefile.Encode(w, ext, img); err != nil {
		s.log.WithError(err).Error("encoding response image failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrLoad:
		return http.StatusUnprocessableEntity
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
