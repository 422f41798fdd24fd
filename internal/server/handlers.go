package server

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/errors"
	pageio "github.com/matzehuels/handwrite/pkg/io"
	"github.com/matzehuels/handwrite/pkg/pipeline"
	"github.com/matzehuels/handwrite/pkg/session"
)

// =============================================================================
// Request and response bodies
// =============================================================================

type createSessionRequest struct {
	Seed uint64 `json:"seed,omitempty"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	Seed      uint64    `json:"seed"`
	Passes    int       `json:"passes"`
	ExpiresAt time.Time `json:"expires_at"`
}

type renderRequest struct {
	Text        string  `json:"text"`
	CellSize    float64 `json:"cell_size,omitempty"`
	Columns     int     `json:"columns,omitempty"`
	MaxRows     int     `json:"max_rows,omitempty"`
	MaxColumns  int     `json:"max_columns,omitempty"`
	Margin      float64 `json:"margin,omitempty"`
	Seed        *uint64 `json:"seed,omitempty"`
	Decorate    bool    `json:"decorate,omitempty"`
	OnExhausted string  `json:"on_exhausted,omitempty"`
}

type renderResponse struct {
	PassID     string         `json:"pass_id"`
	SessionID  string         `json:"session_id"`
	Seed       uint64         `json:"seed"`
	Truncated  bool           `json:"truncated"`
	Fallbacks  int            `json:"fallbacks"`
	Placements []pageio.Glyph `json:"placements"`
	SVG        string         `json:"svg"`
}

type variantsResponse struct {
	Char     string              `json:"char"`
	Variants []catalog.VariantID `json:"variants"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	seed := req.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	sess := session.New(seed, s.ttl)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}
	s.logger.Info("session created", "session", sess.ID)
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := session.ValidateID(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "delete session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := session.ValidateID(id); err != nil {
		s.writeError(w, err)
		return
	}

	var req renderRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if !s.acquire(id) {
		s.writeError(w, errors.New(errors.ErrCodeBusy, "session %s is already rendering", id))
		return
	}
	defer s.release(id)

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "load session"))
		return
	}
	if sess == nil {
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found or expired", id))
		return
	}

	seed := sess.PassSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	runner := pipeline.NewRunner(s.assets, s.cache, s.keyer, s.logger)
	runner.Converter = s.converter
	runner.RestoreWindows(sess.PickerState())

	res, err := runner.Render(ctx, pipeline.Options{
		Text:        req.Text,
		CellSize:    req.CellSize,
		ColumnLimit: req.Columns,
		MaxRows:     req.MaxRows,
		MaxColumns:  req.MaxColumns,
		Margin:      req.Margin,
		Seed:        seed,
		Decorate:    req.Decorate,
		OnExhausted: req.OnExhausted,
		Formats:     []string{"svg"},
		Logger:      s.logger.With("session", id),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess.SetPickerState(runner.Windows())
	sess.Passes++
	sess.Touch(s.ttl)
	if err := s.sessions.Set(ctx, sess); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}

	writeJSON(w, http.StatusOK, renderResponse{
		PassID:     res.PassID,
		SessionID:  sess.ID,
		Seed:       res.Seed,
		Truncated:  res.Page.Truncated,
		Fallbacks:  res.Stats.Fallbacks,
		Placements: pipeline.ToDocument(res).Glyphs,
		SVG:        string(res.Artifacts["svg"]),
	})
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "char"))
	if err != nil || utf8.RuneCountInString(raw) != 1 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "expected a single character, got %q", chi.URLParam(r, "char")))
		return
	}
	ch, _ := utf8.DecodeRuneInString(raw)

	variants := s.assets.Variants(ch)
	if variants == nil {
		variants = []catalog.VariantID{}
	}
	writeJSON(w, http.StatusOK, variantsResponse{Char: raw, Variants: variants})
}

// =============================================================================
// Helpers
// =============================================================================

func toSessionResponse(sess *session.Session) sessionResponse {
	return sessionResponse{
		ID:        sess.ID,
		Seed:      sess.Seed,
		Passes:    sess.Passes,
		ExpiresAt: sess.ExpiresAt,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error:   string(code),
		Message: errors.UserMessage(err),
	})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeSessionNotFound, errors.ErrCodeAssetNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeBusy:
		return http.StatusConflict
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
