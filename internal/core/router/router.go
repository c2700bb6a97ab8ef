// Package router implements the public wire contract: generation, share,
// replay and view endpoints.
package router

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/observability"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/gen"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/geo"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/logger"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/pipeline"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/share"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/stream"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	engine *pipeline.Engine
	codec  *share.Codec
	views  *share.Views
	logger *slog.Logger
}

func New(engine *pipeline.Engine, codec *share.Codec, views *share.Views, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{engine: engine, codec: codec, views: views, logger: log}
}

func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/generate", h.Generate)
	r.Post("/api/generate", h.Generate)
	r.Post("/api/share", h.ShareSave)
	r.Get("/api/share", h.ShareLoad)
	r.Get("/api/share/{id}", h.ShareLoad)
	r.Get("/api/replay", h.Replay)
	r.Get("/api/view/{id}", h.ViewGet)
	r.Post("/api/view/{id}", h.ViewIncrement)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps the wrapped writer usable for per-frame streaming.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// generateBody is the optional POST payload; body fields win over query
// parameters.
type generateBody struct {
	Prompt   string           `json:"prompt"`
	Lang     string           `json:"lang"`
	Mode     string           `json:"mode"`
	Mood     string           `json:"mood"`
	MoodText string           `json:"moodText"`
	Weather  string           `json:"weather"`
	Coords   *pipeline.Coords `json:"coords"`
}

// ParseGenerateRequest validates query and body into a pipeline request.
// A request with neither prompt nor a known mode is a client error.
func ParseGenerateRequest(r *http.Request) (pipeline.Request, error) {
	q := r.URL.Query()
	body := generateBody{
		Prompt:   q.Get("prompt"),
		Lang:     q.Get("lang"),
		Mode:     q.Get("mode"),
		Mood:     q.Get("mood"),
		MoodText: q.Get("moodText"),
		Weather:  q.Get("weather"),
	}

	if r.Method == http.MethodPost && r.Body != nil {
		var posted generateBody
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&posted); err != nil && !errors.Is(err, io.EOF) {
			return pipeline.Request{}, errors.New("malformed request body")
		}
		if posted.Prompt != "" {
			body.Prompt = posted.Prompt
		}
		if posted.Lang != "" {
			body.Lang = posted.Lang
		}
		if posted.Mode != "" {
			body.Mode = posted.Mode
		}
		if posted.Mood != "" {
			body.Mood = posted.Mood
		}
		if posted.MoodText != "" {
			body.MoodText = posted.MoodText
		}
		if posted.Weather != "" {
			body.Weather = posted.Weather
		}
		if posted.Coords != nil {
			body.Coords = posted.Coords
		}
	}

	prompt := strings.TrimSpace(body.Prompt)
	mode := model.NormalizeMode(body.Mode)
	if prompt == "" && mode == "" {
		return pipeline.Request{}, errors.New("missing prompt")
	}
	if mode == "" {
		mode = model.ModeOracle
	}
	lang := model.NormalizeLang(body.Lang)
	if prompt == "" {
		prompt = gen.DefaultPrompt(mode, lang)
	}
	prompt = foldMood(prompt, body.Mood, body.MoodText)

	return pipeline.Request{
		Prompt:          prompt,
		Lang:            lang,
		Mode:            mode,
		WeatherOverride: strings.TrimSpace(body.Weather),
		Coords:          body.Coords,
		Meta:            geo.MetaFromRequest(r),
		RequestID:       logger.RequestID(r.Context()),
	}, nil
}

// foldMood folds the mood parameters into the effective prompt so distinct
// moods address distinct cache entries.
func foldMood(prompt, mood, moodText string) string {
	m := strings.TrimSpace(moodText)
	if m == "" {
		m = strings.TrimSpace(mood)
	}
	if m == "" {
		return prompt
	}
	return prompt + " · mood: " + m
}

func wantsStream(r *http.Request) bool {
	if r.URL.Query().Get("stream") != "1" {
		return false
	}
	accept := r.Header.Get("Accept")
	return accept == "" ||
		strings.Contains(accept, "application/x-ndjson") ||
		strings.Contains(accept, "*/*")
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

	req, err := ParseGenerateRequest(r)
	if err != nil {
		writeError(sw, http.StatusBadRequest, err.Error())
		observability.ObserveHTTP(r.Method, "/api/generate", http.StatusBadRequest, time.Since(start).Seconds())
		return
	}

	if wantsStream(r) {
		em := stream.NewEmitter(sw)
		h.engine.HandleStream(r.Context(), req, em)
		observability.ObserveHTTP(r.Method, "/api/generate", sw.code, time.Since(start).Seconds())
		return
	}

	res := h.engine.Handle(r.Context(), req)
	writeJSON(sw, http.StatusOK, res)
	observability.ObserveHTTP(r.Method, "/api/generate", sw.code, time.Since(start).Seconds())
}

func (h *Handler) ShareSave(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

	var res model.GenerationResult
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&res); err != nil {
		writeError(sw, http.StatusBadRequest, "malformed result payload")
		observability.ObserveHTTP(r.Method, "/api/share", http.StatusBadRequest, time.Since(start).Seconds())
		return
	}
	if res.Prompt == "" || res.Content.Text == "" {
		writeError(sw, http.StatusBadRequest, "result is missing prompt or content")
		observability.ObserveHTTP(r.Method, "/api/share", http.StatusBadRequest, time.Since(start).Seconds())
		return
	}

	id := h.codec.Save(r.Context(), res)
	writeJSON(sw, http.StatusOK, map[string]string{
		"id":  id,
		"url": h.codec.PublicURL(id, share.Encode(res)),
	})
	observability.ObserveHTTP(r.Method, "/api/share", sw.code, time.Since(start).Seconds())
}

func (h *Handler) ShareLoad(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}

	if res, ok := h.codec.Load(r.Context(), id); ok {
		if res.Share != nil {
			res.Share.Views = h.views.Get(r.Context(), id)
		}
		writeJSON(sw, http.StatusOK, res)
		observability.ObserveHTTP(r.Method, "/api/share", sw.code, time.Since(start).Seconds())
		return
	}

	// Stateless replay from the embedded token when storage has no row.
	if snap := share.Decode(r.URL.Query().Get("d")); snap != nil {
		writeJSON(sw, http.StatusOK, h.engine.FromSnapshot(*snap))
		observability.ObserveHTTP(r.Method, "/api/share", sw.code, time.Since(start).Seconds())
		return
	}

	writeError(sw, http.StatusNotFound, "share not found")
	observability.ObserveHTTP(r.Method, "/api/share", http.StatusNotFound, time.Since(start).Seconds())
}

func (h *Handler) Replay(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

	snap := share.Decode(r.URL.Query().Get("d"))
	if snap == nil {
		writeError(sw, http.StatusBadRequest, "invalid replay token")
		observability.ObserveHTTP(r.Method, "/api/replay", http.StatusBadRequest, time.Since(start).Seconds())
		return
	}
	writeJSON(sw, http.StatusOK, h.engine.FromSnapshot(*snap))
	observability.ObserveHTTP(r.Method, "/api/replay", sw.code, time.Since(start).Seconds())
}

func (h *Handler) ViewGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"views": h.views.Get(r.Context(), id)})
}

func (h *Handler) ViewIncrement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"views": h.views.Increment(r.Context(), id)})
}
