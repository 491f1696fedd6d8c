package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/skinlens/internal/application/analysis"
	appnarrative "github.com/bryanwahyu/skinlens/internal/application/narrative"
	"github.com/bryanwahyu/skinlens/internal/application/recommend"
	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
	"github.com/bryanwahyu/skinlens/internal/domain/inference"
	"github.com/bryanwahyu/skinlens/internal/domain/narrative"
	"github.com/bryanwahyu/skinlens/internal/domain/profiles"
	"github.com/bryanwahyu/skinlens/internal/middleware"
)

const defaultMaxUpload = 10 << 20

var (
	errBadRequest    = errors.New("bad request")
	errNotConfigured = errors.New("not configured")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// Deps are the services and settings the router serves. Only Analysis is required.
type Deps struct {
	Analysis  *analysis.Service
	Recommend *recommend.Service
	Narrative *appnarrative.Service

	Checkers       map[string]middleware.HealthChecker
	Logger         *slog.Logger
	APIKeys        map[string]string
	CORSOrigins    []string
	Limiter        *middleware.RateLimiter
	MaxUploadBytes int64
}

type Router struct {
	analysis  *analysis.Service
	recommend *recommend.Service
	narrative *appnarrative.Service
	log       *slog.Logger
	maxUpload int64
}

func NewRouter(d Deps) http.Handler {
	r := &Router{
		analysis:  d.Analysis,
		recommend: d.Recommend,
		narrative: d.Narrative,
		log:       d.Logger,
		maxUpload: d.MaxUploadBytes,
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.maxUpload <= 0 {
		r.maxUpload = defaultMaxUpload
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware(r.log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(d.APIKeys))
	mux.Use(d.Limiter.Middleware)

	mux.Get("/health", middleware.HealthHandler(d.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidTenant)
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/analyze/image", r.wrap(r.handleAnalyzeImage))
		rt.Get("/profiles", r.wrap(r.handleListProfiles))
		rt.Get("/profiles/{user}", r.wrap(r.handleGetProfile))
		rt.Delete("/profiles/{user}", r.wrap(r.handleDeleteProfile))
		rt.Post("/profiles/{user}/narrative", r.wrap(r.handleNarrative))
		rt.Get("/recommendations", r.wrap(r.handleRecommendations))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, errBadRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, inference.ErrBadImage):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, profiles.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, narrative.ErrQuotaExceeded):
			http.Error(w, "narrator quota exceeded", http.StatusTooManyRequests)
		case errors.Is(err, inference.ErrUnavailable), errors.Is(err, narrative.ErrDisabled),
			errors.Is(err, errNotConfigured):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			r.log.Error("request failed",
				"path", req.URL.Path,
				"request_id", chimw.GetReqID(req.Context()),
				"error", err,
			)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decodeJSON(req *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(io.LimitReader(req.Body, limit))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// POST /v1/{tenant}/analyze
// Body: {"user_id": "<optional>", "conditions": [{"label","probability"}], "lesions": [...]}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		UserID     string                 `json:"user_id"`
		Conditions concerns.PredictionSet `json:"conditions"`
		Lesions    concerns.PredictionSet `json:"lesions"`
	}
	if err := decodeJSON(req, r.maxUpload, &body); err != nil {
		return err
	}
	if err := middleware.ValidateUserID(body.UserID); err != nil {
		return badRequest("%v", err)
	}
	if err := middleware.ValidatePredictions(concerns.SourceConditions, body.Conditions); err != nil {
		return badRequest("%v", err)
	}
	if err := middleware.ValidatePredictions(concerns.SourceLesions, body.Lesions); err != nil {
		return badRequest("%v", err)
	}

	res, err := r.analysis.AnalyzePredictions(req.Context(), analysis.AnalyzeCommand{
		TenantID:   tenant,
		UserID:     body.UserID,
		Conditions: body.Conditions,
		Lesions:    body.Lesions,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	middleware.IncrementAnalyses()
	return writeJSON(w, http.StatusOK, res)
}

// POST /v1/{tenant}/analyze/image
// multipart: file=<image>, user_id=<optional>
// JSON: {"user_id": "<optional>", "image_base64": "<data or data URL>", "filename": "<optional>"}
func (r *Router) handleAnalyzeImage(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)

	var (
		user string
		img  inference.Image
		err  error
	)
	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data") {
		user, img, err = r.readMultipartImage(req)
	} else {
		user, img, err = r.readBase64Image(req)
	}
	if err != nil {
		return err
	}
	if err := middleware.ValidateUserID(user); err != nil {
		return badRequest("%v", err)
	}
	if err := middleware.ValidateImageContentType(img.ContentType); err != nil {
		return badRequest("%v", err)
	}

	res, err := r.analysis.AnalyzeImage(req.Context(), analysis.ImageCommand{
		TenantID: tenant,
		UserID:   user,
		Image:    img,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		if errors.Is(err, inference.ErrUnavailable) {
			middleware.IncrementInferenceFailures()
		}
		return err
	}
	middleware.IncrementAnalyses()
	middleware.IncrementImageAnalyses()
	return writeJSON(w, http.StatusOK, res)
}

func (r *Router) readMultipartImage(req *http.Request) (string, inference.Image, error) {
	var img inference.Image
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		return "", img, badRequest("invalid multipart body: %v", err)
	}
	f, hdr, err := req.FormFile("file")
	if err != nil {
		return "", img, badRequest("file is required")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", img, badRequest("read file: %v", err)
	}
	img = inference.Image{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}
	return req.FormValue("user_id"), img, nil
}

func (r *Router) readBase64Image(req *http.Request) (string, inference.Image, error) {
	var img inference.Image
	var body struct {
		UserID      string `json:"user_id"`
		ImageBase64 string `json:"image_base64"`
		Filename    string `json:"filename"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return "", img, badRequest("invalid JSON body: %v", err)
	}
	if body.ImageBase64 == "" {
		return "", img, badRequest("image_base64 is required")
	}

	contentType, payload := splitDataURL(body.ImageBase64)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", img, badRequest("image_base64 is not valid base64")
	}
	img = inference.Image{Filename: body.Filename, ContentType: contentType, Data: data}
	return body.UserID, img, nil
}

// splitDataURL accepts "data:image/png;base64,<payload>" or a bare payload.
func splitDataURL(s string) (contentType, payload string) {
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	meta, data, found := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !found {
		return "", s
	}
	contentType, _, _ = strings.Cut(meta, ";")
	return contentType, data
}

// GET /v1/{tenant}/profiles?page=&page_size=
func (r *Router) handleListProfiles(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.analysis.ListProfiles(req.Context(), tenant, middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/profiles/{user}
func (r *Router) handleGetProfile(w http.ResponseWriter, req *http.Request) error {
	tenant, user, err := tenantUser(req)
	if err != nil {
		return err
	}
	p, err := r.analysis.Profile(req.Context(), tenant, user)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

// DELETE /v1/{tenant}/profiles/{user}
func (r *Router) handleDeleteProfile(w http.ResponseWriter, req *http.Request) error {
	tenant, user, err := tenantUser(req)
	if err != nil {
		return err
	}
	if err := r.analysis.DeleteProfile(req.Context(), tenant, user); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/{tenant}/profiles/{user}/narrative
func (r *Router) handleNarrative(w http.ResponseWriter, req *http.Request) error {
	tenant, user, err := tenantUser(req)
	if err != nil {
		return err
	}
	text, err := r.narrative.Describe(req.Context(), tenant, user)
	if err != nil {
		return err
	}
	middleware.IncrementNarratives()

	var doc any = text
	if json.Valid([]byte(text)) {
		doc = json.RawMessage(text)
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"user_id":   user,
		"narrative": doc,
	})
}

// GET /v1/{tenant}/recommendations?user_id=&skin_type=&concerns=a,b
func (r *Router) handleRecommendations(w http.ResponseWriter, req *http.Request) error {
	if r.recommend == nil {
		return fmt.Errorf("catalog: %w", errNotConfigured)
	}
	q := req.URL.Query()
	user := q.Get("user_id")
	if err := middleware.ValidateUserID(user); err != nil {
		return badRequest("%v", err)
	}

	res, err := r.recommend.Recommend(req.Context(), recommend.Query{
		TenantID: chi.URLParam(req, "tenant"),
		UserID:   user,
		SkinType: middleware.SanitizeString(q.Get("skin_type")),
		Concerns: middleware.ParseConcernList(q.Get("concerns")),
	})
	if err != nil {
		return err
	}
	middleware.IncrementRecommendations()
	return writeJSON(w, http.StatusOK, res)
}

func tenantUser(req *http.Request) (string, string, error) {
	user := chi.URLParam(req, "user")
	if user == "" {
		return "", "", badRequest("user is required")
	}
	if err := middleware.ValidateUserID(user); err != nil {
		return "", "", badRequest("%v", err)
	}
	return chi.URLParam(req, "tenant"), user, nil
}
