package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/miradorstack/mirador-scheduler/internal/utils"
)

const maxBodyBytes = 4 << 20

// HTTPOptions configures NewHTTPHandler.
type HTTPOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// AccessLog receives Apache-style access lines; nil disables them.
	AccessLog io.Writer
}

type httpAPI struct {
	svc    Scheduler
	logger *slog.Logger
}

// NewRouter registers the JSON routes on a fresh router.
func NewRouter(svc Scheduler, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	h := &httpAPI{svc: svc, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/optimize", h.optimize).Methods(http.MethodPost)
	v1.HandleFunc("/policy/defaults", h.policyDefaults).Methods(http.MethodGet)
	return r
}

// NewHTTPHandler wraps the router with CORS and access logging.
func NewHTTPHandler(svc Scheduler, opts HTTPOptions) http.Handler {
	var handler http.Handler = NewRouter(svc, opts.Logger)
	if len(opts.AllowedOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(opts.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		)(handler)
	}
	if opts.AccessLog != nil {
		handler = handlers.LoggingHandler(opts.AccessLog, handler)
	}
	return handler
}

func (h *httpAPI) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *httpAPI) optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	resp, err := h.svc.Optimize(r.Context(), req)
	if err != nil {
		code := httpStatus(err)
		msg := utils.Message(err)
		if code == http.StatusInternalServerError {
			h.logger.Error("optimize request failed", slog.Any("error", err))
			msg = "optimization failed"
		}
		writeJSON(w, code, errorResponse{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *httpAPI) policyDefaults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PolicyResponse{Settings: h.svc.PolicyDefaults()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
