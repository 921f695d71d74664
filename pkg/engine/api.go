package engine

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/jobkit/pkg/httpserver"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// maxRequestBody bounds the size of a submitted job
const maxRequestBody = 1 << 20

// EnqueueRequest is the body of POST /jobs
type EnqueueRequest struct {
	Kind string          `json:"kind"`
	Args json.RawMessage `json:"args,omitempty"`
	Tags []string        `json:"tags,omitempty"`
}

// EnqueueResponse is returned by POST /jobs
type EnqueueResponse struct {
	ID uuid.UUID `json:"id"`
}

// JobResponse is the JSON view of a job. Args that are not JSON are base64 encoded.
type JobResponse struct {
	ID         uuid.UUID       `json:"id"`
	Kind       string          `json:"kind"`
	Args       json.RawMessage `json:"args,omitempty"`
	ArgsBase64 []byte          `json:"args_base64,omitempty"`
	Tags       []string        `json:"tags"`
	Status     queue.JobStatus `json:"status"`
	Attempts   int             `json:"attempts"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewJobResponse renders job for the API
func NewJobResponse(job *queue.Job) JobResponse {
	resp := JobResponse{
		ID:        job.ID,
		Kind:      job.Kind,
		Tags:      job.Tags,
		Status:    job.Status,
		Attempts:  job.Attempts,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if len(job.Args) > 0 {
		if json.Valid(job.Args) {
			resp.Args = json.RawMessage(job.Args)
		} else {
			resp.ArgsBase64 = job.Args
		}
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewRouter returns the producer-facing API:
//
//	POST /jobs                 enqueue a job, 202 with its id
//	GET  /jobs/{id}            job status, 404 when unknown
//	POST /jobs/{id}/requeue    move a failed job back to pending, 409 when it is not failed
//	GET  /health/live          liveness probe
//	GET  /health/ready         readiness probe pinging the backend
func NewRouter(e *Engine, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &apiHandler{engine: e, logger: log.With(logger.Component("api"))}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", httpserver.HealthCheckHandler(log))
	r.Get("/health/ready", httpserver.HealthCheckHandler(log, e.Healthcheck))

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", h.enqueue)
		r.Get("/{id}", h.get)
		r.Post("/{id}/requeue", h.requeue)
	})

	return r
}

type apiHandler struct {
	engine *Engine
	logger *slog.Logger
}

func (h *apiHandler) enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Kind == "" {
		h.fail(w, r, http.StatusBadRequest, queue.ErrKindEmpty.Error())
		return
	}

	id, err := h.engine.Enqueuer().EnqueueRaw(r.Context(), req.Kind, req.Args, req.Tags...)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to enqueue job",
			logger.Kind(req.Kind),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
		h.fail(w, r, statusFor(err), err.Error())
		return
	}

	h.logger.DebugContext(r.Context(), "job enqueued",
		logger.JobID(id),
		logger.Kind(req.Kind),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	writeJSON(w, http.StatusAccepted, EnqueueResponse{ID: id})
}

func (h *apiHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.engine.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, NewJobResponse(job))
}

func (h *apiHandler) requeue(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.engine.Requeue(r.Context(), id); err != nil {
		h.fail(w, r, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid job id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *apiHandler) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: middleware.GetReqID(r.Context())})
}

// statusFor maps store and handler errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, queue.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrNotRequeueable):
		return http.StatusConflict
	case errors.Is(err, queue.ErrKindEmpty), errors.Is(err, queue.ErrHandlerNotFound):
		return http.StatusBadRequest
	case errors.Is(err, queue.ErrHandlerFailed), errors.Is(err, queue.ErrJobTimeout):
		// Foreground mode surfaces the handler outcome to the producer
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
