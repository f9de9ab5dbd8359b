// Package httpapi exposes the session to a rendering layer over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cutoutd/pkg/types"
)

// eventsBuffer is the per-subscriber snapshot queue for GET /events.
const eventsBuffer = 16

// heartbeatInterval keeps idle event streams open through proxies.
var heartbeatInterval = 15 * time.Second

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(InflightMiddleware)

		r.Get("/session", func(w http.ResponseWriter, r *http.Request) {
			sess := svc.Session()
			writeJSON(w, http.StatusOK, sessionView(sess.Snapshot(), sess.Codec()))
		})

		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			streamSession(w, r, svc)
		})

		r.Post("/session/reset", func(w http.ResponseWriter, r *http.Request) {
			svc.Reset()
			sess := svc.Session()
			writeJSON(w, http.StatusOK, sessionView(sess.Snapshot(), sess.Codec()))
		})

		r.Post("/session/idle", func(w http.ResponseWriter, r *http.Request) {
			svc.Idle()
			sess := svc.Session()
			writeJSON(w, http.StatusOK, sessionView(sess.Snapshot(), sess.Codec()))
		})

		r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
			sess := svc.Session()
			writeJSON(w, http.StatusOK, historyView(sess.History(), sess.Codec()))
		})

		r.Get("/history/{id}", func(w http.ResponseWriter, r *http.Request) {
			sess := svc.Session()
			it, ok := sess.HistoryItem(chi.URLParam(r, "id"))
			if !ok {
				writeJSONError(w, http.StatusNotFound, "history item not found")
				return
			}
			writeJSON(w, http.StatusOK, historyItemView(it, sess.Codec()))
		})

		r.Delete("/history/{id}", func(w http.ResponseWriter, r *http.Request) {
			svc.Session().RemoveFromHistory(chi.URLParam(r, "id"))
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
			models, err := svc.Models()
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
		})

		r.Put("/models/selected", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lvl := requestLogLevel(r)
			var req types.SelectModelRequest
			err := decodeJSON(w, r, &req)
			if err == nil && strings.TrimSpace(req.ID) == "" {
				err = badRequest("id is required")
			}
			if err == nil {
				err = svc.SelectModel(req.ID)
			}
			if err != nil {
				status := writeError(w, err)
				logOutcome(r, lvl, "select", status, start, err)
				return
			}
			sess := svc.Session()
			writeJSON(w, http.StatusOK, sessionView(sess.Snapshot(), sess.Codec()))
			logOutcome(r, lvl, "select", http.StatusOK, start, nil)
		})

		r.Get("/download", func(w http.ResponseWriter, r *http.Request) {
			dp := svc.Session().DownloadProgress()
			writeJSON(w, http.StatusOK, types.DownloadProgress{Downloaded: dp.Downloaded, Total: dp.Total})
		})

		r.Post("/process", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lvl := requestLogLevel(r)
			var req types.ProcessRequest
			if err := decodeJSON(w, r, &req); err != nil {
				status := writeError(w, err)
				logOutcome(r, lvl, "process", status, start, err)
				return
			}
			if strings.TrimSpace(req.Image) == "" {
				writeError(w, badRequest("image is required"))
				return
			}
			// The cycle outlives the request; shutdown cancels it.
			resp, err := svc.Process(serverBaseCtx, req)
			if err != nil {
				status := writeError(w, err)
				logOutcome(r, lvl, "process", status, start, err)
				return
			}
			writeJSON(w, http.StatusAccepted, resp)
			logOutcome(r, lvl, "process", http.StatusAccepted, start, nil)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.VersionResponse{Version: version})
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// decodeJSON enforces a JSON content type and the body limit. Failures
// carry their HTTP status.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return requestError{status: http.StatusUnsupportedMediaType, msg: "Content-Type must be application/json"}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return requestError{status: http.StatusRequestEntityTooLarge, msg: "request body too large"}
		}
		return badRequest("invalid JSON body")
	}
	return nil
}

// streamSession writes session snapshots as server-sent events until the
// client goes away or the server shuts down.
func streamSession(w http.ResponseWriter, r *http.Request, svc Service) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	sess := svc.Session()
	ch, unsubscribe := sess.Subscribe(eventsBuffer)
	defer unsubscribe()
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(sessionView(snap, sess.Codec()))
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", b); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
