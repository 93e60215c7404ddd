package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	handler "github.com/imgcrop/handler/v1/images"
	"github.com/imgcrop/model"
)

// Options tune the HTTP surface.
type Options struct {
	MaxUploadSize int64
}

// New returns the router serving the gallery and upload endpoints. Routes
// are mounted at the root and again under /api.
func New(logger zerolog.Logger, imgRepo model.ImagesRepository, uploadSvc model.ImagesUploader, opts Options) *mux.Router {
	router := mux.NewRouter()
	router.Use(
		hlog.NewHandler(logger),
		hlog.RequestIDHandler("req_id", "Request-Id"),
		hlog.AccessHandler(accessLog),
		recoverPanics,
	)

	imgSvcV1 := handler.NewService(imgRepo, uploadSvc).WithMaxUploadSize(opts.MaxUploadSize)

	router.HandleFunc("/healthz", imgSvcV1.Health).Methods(http.MethodGet)
	for _, r := range []*mux.Router{router, router.PathPrefix("/api").Subrouter()} {
		r.HandleFunc("/images", imgSvcV1.All).Methods(http.MethodGet)
		r.HandleFunc("/images", imgSvcV1.Delete).Methods(http.MethodDelete)
		r.HandleFunc("/images/{id}", imgSvcV1.One).Methods(http.MethodGet)
		r.HandleFunc("/upload", imgSvcV1.Upload).Methods(http.MethodPost)
	}
	return router
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hlog.FromRequest(r).Error().Interface("panic", rec).Msg("recovered from panic")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"Internal error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
