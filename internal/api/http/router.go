// Package http exposes the shortening service over a JSON API plus the
// redirect endpoint at the root.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortly/internal/models"
)

// URLService is the core contract the transport depends on.
type URLService interface {
	ShortenURL(ctx context.Context, originalURL string) (*models.URL, error)
	ResolveShortCode(ctx context.Context, shortCode string) (string, error)
	GetURLStats(ctx context.Context, shortCode string) (*models.URL, error)
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter assembles the HTTP surface: the redirect hot path at
// GET /{shortCode} and the JSON API under /api/v1.
func NewRouter(logger *httplog.Logger, urlSvc URLService, baseURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/{shortCode}", handleRedirect(urlSvc))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://*"},
			AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Accept"},
			AllowCredentials: false,
			MaxAge:           84600,
		}))
		r.Use(middleware.AllowContentType("application/json"))

		validate := getValidate()

		r.Get("/ping", handlePing)

		r.Route("/urls", func(r chi.Router) {
			r.Post("/", handleShortenURL(urlSvc, validate, baseURL))
			r.Get("/{shortCode}/stats", handleGetURLStats(urlSvc))
		})
	})

	return r
}
