package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
	"github.com/vadimbarashkov/shortly/internal/service"
	"github.com/vadimbarashkov/shortly/internal/validation"
	"github.com/vadimbarashkov/shortly/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// shortenURLRequest represents the request payload for shortening a URL.
type shortenURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// shortenURLResponse represents the response payload for a created short URL.
type shortenURLResponse struct {
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// urlStatsResponse represents the response payload for URL statistics.
type urlStatsResponse struct {
	ShortCode      string     `json:"short_code"`
	OriginalURL    string     `json:"original_url"`
	ClickCount     int64      `json:"click_count"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
}

func shortURL(baseURL, shortCode string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + shortCode
}

// handleShortenURL handles POST requests to shorten a URL.
//
// Shortening is idempotent per URL: repeating the request returns the code
// assigned the first time.
func handleShortenURL(svc URLService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenURLRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.ShortenURL(r.Context(), req.URL)
		if err != nil {
			switch {
			case errors.Is(err, validation.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidInputResponse("The provided URL is not allowed."))
			case errors.Is(err, service.ErrMaxRetriesExceeded),
				errors.Is(err, service.ErrServiceUnavailable):
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.ServiceUnavailableResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, shortenURLResponse{
			ShortCode:   url.ShortCode,
			ShortURL:    shortURL(baseURL, url.ShortCode),
			OriginalURL: url.OriginalURL,
			CreatedAt:   url.CreatedAt,
		}))
	}
}

// handleRedirect handles GET requests on short codes and redirects to the
// original URL. Click accounting happens asynchronously; the redirect never
// waits for it. The redirect is a 307 so clients keep coming back through
// the server instead of caching the target, which would stop the clicks
// from being counted.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		originalURL, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			if errors.Is(err, service.ErrServiceUnavailable) {
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.ServiceUnavailableResponse)
				return
			}

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, originalURL, http.StatusTemporaryRedirect)
	}
}

// handleGetURLStats handles GET requests for usage statistics of a short URL.
func handleGetURLStats(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			if errors.Is(err, service.ErrServiceUnavailable) {
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.ServiceUnavailableResponse)
				return
			}

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLStatsResponse(url)))
	}
}

func toURLStatsResponse(url *models.URL) urlStatsResponse {
	return urlStatsResponse{
		ShortCode:      url.ShortCode,
		OriginalURL:    url.OriginalURL,
		ClickCount:     url.ClickCount,
		CreatedAt:      url.CreatedAt,
		LastAccessedAt: url.LastAccessedAt,
	}
}
