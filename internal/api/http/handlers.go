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
	"github.com/vadimbarashkov/link-shortener/internal/database"
	"github.com/vadimbarashkov/link-shortener/internal/identity"
	"github.com/vadimbarashkov/link-shortener/internal/models"
	"github.com/vadimbarashkov/link-shortener/internal/service"
	"github.com/vadimbarashkov/link-shortener/pkg/response"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

type linkRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type linkResponse struct {
	ID        int64     `json:"id"`
	ShortCode string    `json:"short_code"`
	ShortURL  string    `json:"short_url,omitempty"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toLinkResponse(link *models.Link) linkResponse {
	return linkResponse{
		ID:        link.ID,
		ShortCode: link.ShortCode,
		URL:       link.DestinationURL,
		CreatedAt: link.CreatedAt,
		UpdatedAt: link.UpdatedAt,
	}
}

// resolveOwner maps an optional Authorization header to an account ID.
// A missing header means an anonymous request, not an error.
func resolveOwner(r *http.Request, resolver identity.Resolver) (*int64, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return nil, nil
	}

	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return nil, identity.ErrUnknownCredential
	}

	ownerID, err := resolver.Resolve(r.Context(), token)
	if err != nil {
		return nil, err
	}

	return &ownerID, nil
}

func handleShortenURL(svc LinkService, resolver identity.Resolver, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req linkRequest

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

		ownerID, err := resolveOwner(r, resolver)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.UnauthorizedResponse)
			return
		}

		link, err := svc.ShortenURL(r.Context(), req.URL, ownerID)
		if err != nil {
			if errors.Is(err, service.ErrMaliciousURL) {
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, response.MaliciousURLResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := toLinkResponse(link)
		data.ShortURL = strings.TrimSuffix(baseURL, "/") + "/" + link.ShortCode

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

func handleRedirect(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		event := models.ClickEvent{
			ShortCode:  chi.URLParam(r, "shortCode"),
			OccurredAt: time.Now(),
			UserAgent:  r.UserAgent(),
			RemoteAddr: r.RemoteAddr,
		}

		destination, err := svc.ResolveShortCode(r.Context(), event)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, destination, http.StatusTemporaryRedirect)
	}
}

func handleGetLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleGetLink"
	const successMsg = "The link was successfully retrieved."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		link, err := svc.GetLink(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

func handleModifyURL(svc LinkService, resolver identity.Resolver, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleModifyURL"
	const successMsg = "The link was successfully modified."

	return func(w http.ResponseWriter, r *http.Request) {
		var req linkRequest

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

		callerID, err := resolveOwner(r, resolver)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.UnauthorizedResponse)
			return
		}

		shortCode := chi.URLParam(r, "shortCode")

		link, err := svc.ModifyURL(r.Context(), shortCode, req.URL, callerID)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}
			if errors.Is(err, service.ErrNotOwner) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

func handleDeactivateURL(svc LinkService, resolver identity.Resolver) http.HandlerFunc {
	const op = "api.http.handleDeactivateURL"
	const successMsg = "The link was successfully deactivated."

	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := resolveOwner(r, resolver)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.UnauthorizedResponse)
			return
		}

		shortCode := chi.URLParam(r, "shortCode")

		if err := svc.DeactivateURL(r.Context(), shortCode, callerID); err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}
			if errors.Is(err, service.ErrNotOwner) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

type dayBucketResponse struct {
	Day    string `json:"day"`
	Clicks int64  `json:"clicks"`
}

// linkStatsResponse always carries clicks, zero included, unlike the plain
// link payload which has no counter at all.
type linkStatsResponse struct {
	ID           int64               `json:"id"`
	ShortCode    string              `json:"short_code"`
	URL          string              `json:"url"`
	Clicks       int64               `json:"clicks"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	ClicksPerDay []dayBucketResponse `json:"clicks_per_day"`
}

func handleGetLinkStats(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleGetLinkStats"
	const successMsg = "The link statistics were successfully retrieved."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		stats, err := svc.GetLinkStats(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := linkStatsResponse{
			ID:        stats.ID,
			ShortCode: stats.ShortCode,
			URL:       stats.DestinationURL,
			Clicks:    stats.Clicks,
			CreatedAt: stats.CreatedAt,
			UpdatedAt: stats.UpdatedAt,
		}

		for _, bucket := range stats.ClicksPerDay {
			data.ClicksPerDay = append(data.ClicksPerDay, dayBucketResponse{
				Day:    bucket.Day.Format(time.DateOnly),
				Clicks: bucket.Clicks,
			})
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

type ownerStatsResponse struct {
	TotalLinks  int64 `json:"total_links"`
	TotalClicks int64 `json:"total_clicks"`
}

func handleGetOwnerStats(svc LinkService, resolver identity.Resolver) http.HandlerFunc {
	const op = "api.http.handleGetOwnerStats"
	const successMsg = "The account statistics were successfully retrieved."

	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := resolveOwner(r, resolver)
		if err != nil || ownerID == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.UnauthorizedResponse)
			return
		}

		stats, err := svc.GetOwnerStats(r.Context(), *ownerID)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, ownerStatsResponse{
			TotalLinks:  stats.TotalLinks,
			TotalClicks: stats.TotalClicks,
		}))
	}
}
