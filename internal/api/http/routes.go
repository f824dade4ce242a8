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
	"github.com/vadimbarashkov/link-shortener/internal/identity"
	"github.com/vadimbarashkov/link-shortener/internal/models"
)

type LinkService interface {
	ShortenURL(ctx context.Context, destinationURL string, ownerID *int64) (*models.Link, error)
	ResolveShortCode(ctx context.Context, event models.ClickEvent) (string, error)
	GetLink(ctx context.Context, shortCode string) (*models.Link, error)
	ModifyURL(ctx context.Context, shortCode, destinationURL string, callerID *int64) (*models.Link, error)
	DeactivateURL(ctx context.Context, shortCode string, callerID *int64) error
	GetLinkStats(ctx context.Context, shortCode string) (*models.LinkStats, error)
	GetOwnerStats(ctx context.Context, ownerID int64) (*models.OwnerStats, error)
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

func NewRouter(logger *httplog.Logger, linkSvc LinkService, resolver identity.Resolver, baseURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		validate := getValidate()

		r.Get("/ping", handlePing)
		r.Get("/stats", handleGetOwnerStats(linkSvc, resolver))

		r.Route("/shorten", func(r chi.Router) {
			r.Post("/", handleShortenURL(linkSvc, resolver, validate, baseURL))

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", handleGetLink(linkSvc))
				r.Put("/", handleModifyURL(linkSvc, resolver, validate))
				r.Delete("/", handleDeactivateURL(linkSvc, resolver))
				r.Get("/stats", handleGetLinkStats(linkSvc))
			})
		})
	})

	r.Get("/{shortCode}", handleRedirect(linkSvc))

	return r
}
