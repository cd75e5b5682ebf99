package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/periko-gan/linkcurt-backend/internal/models"
)

// LinkService defines the link operations consumed by the HTTP layer.
type LinkService interface {
	ShortenLink(ctx context.Context, originalLink string, userID int64) (*models.Link, error)
	ResolveShortLink(ctx context.Context, raw string) (*models.Link, error)
	GetLink(ctx context.Context, id int64) (*models.Link, error)
	ModifyLink(ctx context.Context, id int64, originalLink string) (*models.Link, error)
	RemoveLink(ctx context.Context, id int64) error
	FilterLinks(ctx context.Context, attribute, value string) ([]models.Link, error)
	ListLinksByDateRange(ctx context.Context, from, to time.Time) ([]models.Link, error)
}

// UserService defines the account operations consumed by the HTTP layer.
type UserService interface {
	Register(ctx context.Context, email, password, name string, birthDate *time.Time) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ModifyUser(ctx context.Context, id int64, name string, birthDate *time.Time) (*models.User, error)
	RemoveUser(ctx context.Context, id int64) error
}

// VisitService defines the visit operations consumed by the HTTP layer.
type VisitService interface {
	RecordVisit(ctx context.Context, linkID int64, userID *int64, userAgent, ip string) (*models.Visit, error)
	GetVisit(ctx context.Context, id int64) (*models.Visit, error)
	ListVisitsByLink(ctx context.Context, linkID int64) ([]models.Visit, error)
	ListVisitsByUser(ctx context.Context, userID int64) ([]models.Visit, error)
	RemoveVisit(ctx context.Context, id int64) error
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

// NewRouter assembles the API. Resolution of short links and account
// registration/login are public; everything else sits behind the role
// guard. shortBaseURL is the canonical prefix encoded into QR codes.
func NewRouter(logger *httplog.Logger, linkSvc LinkService, userSvc UserService, visitSvc VisitService, guard *Guard, shortBaseURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.AllowContentType("application/json"))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Get("/ping", handlePing)
	r.Post("/register", handleRegister(userSvc, validate))
	r.Post("/login", handleLogin(userSvc, validate))
	r.Get("/links/original/{shortLink}", handleResolveShortLink(linkSvc))

	r.Group(func(r chi.Router) {
		r.Use(guard.Authorize(models.RoleUser))

		r.Post("/createLinks", handleCreateLink(linkSvc))

		r.Route("/links", func(r chi.Router) {
			r.Get("/date/{initialDate}/{finalDate}", handleListLinksByDateRange(linkSvc))
			r.Get("/{id:[0-9]+}", handleGetLink(linkSvc))
			r.Put("/{id:[0-9]+}", handleModifyLink(linkSvc))
			r.Delete("/{id:[0-9]+}", handleRemoveLink(linkSvc))
			r.Get("/{id:[0-9]+}/qr", handleLinkQR(linkSvc, shortBaseURL))
			r.Get("/{id:[0-9]+}/visits", handleListVisitsByLink(visitSvc))
			r.Get("/{attribute}/{data}", handleFilterLinks(linkSvc))
		})

		r.Post("/visits", handleRecordVisit(visitSvc))
		r.Get("/visits/{id:[0-9]+}", handleGetVisit(visitSvc))

		r.Get("/users/{id:[0-9]+}", handleGetUser(userSvc))
		r.Put("/users/{id:[0-9]+}", handleModifyUser(userSvc, validate))
		r.Get("/users/{id:[0-9]+}/visits", handleListVisitsByUser(visitSvc))
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.Authorize(models.RoleAdmin))

		r.Get("/users", handleListUsers(userSvc))
		r.Delete("/users/{id:[0-9]+}", handleRemoveUser(userSvc))
		r.Delete("/visits/{id:[0-9]+}", handleRemoveVisit(visitSvc))
	})

	return r
}
