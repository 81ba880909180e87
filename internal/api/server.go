package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

// Server represents the Fuego API server.
type Server struct {
	fuego   *fuego.Server
	deps    *Dependencies
	version string
}

// Dependencies contains all service dependencies.
type Dependencies struct {
	Drafts     DraftManager
	Categories CategoryLookup
	Jobs       JobService
	StatsRepo  StatsRepository
	Hub        HubBroadcaster
}

// Config holds API server configuration.
type Config struct {
	Port        int
	Title       string
	Description string
	Version     string
}

// NewServer creates a new Fuego API server.
func NewServer(cfg *Config, deps *Dependencies) *Server {
	s := fuego.NewServer(
		fuego.WithAddr(fmt.Sprintf(":%d", cfg.Port)),
		fuego.WithEngineOptions(
			fuego.WithOpenAPIConfig(fuego.OpenAPIConfig{
				PrettyFormatJSON: true,
				DisableLocalSave: true,
				SwaggerURL:       "/docs",
				SpecURL:          "/openapi.json",
				UIHandler: func(specURL string) http.Handler {
					return ScalarHandler(specURL, cfg.Title, cfg.Description)
				},
			}),
		),
	)

	s.OpenAPI.Description().Info.Title = cfg.Title
	s.OpenAPI.Description().Info.Description = cfg.Description
	s.OpenAPI.Description().Info.Version = cfg.Version

	fuego.Use(s, middleware.RequestID)
	fuego.Use(s, middleware.RealIP)
	fuego.Use(s, middleware.Recoverer)

	srv := &Server{
		fuego:   s,
		deps:    deps,
		version: cfg.Version,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) registerRoutes() {
	fuego.Get(s.fuego, "/health", s.healthCheck,
		option.Summary("Health Check"),
		option.Description("Returns the health status of the API"),
		option.Tags("System"),
	)

	// Drafts API
	drafts := fuego.Group(s.fuego, "/api/v1/drafts",
		option.Tags("Drafts"),
	)

	fuego.Post(drafts, "/", s.createDraft,
		option.Summary("Open Draft"),
		option.Description("Opens a job request draft for a client, optionally directed at a worker or an agency"),
		option.DefaultStatusCode(http.StatusCreated),
	)

	fuego.Get(drafts, "/{id}", s.getDraft,
		option.Summary("Get Draft"),
		option.Description("Returns the draft with its pricing, price prediction, suggestions and submission state"),
	)

	fuego.Patch(drafts, "/{id}", s.updateDraft,
		option.Summary("Update Draft"),
		option.Description("Updates draft fields; omitted fields are left unchanged"),
	)

	fuego.Delete(drafts, "/{id}", s.closeDraft,
		option.Summary("Close Draft"),
		option.Description("Closes the draft and drops pending predictions, suggestions and confirmations"),
	)

	fuego.Post(drafts, "/{id}/slots", s.addSlot,
		option.Summary("Add Skill Slot"),
		option.Description("Adds a skill slot; the first slot sets the job category"),
		option.DefaultStatusCode(http.StatusOK),
	)

	fuego.Delete(drafts, "/{id}/slots/{index}", s.removeSlot,
		option.Summary("Remove Skill Slot"),
		option.Description("Removes the skill slot at the given position"),
	)

	fuego.Post(drafts, "/{id}/materials", s.addMaterial,
		option.Summary("Add Material"),
		option.Description("Adds a material, ignoring case-insensitive duplicates"),
		option.DefaultStatusCode(http.StatusOK),
	)

	fuego.Delete(drafts, "/{id}/materials/{name}", s.removeMaterial,
		option.Summary("Remove Material"),
	)

	fuego.Post(drafts, "/{id}/apply-suggestion", s.applySuggestion,
		option.Summary("Apply Suggestion"),
		option.Description("Copies a suggested title, description, material or duration into the draft"),
		option.DefaultStatusCode(http.StatusOK),
	)

	fuego.Post(drafts, "/{id}/apply-prediction", s.applyPrediction,
		option.Summary("Apply Predicted Price"),
		option.Description("Sets a PROJECT budget to the predicted suggested price"),
		option.DefaultStatusCode(http.StatusOK),
	)

	fuego.Post(drafts, "/{id}/submit", s.submitDraft,
		option.Summary("Submit Draft"),
		option.Description("Validates the draft and holds the job request for confirmation"),
		option.DefaultStatusCode(http.StatusOK),
	)

	fuego.Post(drafts, "/{id}/confirm", s.confirmDraft,
		option.Summary("Confirm Submission"),
		option.Description("Creates the job from the held request"),
		option.DefaultStatusCode(http.StatusOK),
	)

	fuego.Post(drafts, "/{id}/cancel", s.cancelDraft,
		option.Summary("Cancel Submission"),
		option.Description("Discards the request awaiting confirmation"),
		option.DefaultStatusCode(http.StatusOK),
	)

	// Jobs API
	jobsGroup := fuego.Group(s.fuego, "/api/v1/jobs",
		option.Tags("Jobs"),
	)

	fuego.Get(jobsGroup, "/{id}", s.getJob,
		option.Summary("Get Job"),
		option.Description("Returns a created job with its skill slots and materials"),
	)

	fuego.Post(jobsGroup, "/{id}/invoice-paid", s.invoicePaid,
		option.Summary("Settle Invoice"),
		option.Description("Credits a paid invoice to the client's wallet, reserves the escrow and opens the job"),
		option.DefaultStatusCode(http.StatusOK),
	)

	// Catalog & pricing
	fuego.Get(s.fuego, "/api/v1/categories", s.listCategories,
		option.Summary("List Categories"),
		option.Description("Returns the selectable specializations with their minimum rates"),
		option.Tags("Catalog"),
	)

	fuego.Get(s.fuego, "/api/v1/pricing/quote", s.quote,
		option.Summary("Pricing Quote"),
		option.Description("Returns the escrow breakdown for the given pricing inputs"),
		option.Tags("Pricing"),
		option.Query("payment_model", "PROJECT (default) or DAILY"),
		option.Query("budget", "Project budget"),
		option.Query("daily_rate", "Daily rate"),
		option.Query("duration_days", "Duration in days"),
		option.Query("wallet", "Available wallet balance, enables the shortfall"),
	)

	fuego.Get(s.fuego, "/api/v1/stats", s.getStats,
		option.Summary("Get Statistics"),
		option.Description("Returns posted job statistics"),
		option.Tags("Analytics"),
	)
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.fuego.Run()
}

// Mux returns the underlying ServeMux for mounting additional routes.
func (s *Server) Mux() *http.ServeMux {
	return s.fuego.Mux
}

// MountDocsOn mounts the OpenAPI documentation routes (/docs, /openapi.json)
// on a Chi router.
func (s *Server) MountDocsOn(r interface {
	Get(pattern string, handlerFn http.HandlerFunc)
}, title, description string) {
	scalarHandler := ScalarHandler("/openapi.json", title, description)
	r.Get("/docs", func(w http.ResponseWriter, req *http.Request) {
		scalarHandler.ServeHTTP(w, req)
	})

	r.Get("/openapi.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		spec := s.fuego.OpenAPI.Description()
		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	})
}
