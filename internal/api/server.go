package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mangascraper/internal/schema"
	"mangascraper/internal/scraper"
	"mangascraper/internal/store"
)

// Scraper runs one scrape request.
type Scraper interface {
	Scrape(ctx context.Context, req scraper.Request) (*scraper.Response, error)
}

// Store is the persistence used by the library and preference routes.
type Store interface {
	CreateLibrary(ctx context.Context, userID, name string) (*store.Library, error)
	GetLibrary(ctx context.Context, id string) (*store.Library, error)
	ListLibraries(ctx context.Context, userID string) ([]store.Library, error)
	AddItem(ctx context.Context, libraryID, slug, domain string, progress int) (*store.LibraryItem, error)
	UpdateItem(ctx context.Context, id string, upd store.ItemUpdate) (*store.LibraryItem, error)
	DeleteItem(ctx context.Context, id string) error

	GetOrCreatePreference(ctx context.Context, userID string) (*store.Preference, bool, error)
	CreatePreference(ctx context.Context, userID string, in store.PreferenceInput) (*store.Preference, error)
	UpdatePreference(ctx context.Context, userID string, in store.PreferenceInput) (*store.Preference, error)
	UpsertPreference(ctx context.Context, userID string, in store.PreferenceInput) (*store.Preference, error)
	DeletePreference(ctx context.Context, userID string) error
}

// Options configures the HTTP surface.
type Options struct {
	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string
	// AuthToken, when set, is required as a bearer token under /api.
	AuthToken string
	// LogRequests enables gin's access log.
	LogRequests bool
}

// Server is the HTTP API.
type Server struct {
	scraper  Scraper
	registry *schema.Registry
	store    Store
	opts     Options
	logger   *slog.Logger
}

// NewServer creates a Server. st may be nil, in which case the /api routes
// are not mounted.
func NewServer(sc Scraper, registry *schema.Registry, st Store, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	return &Server{scraper: sc, registry: registry, store: st, opts: opts, logger: logger}
}

// SetupRouter configures the gin router with every route.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if s.opts.LogRequests {
		router.Use(gin.Logger())
	}
	router.Use(corsMiddleware(s.opts.AllowedOrigin))

	router.GET("/", s.HandleHello)
	router.GET("/sources", s.HandleListSources)
	router.POST("/mangas", s.HandleScrape)

	if s.store != nil {
		api := router.Group("/api")
		api.Use(authMiddleware(s.opts.AuthToken))

		lib := api.Group("/library")
		lib.GET("/user/:userId", s.HandleListLibraries)
		lib.GET("/:libraryId", s.HandleGetLibrary)
		lib.POST("", s.HandleCreateLibrary)
		lib.POST("/:libraryId/manga", s.HandleAddItem)
		lib.PUT("/manga/:itemId", s.HandleUpdateItem)
		lib.DELETE("/manga/:itemId", s.HandleDeleteItem)

		prefs := api.Group("/preferences")
		prefs.GET("/:userId", s.HandleGetPreferences)
		prefs.POST("/:userId", s.HandleCreatePreferences)
		prefs.PUT("/:userId", s.HandleUpdatePreferences)
		prefs.DELETE("/:userId", s.HandleDeletePreferences)
		prefs.POST("/upsert/:userId", s.HandleUpsertPreferences)
	}

	return router
}

// HandleHello handles GET /.
func (s *Server) HandleHello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello world"})
}

// SourceSummary describes one catalogue entry.
type SourceSummary struct {
	Platform  string   `json:"platform"`
	BaseURL   string   `json:"baseUrl"`
	PageTypes []string `json:"pageTypes"`
}

// HandleListSources handles GET /sources.
func (s *Server) HandleListSources(c *gin.Context) {
	keys := s.registry.Sources()
	out := make([]SourceSummary, 0, len(keys))
	for _, key := range keys {
		src, err := s.registry.LookupSource(key)
		if err != nil {
			continue
		}
		out = append(out, SourceSummary{Platform: src.Key, BaseURL: src.BaseURL, PageTypes: src.PageTypes()})
	}
	c.JSON(http.StatusOK, gin.H{"sources": out})
}
