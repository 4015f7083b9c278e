// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fund-tracker/internal/logging"
	"github.com/fund-tracker/internal/models"
	"github.com/fund-tracker/internal/service"
	"github.com/fund-tracker/internal/types"
)

// Service interfaces for dependency injection and testing

// UserServiceInterface defines the interface for user account operations
type UserServiceInterface interface {
	Register(ctx context.Context, input *service.RegisterInput) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, input *service.UpdateProfileInput) (*models.User, error)
	Deactivate(ctx context.Context, userID string) error
}

// InvestmentServiceInterface defines the interface for investment ledger operations
type InvestmentServiceInterface interface {
	Create(ctx context.Context, userID string, input *service.CreateInvestmentInput) (*models.Investment, error)
	List(ctx context.Context, userID string) ([]*models.Investment, error)
	Get(ctx context.Context, userID, investmentID string) (*models.Investment, error)
	Update(ctx context.Context, userID, investmentID string, input *service.UpdateInvestmentInput) (*models.Investment, error)
	Delete(ctx context.Context, userID, investmentID string) error
}

// FundServiceInterface defines the interface for fund reference data operations
type FundServiceInterface interface {
	List(ctx context.Context, limit, offset int) ([]*models.MutualFund, error)
	Get(ctx context.Context, fundID string) (*models.MutualFund, error)
	Create(ctx context.Context, input *service.CreateFundInput) (*models.MutualFund, error)
	NAVHistory(ctx context.Context, fundID string) ([]*models.NAVObservation, error)
	LatestNAV(ctx context.Context, fundID string) (*models.NAVObservation, error)
	RecordNAV(ctx context.Context, fundID string, date time.Time, nav float64) (*models.NAVObservation, error)
	SectorAllocations(ctx context.Context, fundID string) ([]*models.SectorAllocation, error)
	StockHoldings(ctx context.Context, fundID string) ([]*models.StockHolding, error)
	CapAllocations(ctx context.Context, fundID string) ([]*models.CapAllocation, error)
	AddAllocation(ctx context.Context, fundID string, kind types.AllocationKind, input *service.AllocationInput) error
}

// PortfolioServiceInterface defines the interface for portfolio analytics operations
type PortfolioServiceInterface interface {
	Summarize(ctx context.Context, userID string) (*service.PortfolioSummary, error)
	BuildSeries(ctx context.Context, userID string, timeframe types.Timeframe) ([]service.SeriesPoint, error)
	Composition(ctx context.Context, userID string) (*service.PortfolioComposition, error)
	Overlap(ctx context.Context, fundID, fundID2 string) ([]service.FundOverlap, error)
}

// Server represents the HTTP API server.
type Server struct {
	router            *mux.Router
	httpServer        *http.Server
	userService       UserServiceInterface
	investmentService InvestmentServiceInterface
	fundService       FundServiceInterface
	portfolioService  PortfolioServiceInterface
	config            *ServerConfig
	logger            *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	userService UserServiceInterface,
	investmentService InvestmentServiceInterface,
	fundService FundServiceInterface,
	portfolioService PortfolioServiceInterface,
) *Server {
	s := &Server{
		router:            mux.NewRouter(),
		userService:       userService,
		investmentService: investmentService,
		fundService:       fundService,
		portfolioService:  portfolioService,
		config:            config,
		logger:            logging.GetGlobalLogger(),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Middleware order matters: logging wraps everything, rate limiting
	// runs after CORS so preflights are never throttled.
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// User endpoints
	api.HandleFunc("/users", s.handleRegisterUser).Methods("POST")
	api.HandleFunc("/users/me", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/users/me", s.handleUpdateProfile).Methods("PUT")
	api.HandleFunc("/users/me", s.handleDeactivateUser).Methods("DELETE")

	// Investment endpoints
	api.HandleFunc("/investments", s.handleCreateInvestment).Methods("POST")
	api.HandleFunc("/investments", s.handleListInvestments).Methods("GET")
	api.HandleFunc("/investments/{id}", s.handleGetInvestment).Methods("GET")
	api.HandleFunc("/investments/{id}", s.handleUpdateInvestment).Methods("PUT")
	api.HandleFunc("/investments/{id}", s.handleDeleteInvestment).Methods("DELETE")

	// Fund reference data endpoints
	api.HandleFunc("/funds", s.handleListFunds).Methods("GET")
	api.HandleFunc("/funds", s.handleCreateFund).Methods("POST")
	api.HandleFunc("/funds/{id}", s.handleGetFund).Methods("GET")
	api.HandleFunc("/funds/{id}/nav", s.handleGetNAVHistory).Methods("GET")
	api.HandleFunc("/funds/{id}/nav", s.handleRecordNAV).Methods("POST")
	api.HandleFunc("/funds/{id}/nav/latest", s.handleGetLatestNAV).Methods("GET")
	api.HandleFunc("/funds/{id}/sectors", s.handleGetSectorAllocations).Methods("GET")
	api.HandleFunc("/funds/{id}/holdings", s.handleGetStockHoldings).Methods("GET")
	api.HandleFunc("/funds/{id}/cap-allocations", s.handleGetCapAllocations).Methods("GET")
	api.HandleFunc("/funds/{id}/allocations", s.handleAddAllocation).Methods("POST")

	// Portfolio analytics endpoints
	api.HandleFunc("/portfolio/summary", s.handlePortfolioSummary).Methods("GET")
	api.HandleFunc("/portfolio/performance", s.handlePortfolioPerformance).Methods("GET")
	api.HandleFunc("/portfolio/composition", s.handlePortfolioComposition).Methods("GET")
	api.HandleFunc("/portfolio/overlap", s.handleFundOverlap).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "fund-tracker",
	})
}

// Router exposes the configured router, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
