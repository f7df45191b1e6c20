package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	analyticsdomain "github.com/smallbiznis/flowdesk/internal/analytics/domain"
	clientdomain "github.com/smallbiznis/flowdesk/internal/client/domain"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	"github.com/smallbiznis/flowdesk/internal/draft/session"
	exportservice "github.com/smallbiznis/flowdesk/internal/export/service"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"github.com/smallbiznis/flowdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/flowdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/flowdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/flowdesk/internal/observability/tracing"
	profiledomain "github.com/smallbiznis/flowdesk/internal/profile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http.listen", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http.serve_failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	clock        clock.Clock
	log          *zap.Logger
	clientSvc    clientdomain.Service
	invoiceSvc   invoicedomain.Service
	profileSvc   profiledomain.Service
	analyticsSvc analyticsdomain.Service
	editor       *session.Editor
	exports      *exportservice.Board
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Clock        clock.Clock
	Log          *zap.Logger
	ClientSvc    clientdomain.Service
	InvoiceSvc   invoicedomain.Service
	ProfileSvc   profiledomain.Service
	AnalyticsSvc analyticsdomain.Service
	Editor       *session.Editor
	Exports      *exportservice.Board
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		clock:        p.Clock,
		log:          p.Log.Named("http.server"),
		clientSvc:    p.ClientSvc,
		invoiceSvc:   p.InvoiceSvc,
		profileSvc:   p.ProfileSvc,
		analyticsSvc: p.AnalyticsSvc,
		editor:       p.Editor,
		exports:      p.Exports,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(NoStore())

	// -------- Clients --------
	api.GET("/clients", s.ListClients)
	api.POST("/clients", s.CreateClient)
	api.GET("/clients/:id", s.GetClientByID)
	api.PATCH("/clients/:id", s.UpdateClient)
	api.DELETE("/clients/:id", s.DeleteClient)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.POST("/invoices/:id/status", s.UpdateInvoiceStatus)
	api.DELETE("/invoices/:id", s.DeleteInvoice)

	// -------- Business Profile --------
	api.GET("/profile", s.GetProfile)
	api.PUT("/profile", s.SaveProfile)
	api.GET("/profile/bank", s.GetBankDetails)
	api.PUT("/profile/bank", s.SaveBankDetails)
	api.GET("/profile/assets/:kind", s.GetProfileAsset)
	api.PUT("/profile/assets/:kind", s.UploadProfileAsset)
	api.DELETE("/profile/assets/:kind", s.DeleteProfileAsset)

	// -------- Analytics --------
	api.GET("/analytics/revenue", s.GetRevenueMetrics)
	api.GET("/analytics/revenue-pulse", s.GetRevenuePulse)
	api.GET("/analytics/client-balances", s.ListClientBalances)
	api.GET("/analytics/recent-invoices", s.ListRecentInvoices)

	// -------- Invoice Editor --------
	api.POST("/editor/sessions", s.OpenEditorSession)
	api.GET("/editor/sessions/:id", s.GetEditorSession)
	api.POST("/editor/sessions/:id/resolve", s.ResolveDraftChoice)
	api.PATCH("/editor/sessions/:id", s.ApplyEdit)
	api.POST("/editor/sessions/:id/commit", s.CommitEditorSession)
	api.DELETE("/editor/sessions/:id", s.CloseEditorSession)

	// -------- Exports --------
	api.POST("/invoices/:id/export", s.StartExport)
	api.GET("/exports/active", s.GetActiveExport)
	api.GET("/exports/:id", s.GetExport)
	api.GET("/exports/:id/events", s.StreamExport)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
