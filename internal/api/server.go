// internal/api/server.go

// Package api exposes the matching core, the partner catalog and the
// connection workflow over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"matrix-core/internal/analysis"
	"matrix-core/internal/catalog"
	"matrix-core/internal/common/camunda"
	"matrix-core/internal/common/config"
	"matrix-core/internal/common/database"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/common/observability"
	"matrix-core/internal/connections"
	"matrix-core/internal/matching"
	"matrix-core/internal/models"
	"matrix-core/internal/notify"
	"matrix-core/internal/taxid"
	"matrix-core/internal/users"
	"matrix-core/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthCheckTimeout = 2 * time.Second

type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	Result(ctx context.Context, id string) (*analysis.Result, error)
	CrisisMatch(ctx context.Context, customerID string, requirements map[string]interface{}) (*analysis.CrisisResult, error)
	CrisisBoard(ctx context.Context, limit int) ([]matching.PartnerRecord, error)
}

type TaxIDVerifier interface {
	Available() bool
	Verify(ctx context.Context, inn string) (*taxid.Result, error)
	Refresh(ctx context.Context, inn string) (*taxid.Result, error)
	BatchVerify(ctx context.Context, inns []string) ([]taxid.BatchItem, error)
	Usage(ctx context.Context) (*taxid.Usage, error)
	ClearCache(ctx context.Context, inn string) (bool, error)
}

type PartnerIndex interface {
	IndexPartner(ctx context.Context, p *models.Partner) error
	SearchIDs(ctx context.Context, text string, limit int) ([]string, error)
}

type ConnectionNotifier interface {
	NotifyConnection(ctx context.Context, recipient notify.Recipient, conn *models.Connection) (*notify.Result, error)
}

type RecipientResolver interface {
	Recipient(ctx context.Context, id string) (notify.Recipient, error)
}

type ProcessStarter interface {
	StartProcessInstance(ctx context.Context, bpmnProcessID string, variables map[string]interface{}) (*camunda.ProcessInstance, error)
}

// Deps are the collaborators of the HTTP layer. Index, Notifier, Recipients
// and Processes are optional.
type Deps struct {
	Users         users.Repository
	Partners      catalog.Repository
	Connections   connections.Repository
	Analysis      Analyzer
	TaxID         TaxIDVerifier
	Index         PartnerIndex
	Notifier      ConnectionNotifier
	Recipients    RecipientResolver
	Processes     ProcessStarter
	Webhooks      *webhook.Verifier
	Health        map[string]database.Pinger
	Observability *observability.Observability
}

type Server struct {
	cfg    *config.Config
	deps   Deps
	engine *gin.Engine
	srv    *http.Server
	logger logger.Logger
}

func NewServer(cfg *config.Config, deps Deps, log logger.Logger) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if deps.Webhooks == nil {
		deps.Webhooks = webhook.NewVerifier(cfg.Webhooks.Secrets)
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		engine: gin.New(),
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
	s.engine.Use(gin.Recovery(), s.observe())
	s.routes()

	s.srv = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.engine,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/webhook/:platform", s.handleWebhook)

	v1 := r.Group(s.cfg.Server.APIPrefix)

	u := v1.Group("/users")
	u.POST("/register", s.registerUser)
	u.GET("/:id/profile", s.getProfile)
	u.PUT("/:id/profile", s.updateProfile)
	u.POST("/:id/requests", s.addRequest)
	u.GET("/:id/requests", s.listRequests)
	u.GET("/:id/stats", s.userStats)
	u.GET("/:id/recommendations", s.userRecommendations)

	a := v1.Group("/analysis")
	a.POST("/request", s.analyzeRequest)
	a.POST("/crisis-match", s.crisisMatch)
	a.GET("/result/:id", s.analysisResult)

	p := v1.Group("/partners")
	p.POST("/register", s.registerPartner)
	p.POST("/search", s.searchPartners)
	p.GET("/crisis-board", s.crisisBoard)
	p.GET("/:id", s.getPartner)
	p.PUT("/:id", s.updatePartner)
	p.PUT("/:id/workload", s.updateWorkload)
	p.GET("/:id/stats", s.partnerStats)

	c := v1.Group("/connections")
	c.POST("", s.createConnection)
	c.GET("/stats/overview", s.connectionOverview)
	c.GET("/user/:user_id", s.userConnections)
	c.GET("/:id", s.getConnection)
	c.PUT("/:id/status", s.updateConnectionStatus)
	c.POST("/:id/interactions", s.addInteraction)

	t := v1.Group("/taxid")
	t.GET("/:inn/verify", s.verifyTaxID)
	t.POST("/batch", s.batchVerifyTaxID)
	t.GET("/usage", s.taxIDUsage)
	t.DELETE("/cache/:inn", s.clearTaxIDCache)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.srv.Addr})
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
