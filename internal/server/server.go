package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/dairypay/internal/account"
	"github.com/smallbiznis/dairypay/internal/audit"
	auditdomain "github.com/smallbiznis/dairypay/internal/audit/domain"
	"github.com/smallbiznis/dairypay/internal/charge"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	"github.com/smallbiznis/dairypay/internal/config"
	"github.com/smallbiznis/dairypay/internal/ledger"
	"github.com/smallbiznis/dairypay/internal/milksale"
	obsmiddleware "github.com/smallbiznis/dairypay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/dairypay/internal/observability/metrics"
	obstracing "github.com/smallbiznis/dairypay/internal/observability/tracing"
	"github.com/smallbiznis/dairypay/internal/payroll"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/smallbiznis/dairypay/internal/providers"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	account.Module,
	milksale.Module,
	audit.Module,
	ledger.Module,
	charge.Module,
	providers.Module,
	payroll.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

// NewEngine builds the gin engine with request logging, tracing and
// prometheus middlewares plus the health and metrics endpoints.
func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine     *gin.Engine
	log        *zap.Logger
	chargeSvc  chargedomain.Service
	resolver   chargedomain.Resolver
	payrollSvc payrolldomain.Service
	auditSvc   auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Log        *zap.Logger
	ChargeSvc  chargedomain.Service
	Resolver   chargedomain.Resolver
	PayrollSvc payrolldomain.Service
	AuditSvc   auditdomain.Service `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		log:        p.Log.Named("http.server"),
		chargeSvc:  p.ChargeSvc,
		resolver:   p.Resolver,
		payrollSvc: p.PayrollSvc,
		auditSvc:   p.AuditSvc,
	}

	s.registerAPIRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", AccountContext())

	// -------- Charges --------
	api.POST("/charges", s.CreateCharge)
	api.POST("/charges/get", s.ListCharges)
	api.POST("/charges/applicable", s.PreviewApplicableCharges)
	api.GET("/charges/:id", s.GetCharge)
	api.PUT("/charges/:id", s.UpdateCharge)
	api.DELETE("/charges/:id", s.DeleteCharge)

	// -------- Payroll runs --------
	api.POST("/payroll/runs/generate", s.GeneratePayroll)
	api.GET("/payroll/runs", s.ListPayrollRuns)
	api.GET("/payroll/runs/:id", s.GetPayrollRun)
	api.POST("/payroll/runs/:id/mark-paid", s.MarkPayrollPaid)
	api.GET("/payroll/runs/:id/export", s.ExportPayrollRun)

	// -------- Periods --------
	api.POST("/payroll/periods", s.CreatePayrollPeriod)
	api.GET("/payroll/periods", s.ListPayrollPeriods)

	// -------- Suppliers --------
	api.POST("/payroll/suppliers", s.CreatePayrollSupplier)
	api.GET("/payroll/suppliers", s.ListPayrollSuppliers)
	api.GET("/payroll/suppliers/:id", s.GetPayrollSupplier)
	api.PUT("/payroll/suppliers/:id", s.UpdatePayrollSupplier)
	api.DELETE("/payroll/suppliers/:id", s.DeactivatePayrollSupplier)

	api.GET("/payroll/reports", s.GetPayrollReport)

	if s.auditSvc != nil {
		api.GET("/audit-logs", s.ListAuditLogs)
	}
}
