package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/koverhq/kover/internal/audit"
	auditdomain "github.com/koverhq/kover/internal/audit/domain"
	"github.com/koverhq/kover/internal/auth"
	authdomain "github.com/koverhq/kover/internal/auth/domain"
	"github.com/koverhq/kover/internal/authorization"
	"github.com/koverhq/kover/internal/config"
	"github.com/koverhq/kover/internal/events"
	"github.com/koverhq/kover/internal/modules"
	"github.com/koverhq/kover/internal/onboarding"
	onboardingdomain "github.com/koverhq/kover/internal/onboarding/domain"
	"github.com/koverhq/kover/internal/plan"
	plandomain "github.com/koverhq/kover/internal/plan/domain"
	"github.com/koverhq/kover/internal/providers/email"
	"github.com/koverhq/kover/internal/ratelimit"
	"github.com/koverhq/kover/internal/reference"
	referencedomain "github.com/koverhq/kover/internal/reference/domain"
	"github.com/koverhq/kover/internal/subscription"
	subscriptiondomain "github.com/koverhq/kover/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	events.Module,
	auth.Module,
	email.Module,
	plan.Module,
	subscription.Module,
	reference.Module,
	onboarding.Module,
	modules.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContext())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	genID           *snowflake.Node
	authsvc         authdomain.Service
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	planSvc         plandomain.Service
	subscriptionSvc subscriptiondomain.Service
	provisioner     onboardingdomain.Provisioner
	refrepo         referencedomain.Repository
	loginLimiter    *ratelimit.LoginLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	GenID           *snowflake.Node
	Authsvc         authdomain.Service
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	PlanSvc         plandomain.Service
	SubscriptionSvc subscriptiondomain.Service
	Provisioner     onboardingdomain.Provisioner
	Refrepo         referencedomain.Repository
	LoginLimiter    *ratelimit.LoginLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		genID:           p.GenID,
		authsvc:         p.Authsvc,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		planSvc:         p.PlanSvc,
		subscriptionSvc: p.SubscriptionSvc,
		provisioner:     p.Provisioner,
		refrepo:         p.Refrepo,
		loginLimiter:    p.LoginLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)
	auth.POST("/social-login", s.SocialLogin)
	auth.POST("/forgot-password", s.ForgotPassword)
	auth.POST("/reset-password", s.ResetPassword)

	auth.POST("/logout", s.AuthRequired(), s.Logout)
	auth.POST("/logout-all", s.AuthRequired(), s.LogoutAll)
	auth.POST("/update-password", s.AuthRequired(), s.UpdatePassword)
	auth.POST("/verify-email", s.AuthRequired(), s.VerifyEmail)
	auth.POST("/mfa/enable", s.AuthRequired(), s.EnableMFA)
	auth.DELETE("/tokens/:id", s.AuthRequired(), s.RevokeToken)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.GET("/onboarding/options", s.OnboardingOptions)
	api.GET("/onboarding/website-check", s.WebsiteCheck)

	api.POST("/onboarding", s.AuthRequired(), s.Provision)
	api.GET("/subscription", s.AuthRequired(), s.CurrentSubscription)
	api.GET("/audit-logs", s.AuthRequired(), s.ListAuditLogs)
}
