package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Liamhigh/Verumlast/internal/config"
	"github.com/Liamhigh/Verumlast/internal/domain"
	cryptoinfra "github.com/Liamhigh/Verumlast/internal/infra/crypto"
	"github.com/Liamhigh/Verumlast/internal/infra/db"
	"github.com/Liamhigh/Verumlast/internal/infra/keys/session"
	"github.com/Liamhigh/Verumlast/internal/infra/policyopa"
	"github.com/Liamhigh/Verumlast/internal/infra/qrimg"
	"github.com/Liamhigh/Verumlast/internal/infra/ratelimit"
	"github.com/Liamhigh/Verumlast/internal/infra/render"
	"github.com/Liamhigh/Verumlast/internal/usecase"
)

type Server struct {
	cfg config.Config
	r   *gin.Engine

	sealUC   *usecase.SealReport
	verifyUC *usecase.VerifyReport
	records  *db.SealRecordRepository

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

// NewServer wires the full pipeline from config: session key manager, crypto
// service, renderer, imaging provider, optional policy bundle, optional seal
// record store, optional distributed rate limiter.
func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, r: r}
	s.initDeps(store)
	s.routes()
	return s
}

type ServerDeps struct {
	Seal        *usecase.SealReport
	Verify      *usecase.VerifyReport
	Records     *db.SealRecordRepository
	RateLimiter domain.RateLimiter
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:               cfg,
		r:                 r,
		sealUC:            deps.Seal,
		verifyUC:          deps.Verify,
		records:           deps.Records,
		rateLimiter:       deps.RateLimiter,
		rateLimitRequests: cfg.RateLimitRequests,
		rateLimitWindow:   cfg.RateLimitWindow(),
	}
	s.routes()
	return s
}

func (s *Server) initDeps(store *db.Store) {
	cryptoSvc := cryptoinfra.NewService()

	sealUC := &usecase.SealReport{
		Keys:     session.NewManager(),
		Crypto:   cryptoSvc,
		Renderer: render.NewRenderer(),
		Imager:   buildImager(s.cfg),
	}

	if policyPath := s.cfg.PolicyBundlePath; policyPath != "" {
		engine, err := policyopa.NewEngineFromBundlePath(context.Background(), policyPath)
		if err != nil {
			log.Printf("policy bundle %q unusable, sealing without policy: %v", policyPath, err)
		} else {
			log.Printf("seal policy loaded, bundle hash %s", engine.BundleHash())
			sealUC.Policy = engine
		}
	}

	if store != nil && store.DB != nil {
		repo := db.NewSealRecordRepository(store.DB)
		sealUC.Records = repo
		s.records = repo
	}

	s.sealUC = sealUC
	s.verifyUC = &usecase.VerifyReport{Crypto: cryptoSvc}

	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	if s.rateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil)
			if err != nil {
				log.Printf("redis rate limiter unavailable, using memory: %v", err)
			} else {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{MaxKeys: s.cfg.RateLimitMaxKeys})
		}
	}
}

func buildImager(cfg config.Config) usecase.PayloadImager {
	switch cfg.QRProvider {
	case "off":
		return nil
	case "remote":
		client, err := qrimg.NewClient(cfg.QRServiceURL, &http.Client{Timeout: 10 * time.Second})
		if err != nil {
			log.Printf("remote image service unusable, using local encoder: %v", err)
			return qrimg.NewLocal()
		}
		return client
	default:
		return qrimg.NewLocal()
	}
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/seal", s.handleSeal)
		v1.POST("/verify", s.handleVerify)
		v1.GET("/seals/:manifest_id", s.handleGetSealRecord)
	}
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.r
}
