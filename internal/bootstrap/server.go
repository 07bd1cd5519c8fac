package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/cafebooking/api"
	"github.com/Domenick1991/cafebooking/config"
	"github.com/Domenick1991/cafebooking/internal/logger"
	"github.com/Domenick1991/cafebooking/internal/service/availability"
	"github.com/Domenick1991/cafebooking/internal/service/booking"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Bookings     booking.BookingUseCase
	Availability availability.AvailabilityUseCase
	Managers     api.ManagerDirectory
	// Redis backs the rate limiter; nil falls back to an in-process store.
	Redis *redis.Client
}

type Servers struct {
	grpcServer  *grpc.Server
	health      *health.Server
	gatewayConn *grpc.ClientConn
	httpServer  *http.Server
}

// Run starts the gRPC health server and the HTTP API and blocks until ctx is
// canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	s, err := newServers(cfg, deps)
	if err != nil {
		return err
	}
	defer s.gatewayConn.Close()

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Log.WithFields(logrus.Fields{
		"http": cfg.HTTP.Address,
		"grpc": cfg.GRPC.Address,
	}).Info("servers started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.health.Shutdown()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.grpcServer.GracefulStop()
		return nil
	}
}

func newServers(cfg *config.Config, deps Deps) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	conn, err := grpc.NewClient(cfg.GRPC.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC %s: %w", cfg.GRPC.Address, err)
	}
	gateway := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))

	router, err := NewRouter(cfg, deps, gateway)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Servers{
		grpcServer:  grpcSrv,
		health:      healthSrv,
		gatewayConn: conn,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// NewRouter assembles the gin engine. gateway serves GET /healthz.
func NewRouter(cfg *config.Config, deps Deps, gateway http.Handler) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	if len(cfg.HTTP.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.HTTP.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", gin.WrapH(gateway))

	if cfg.HTTP.SwaggerDir != "" {
		r.StaticFile("/swagger/openapi.json", filepath.Join(cfg.HTTP.SwaggerDir, "openapi.json"))
		r.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))
	}

	v1 := r.Group("/api/v1")
	if cfg.HTTP.RateLimit != "" {
		limit, err := rateLimiter(cfg.HTTP.RateLimit, deps.Redis)
		if err != nil {
			return nil, err
		}
		v1.Use(limit)
	}

	api.NewAvailabilityHandler(deps.Availability).Register(v1.Group("/cafes"))

	bookings := v1.Group("/bookings", api.RequireRequester([]byte(cfg.Auth.JWTSecret), deps.Managers))
	api.NewBookingHandler(deps.Bookings).Register(bookings)

	return r, nil
}

func rateLimiter(formatted string, client *redis.Client) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}

	var store limiter.Store
	if client != nil {
		store, err = redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix:   "rate_limiter:api",
			MaxRetry: 3,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memorystore.NewStore()
	}

	return ginmiddleware.NewMiddleware(limiter.New(store, rate)), nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.Log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request handled")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request handled")
		default:
			entry.Debug("request handled")
		}
	}
}
