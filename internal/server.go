package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"

	"github.com/2beens/bloglist/internal/blog"
	"github.com/2beens/bloglist/internal/config"
	"github.com/2beens/bloglist/internal/db"
	"github.com/2beens/bloglist/internal/middleware"
	"github.com/2beens/bloglist/internal/telemetry/metrics"
	"github.com/2beens/bloglist/internal/telemetry/tracing"
	"github.com/2beens/bloglist/pkg"
)

const serviceName = "bloglist"

// blogRepo mirrors the accessor interface the blog handler consumes, so the
// storage backend can be picked at startup.
type blogRepo interface {
	All(ctx context.Context) ([]*blog.Blog, error)
	Get(ctx context.Context, id string) (*blog.Blog, error)
	Add(ctx context.Context, b *blog.Blog) (*blog.Blog, error)
	Update(ctx context.Context, id string, b *blog.Blog) (*blog.Blog, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	mongoClient *mongo.Client
	dbPool      *pgxpool.Pool
	blogRepo    blogRepo

	redisClient *redis.Client

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

// NewServer opens the store connection (and redis, when configured). The
// connection lives until GracefulShutdown.
func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, serviceName)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:       cfg,
		versionInfo:  params.VersionInfo,
		otelShutdown: otelShutdown,
	}

	var extraCollectors []prometheus.Collector
	switch cfg.Storage {
	case config.StorageMongo:
		s.mongoClient, err = db.NewMongoClient(ctx, db.NewMongoClientParams{
			URI:     cfg.MongoURI,
			AppName: serviceName,
		})
		if err != nil {
			otelShutdown()
			return nil, fmt.Errorf("new mongo client: %w", err)
		}
		s.blogRepo = blog.NewRepo(s.mongoClient.Database(cfg.MongoDBName))
	case config.StoragePostgres:
		s.dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			otelShutdown()
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := s.dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			s.dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
		s.blogRepo = blog.NewPsqlRepo(s.dbPool)
	case config.StorageMemory:
		log.Warnln("using in-memory blog storage, nothing will be persisted")
		s.blogRepo = blog.NewMemRepo()
	default:
		otelShutdown()
		return nil, fmt.Errorf("unknown storage: %s", cfg.Storage)
	}

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager(serviceName, "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	if cfg.RedisHost != "" && cfg.WriteRateLimitAllowedPerMin > 0 {
		s.redisClient = newRedisClient(ctx, cfg, params.RedisPassword, params.HoneycombTracingEnabled)
	} else {
		log.Debugln("redis not configured, write rate limiting disabled")
	}

	return s, nil
}

func newRedisClient(ctx context.Context, cfg *config.Config, password string, tracingEnabled bool) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: password,
		DB:       0, // use default DB
	})
	if tracingEnabled {
		rdb.AddHook(redisotel.NewTracingHook())
	}

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis, write rate limiting disabled: %s", err)
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
		return nil
	}

	log.Debugf("redis ping: %s", rdbStatus.Val())
	return rdb
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	blogHandler := blog.NewHandler(s.blogRepo, s.metricsManager)
	blogHandler.SetupRoutes(r)

	r.HandleFunc("/health", s.handleHealth).Methods("GET").Name("health")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSONError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	if s.redisClient != nil {
		r.Use(middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			s.metricsManager,
			"blogs-write",
			s.config.WriteRateLimitAllowedPerMin,
			http.MethodPost, http.MethodPut, http.MethodDelete,
		))
	}
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.blogRepo.Count(r.Context())
	if err != nil {
		log.Errorf("health check, count blogs: %s", err)
		pkg.WriteJSONError(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	pkg.WriteJSONResponse(w, map[string]any{
		"status":  "ok",
		"version": s.versionInfo,
		"blogs":   count,
	}, http.StatusOK)
}

// Serve binds the listeners and serves in the background. A bind failure is
// returned, later serve failures are logged.
func (s *Server) Serve(host string, port int) error {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	listener, err := net.Listen("tcp", ipAndPort)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", ipAndPort, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("main service, serve: %s", err)
		}
	}()

	if s.config.PrometheusMetricsPort != "" {
		metricsRouter := mux.NewRouter()
		metricsRouter.Handle("/metrics", promhttp.HandlerFor(
			s.promRegistry,
			promhttp.HandlerOpts{},
		))
		metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
		s.metricsHttpServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           metricsRouter,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Debugf(" > metrics listening on: [%s]", metricsAddr)
			err := s.metricsHttpServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("metrics service, listen and serve: %s", err)
			}
		}()
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
	return nil
}

// GracefulShutdown stops the http servers first, then releases the store,
// redis and telemetry. Safe to call when Serve was never called.
func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var errs error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shutdown metrics server: %w", err))
		}
		log.Warnln("metrics server shut down")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close redis client: %w", err))
		}
	}

	if s.mongoClient != nil {
		log.Debugln("disconnecting mongo ...")
		errs = multierr.Append(errs, db.DisconnectMongo(ctx, s.mongoClient))
		log.Debugln("mongo disconnected")
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if errs != nil {
		log.Errorf("graceful shutdown: %s", errs)
	}
	return errs
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed, http.StateHijacked:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
