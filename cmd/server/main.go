package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	accessgraph "github.com/govkit/records-sdk/modules/access/infrastructure/graph"
	"github.com/govkit/records-sdk/modules/access/infrastructure/persistence"
	"github.com/govkit/records-sdk/modules/access/presentation/controllers"
	"github.com/govkit/records-sdk/modules/access/services"
	"github.com/govkit/records-sdk/pkg/composables"
	"github.com/govkit/records-sdk/pkg/configuration"
	"github.com/govkit/records-sdk/pkg/eventbus"
	"github.com/govkit/records-sdk/pkg/metrics"
	"github.com/govkit/records-sdk/pkg/middleware"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if conf.Cache.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: conf.Cache.RedisURL})
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.WithError(err).Warn("redis close failed")
			}
		}()
	}

	bus := eventbus.NewEventPublisher(logger)

	orgUnitRepo := persistence.NewOrgUnitRepository()
	subjectRepo := persistence.NewSubjectRepository()
	policyRepo := persistence.NewPolicyRepository()
	grantRepo := persistence.NewGrantRepository()
	delegationRepo := persistence.NewDelegationRepository()
	auditRepo := persistence.NewAuditRepository()

	hierarchySvc := services.NewHierarchyService(orgUnitRepo, subjectRepo, rdb, conf.Cache.TTL, logger)
	bus.Subscribe(func(ev services.OrgUnitChangedEvent) {
		hierarchySvc.Invalidate(context.Background(), ev.TenantID)
	})

	auditSvc := services.NewAuditService(auditRepo, conf.Audit, logger)
	auditCtx := composables.WithPool(context.Background(), pool)
	auditSvc.Start(auditCtx)

	loader := persistence.NewSnapshotLoader(subjectRepo, policyRepo, grantRepo, delegationRepo, hierarchySvc)
	engine := services.NewPolicyEngine(loader, auditSvc, logger)

	grantSvc := services.NewGrantService(grantRepo, bus)
	delegationSvc := services.NewDelegationService(delegationRepo, bus)
	orgUnitSvc := services.NewOrgUnitService(orgUnitRepo, subjectRepo, bus)
	graphFilterSvc := services.NewGraphFilterService(hierarchySvc)
	graphRepo := accessgraph.NewGraphRepository(conf.Graph.GraphName)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if conf.Prometheus.Enabled {
		metrics.NewPrometheusController(conf.Prometheus.Path).Register(router)
	}

	// Health and metrics stay outside the tenant-scoped middleware chain.
	api := router.NewRoute().Subrouter()
	api.Use(
		middleware.WithPool(pool),
		middleware.WithRequestContext(logger, conf.TenantIDHeader, conf.SubjectIDHeader, conf.RequestIDHeader),
	)

	apiController := controllers.NewAccessAPIController(
		engine,
		grantSvc,
		delegationSvc,
		orgUnitSvc,
		graphFilterSvc,
		graphRepo,
		auditSvc,
	)
	apiController.Register(api)

	srv := &http.Server{
		Addr:         conf.SocketAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", conf.SocketAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown failed")
	}

	// Drain the audit buffer before the pool goes away: every decision that
	// was handed to the sink must land in the log.
	auditSvc.Close()
	configuration.Use().Unload()
}
