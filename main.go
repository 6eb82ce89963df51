package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	apihttp "household-registry/internal/api/http"
	"household-registry/internal/audit"
	"household-registry/internal/auth"
	"household-registry/internal/eventing"
	"household-registry/internal/eventing/eventbus"
	eventingrepo "household-registry/internal/eventing/infrastructure/postgres"
	feeperiodapp "household-registry/internal/feeperiod/application"
	feeperiodrepo "household-registry/internal/feeperiod/infrastructure/postgres"
	feeperiodhttp "household-registry/internal/feeperiod/interfaces/http"
	feesapp "household-registry/internal/fees/application"
	fees "household-registry/internal/fees/domain"
	feesrepo "household-registry/internal/fees/infrastructure/postgres"
	feesinterfaces "household-registry/internal/fees/interfaces"
	feeshttp "household-registry/internal/fees/interfaces/http"
	"household-registry/internal/observability/metrics"
	"household-registry/internal/observability/notify"
	registryapp "household-registry/internal/registry/application"
	"household-registry/internal/registry/application/events"
	registryrepo "household-registry/internal/registry/infrastructure/postgres"
	registryhttp "household-registry/internal/registry/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	baseBus := eventbus.NewInMemoryBus()
	eventRegistry := eventing.NewRegistry()
	eventRegistry.Register(events.HouseholdChanged{})
	eventRegistry.Register(events.CitizenChanged{})

	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore := eventingrepo.NewProcessedStore(db)
	dlqStore := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, eventRegistry, dlqStore)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, baseBus)

	periodRepo := feeperiodrepo.NewPeriodRepository(db)
	householdRepo := registryrepo.NewHouseholdRepository(db)
	citizenRepo := registryrepo.NewCitizenRepository(db)
	obligationRepo := feesrepo.NewObligationRepository(db)
	paymentRepo := feesrepo.NewPaymentRepository(db)

	policyCfg, err := feesapp.LoadPolicyConfig()
	if err != nil {
		logger.Fatalf("fee policy config error: %v", err)
	}
	calculator := fees.NewCalculator(policyCfg.Discount)

	recalcService, err := feesapp.NewRecalculationService(householdRepo, citizenRepo, periodRepo, obligationRepo, calculator, nil, logger)
	if err != nil {
		logger.Fatalf("recalculation service error: %v", err)
	}
	var handlerOpts []feesinterfaces.HandlerOption
	if notifier := notify.ForWebhookURLs(os.Getenv("ALERT_WEBHOOK_URL")); notifier != nil {
		handlerOpts = append(handlerOpts, feesinterfaces.WithNotifier(notifier))
	}
	changeHandler, err := feesinterfaces.NewRegistryChangeHandler(recalcService, logger, handlerOpts...)
	if err != nil {
		logger.Fatalf("registry change handler error: %v", err)
	}
	eventing.Subscribe(baseBus, eventbus.EventTypeOf[events.HouseholdChanged](), "fees.household", changeHandler.HandleHouseholdChanged, processedStore)
	eventing.Subscribe(baseBus, eventbus.EventTypeOf[events.CitizenChanged](), "fees.citizen", changeHandler.HandleCitizenChanged, processedStore)

	registryService, err := registryapp.NewService(householdRepo, citizenRepo, publisher, nil, logger)
	if err != nil {
		logger.Fatalf("registry service error: %v", err)
	}
	periodService, err := feeperiodapp.NewService(periodRepo, nil)
	if err != nil {
		logger.Fatalf("fee period service error: %v", err)
	}
	queryService, err := feesapp.NewQueryService(householdRepo, citizenRepo, periodRepo, obligationRepo, paymentRepo, calculator, nil)
	if err != nil {
		logger.Fatalf("fee query service error: %v", err)
	}
	paymentService, err := feesapp.NewPaymentService(householdRepo, periodRepo, obligationRepo, paymentRepo, nil)
	if err != nil {
		logger.Fatalf("payment service error: %v", err)
	}

	feesHandler, err := feeshttp.NewHandler(queryService, paymentService, periodService, auditRepo)
	if err != nil {
		logger.Fatalf("fees handler error: %v", err)
	}
	periodHandler, err := feeperiodhttp.NewHandler(periodService, feesHandler, auditRepo)
	if err != nil {
		logger.Fatalf("fee period handler error: %v", err)
	}
	registryHandler, err := registryhttp.NewHandler(registryService, auditRepo)
	if err != nil {
		logger.Fatalf("registry handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/fee-periods", periodHandler)
	mux.Handle("/api/v1/fee-periods/", periodHandler)
	mux.Handle("/api/v1/households", registryHandler)
	mux.Handle("/api/v1/households/", registryHandler)
	mux.Handle("/api/v1/citizens", registryHandler)
	mux.Handle("/api/v1/citizens/", registryHandler)
	mux.Handle("/api/v1/fees/", feesHandler)
	mux.Handle("/api/v1/payments", feesHandler)
	mux.Handle("/api/v1/exports/obligations.csv", apihttp.NewExportObligationsCSVHandler(db))
	mux.Handle("/api/v1/exports/payments.csv", apihttp.NewExportPaymentsCSVHandler(db))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		elapsed := time.Since(start)
		metrics.ObserveHTTP(r.Method, strconv.Itoa(resp.status), elapsed)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, elapsed)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
