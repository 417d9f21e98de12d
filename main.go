package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	alertapp "aquarium-cloud/internal/alerts/application"
	alerthttp "aquarium-cloud/internal/alerts/interfaces/http"
	alertnotify "aquarium-cloud/internal/alerts/notify"
	"aquarium-cloud/internal/audit"
	"aquarium-cloud/internal/auth"
	maintapp "aquarium-cloud/internal/maintenance/application"
	maintrepo "aquarium-cloud/internal/maintenance/infrastructure/postgres"
	mainthttp "aquarium-cloud/internal/maintenance/interfaces/http"
	"aquarium-cloud/internal/notify"
	"aquarium-cloud/internal/observability/metrics"
	readingrepo "aquarium-cloud/internal/readings/infrastructure/postgres"
	readinghttp "aquarium-cloud/internal/readings/interfaces/http"
	sensorapp "aquarium-cloud/internal/sensors/application"
	sensorrepo "aquarium-cloud/internal/sensors/infrastructure/postgres"
	sensorhttp "aquarium-cloud/internal/sensors/interfaces/http"
	specimenrepo "aquarium-cloud/internal/specimens/infrastructure/postgres"
	specimenhttp "aquarium-cloud/internal/specimens/interfaces/http"
	watertestrepo "aquarium-cloud/internal/watertests/infrastructure/postgres"
	watertesthttp "aquarium-cloud/internal/watertests/interfaces/http"

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

	sensorRepo := sensorrepo.NewSensorRepository(db)
	readingRepo := readingrepo.NewReadingRepository(db)
	specimenRepo := specimenrepo.NewSpecimenRepository(db)
	taskRepo := maintrepo.NewTaskRepository(db)
	waterTestRepo := watertestrepo.NewWaterTestRepository(db)

	alertsCfg, err := alertapp.LoadConfig()
	if err != nil {
		logger.Fatalf("alerts config error: %v", err)
	}

	broker := alerthttp.NewSSEBroker()
	notifiers := []alertapp.Notifier{broker}
	var pushChannel notify.Channel
	if alertsCfg.Pushover.Token != "" && alertsCfg.Pushover.User != "" {
		channelOpts := []notify.PushoverOption{}
		if alertsCfg.Pushover.Device != "" {
			channelOpts = append(channelOpts, notify.WithDevice(alertsCfg.Pushover.Device))
		}
		if alertsCfg.Pushover.BaseURL != "" {
			channelOpts = append(channelOpts, notify.WithBaseURL(alertsCfg.Pushover.BaseURL))
		}
		channel, err := notify.NewPushoverChannel(alertsCfg.Pushover.Token, alertsCfg.Pushover.User, channelOpts...)
		if err != nil {
			logger.Fatalf("pushover channel error: %v", err)
		}
		pushChannel = channel
		tpl, err := alertnotify.NewTemplate(alertsCfg.TitleTemplate, alertsCfg.BodyTemplate)
		if err != nil {
			logger.Fatalf("alert template error: %v", err)
		}
		pushNotifier, err := alertnotify.NewNotifier(channel, tpl, logger)
		if err != nil {
			logger.Fatalf("alert notifier error: %v", err)
		}
		notifiers = append(notifiers, pushNotifier)
	}

	tracker := alertapp.NewTracker()
	alertService, err := alertapp.NewService(tracker,
		alertapp.WithNotifier(alertnotify.NewMultiNotifier(notifiers...)),
		alertapp.WithRepeatInterval(alertsCfg.RepeatInterval),
	)
	if err != nil {
		logger.Fatalf("alert service error: %v", err)
	}

	sensorService, err := sensorapp.NewService(sensorRepo, readingRepo, tracker)
	if err != nil {
		logger.Fatalf("sensor service error: %v", err)
	}
	sensorHandler, err := sensorhttp.NewHandler(sensorService, auditRepo)
	if err != nil {
		logger.Fatalf("sensor handler error: %v", err)
	}
	parametersHandler, err := sensorhttp.NewParametersHandler(sensorService)
	if err != nil {
		logger.Fatalf("parameters handler error: %v", err)
	}

	ingestHandler, err := readinghttp.NewIngestHandler(sensorRepo, readingRepo, alertService, logger,
		readinghttp.WithRateLimit(cfg.IngestRate, cfg.IngestBurst))
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	historyHandler, err := readinghttp.NewHistoryHandler(readingRepo)
	if err != nil {
		logger.Fatalf("history handler error: %v", err)
	}
	summaryHandler, err := readinghttp.NewSummaryHandler(readingRepo)
	if err != nil {
		logger.Fatalf("summary handler error: %v", err)
	}

	specimenHandler, err := specimenhttp.NewHandler(specimenRepo, auditRepo)
	if err != nil {
		logger.Fatalf("specimen handler error: %v", err)
	}

	taskService, err := maintapp.NewService(taskRepo)
	if err != nil {
		logger.Fatalf("maintenance service error: %v", err)
	}
	taskHandler, err := mainthttp.NewHandler(taskService, auditRepo)
	if err != nil {
		logger.Fatalf("maintenance handler error: %v", err)
	}
	checker, err := maintapp.NewChecker(taskRepo, pushChannel, logger)
	if err != nil {
		logger.Fatalf("maintenance checker error: %v", err)
	}
	go checker.Run(context.Background())

	waterTestHandler, err := watertesthttp.NewHandler(waterTestRepo, auditRepo)
	if err != nil {
		logger.Fatalf("water test handler error: %v", err)
	}
	waterTestExportHandler, err := watertesthttp.NewExportHandler(waterTestRepo)
	if err != nil {
		logger.Fatalf("water test export handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy(
		[]string{"/healthz", "/metrics", "/parameters"},
		[]string{"/data/"},
	)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/data/", ingestHandler)
	mux.Handle("/parameters", parametersHandler)
	mux.Handle("/api/v1/sensors", sensorHandler)
	mux.Handle("/api/v1/sensors/", sensorHandler)
	mux.Handle("/api/v1/readings", historyHandler)
	mux.Handle("/api/v1/history", summaryHandler)
	mux.Handle("/api/v1/specimens", specimenHandler)
	mux.Handle("/api/v1/specimens/", specimenHandler)
	mux.Handle("/api/v1/maintenance", taskHandler)
	mux.Handle("/api/v1/maintenance/", taskHandler)
	mux.Handle("/api/v1/watertests", waterTestHandler)
	mux.Handle("/api/v1/watertests/", waterTestHandler)
	mux.Handle("/api/v1/exports/watertests.csv", waterTestExportHandler)
	mux.Handle("/api/v1/exports/watertests.xlsx", waterTestExportHandler)
	mux.Handle("/api/v1/exports/watertests.pdf", waterTestExportHandler)
	mux.Handle("/api/v1/alerts/stream", alerthttp.NewStreamHandler(broker))
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
	IngestRate  float64
	IngestBurst int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestRate:  getenvFloatDefault("INGEST_RATE", 1.0),
		IngestBurst: getenvIntDefault("INGEST_BURST", 5),
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

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
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
