package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/config"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/db"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/handlers"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/logging"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/mailer"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/mq"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/storage"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
)

// Server wraps the HTTP server, router and the background machinery.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	logger     *slog.Logger
	stopWorker context.CancelFunc
	workerDone chan struct{}
}

// New constructs a fully wired Server from the configuration.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := logging.Setup(cfg.Logs)

	jwtSecret := strings.TrimSpace(cfg.JWT.SecretKey)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET_KEY is required")
	}

	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(cfg); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queue, err := buildQueue(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	archive, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		closeQueue(queue, logger)
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	patientRepo := store.NewPatientRepository(dbConn)
	doctorRepo := store.NewDoctorRepository(dbConn)
	adminRepo := store.NewAdminRepository(dbConn)
	questionRepo := store.NewQuestionRepository(dbConn)
	answerRepo := store.NewAnswerRepository(dbConn)
	activityRepo := store.NewActivityRepository(dbConn)
	scoreRepo := store.NewScoreRepository(dbConn)
	resetCodeRepo := store.NewResetCodeRepository(dbConn)
	transcriptionRepo := store.NewTranscriptionRepository(dbConn)

	mailClient := mailer.NewClient(cfg.SMTP)
	var resetMailer services.ResetMailer
	stopWorker := func() {}
	workerDone := make(chan struct{})
	if queue != nil {
		resetMailer = mailer.NewDispatcher(mailClient, queue, cfg.MQ.EmailQueue, logger)
		worker := mailer.NewWorker(mailClient, queue, cfg.MQ.EmailQueue, logger)
		workerCtx, cancel := context.WithCancel(context.Background())
		stopWorker = cancel
		go func() {
			defer close(workerDone)
			if err := worker.Run(workerCtx); err != nil {
				logger.Error("email worker stopped", "error", err)
			}
		}()
	} else {
		resetMailer = mailer.NewDispatcher(mailClient, nil, "", logger)
		close(workerDone)
	}

	userService := services.NewUserService(userRepo, patientRepo, doctorRepo, adminRepo, scoreRepo, answerRepo)
	doctorService := services.NewDoctorService(patientRepo, doctorRepo)
	questionService := services.NewQuestionService(questionRepo, answerRepo, patientRepo, scoreRepo, transcriptionRepo, nil)
	activityService := services.NewActivityService(activityRepo, scoreRepo, patientRepo, transcriptionRepo, nil)
	resetService := services.NewPasswordResetService(userRepo, resetCodeRepo, resetMailer,
		time.Duration(cfg.Reset.CodeValidityMinutes)*time.Minute)
	transcriptionService := services.NewTranscriptionService(transcriptionRepo, patientRepo, archive, logger)
	recommendationService := services.NewRecommendationService(patientRepo, scoreRepo, answerRepo, transcriptionRepo, nil)
	reportService := services.NewReportService(userRepo, patientRepo, doctorRepo, scoreRepo, answerRepo, archive, logger)

	authMiddleware := handlers.RequireAuth(jwtSecret)
	reportAuthMiddleware := handlers.RequireAuthWithQueryToken(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(logger),
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	if cfg.RateLimit.Requests > 0 {
		router.Use(httprate.LimitByIP(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	handlers.MetaRouter(router)
	router.Route(config.APIPrefix, func(api chi.Router) {
		handlers.SystemRouter(api)
		api.Route("/user", func(r chi.Router) {
			handlers.UserRouter(r, userService, doctorService, resetService, jwtSecret, authMiddleware)
		})
		api.Route("/question", func(r chi.Router) {
			handlers.QuestionRouter(r, questionService, userService, authMiddleware)
		})
		api.Route("/activity", func(r chi.Router) {
			handlers.ActivityRouter(r, activityService, userService, authMiddleware)
		})
		api.Route("/transcription", func(r chi.Router) {
			handlers.TranscriptionRouter(r, transcriptionService, userService, authMiddleware)
		})
		api.Route("/report", func(r chi.Router) {
			handlers.ReportRouter(r, reportService, reportAuthMiddleware)
		})
		api.Route("/qr", func(r chi.Router) {
			handlers.QRRouter(r, reportService, userService, cfg.PublicHost, jwtSecret, authMiddleware)
		})
		api.Route("/llm-recommendation", func(r chi.Router) {
			handlers.RecommendationRouter(r, recommendationService, userService, authMiddleware)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 5000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		logger:     logger,
		stopWorker: stopWorker,
		workerDone: workerDone,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, stops the email worker and closes
// the broker and database connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.stopWorker()
	select {
	case <-s.workerDone:
	case <-ctx.Done():
	}

	closeQueue(s.queue, s.logger)
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

// buildQueue constructs the configured message broker, or nil when none
// is configured.
func buildQueue(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.MQ.Backend)) {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown MQ backend %q", cfg.MQ.Backend)
	}
}

// buildArchive constructs the configured object storage, or nil when none
// is configured. The bucket is created on startup if missing.
func buildArchive(ctx context.Context, cfg config.Config, logger *slog.Logger) (services.BlobArchive, error) {
	var backend storage.ObjectStorage
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("gcs: %w", err)
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	archive := storage.NewStorage(backend)
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", archive.Bucket(), err)
	}
	logger.Info("object storage ready", "backend", cfg.Storage.Backend, "bucket", archive.Bucket())
	return archive, nil
}

func closeQueue(queue *mq.MQ, logger *slog.Logger) {
	if queue == nil {
		return
	}
	if err := queue.Close(); err != nil {
		logger.Warn("closing message broker", "error", err)
	}
}

// requestLogger emits one structured line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
