package main

import (
	"alcyxob/fitcoach/internal/api"
	"alcyxob/fitcoach/internal/config"
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/gate"
	"alcyxob/fitcoach/internal/logging"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/realtime"
	"alcyxob/fitcoach/internal/repository"
	"alcyxob/fitcoach/internal/repository/memory"
	"alcyxob/fitcoach/internal/repository/mongo"
	"alcyxob/fitcoach/internal/service"
	"alcyxob/fitcoach/internal/storage"
	"alcyxob/fitcoach/internal/wizard"
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type repositories struct {
	users     repository.UserRepository
	exercises repository.ExerciseRepository
	workouts  repository.WorkoutRepository
	items     repository.WorkoutItemRepository
}

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Infof("starting fitcoach server, database driver %s, realtime source %s", cfg.Database.Driver, cfg.Realtime.Source)

	// --- Metrics ---
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("fitcoach", "server", promRegistry)

	hub := realtime.NewHub(metricsManager)
	defer hub.Close()

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// --- Repositories ---
	var repos repositories
	switch cfg.Database.Driver {
	case config.DatabaseDriverMemory:
		log.Warn("using the in-memory database: nothing survives a restart")
		store := memory.NewStore(hub)
		repos = repositories{
			users:     store.Users(),
			exercises: store.Exercises(),
			workouts:  store.Workouts(),
			items:     store.WorkoutItems(),
		}
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("could not connect to MongoDB: %s", err)
		}
		defer func() {
			log.Info("disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Errorf("failed to disconnect MongoDB: %s", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		log.Info("database connection established")

		go func() {
			ctx, cancel := context.WithTimeout(rootCtx, time.Minute)
			defer cancel()
			for _, err := range mongo.EnsureIndexes(ctx, appDB) {
				log.Warnf("ensure indexes: %s", err)
			}
			log.Debug("index creation completed")
		}()

		// with change streams the database is the only publisher
		var notifier mongo.Notifier = hub
		if cfg.Realtime.Source == config.RealtimeSourceChangeStream {
			notifier = nil
			source := realtime.NewChangeStreamSource(appDB, hub,
				domain.TableUsers, domain.TableWorkouts, domain.TableWorkoutItems)
			go func() {
				if err := source.Run(rootCtx); err != nil {
					log.Errorf("realtime change streams stopped: %s", err)
				}
			}()
		}

		repos = repositories{
			users:     mongo.NewMongoUserRepository(appDB, notifier),
			exercises: mongo.NewMongoExerciseRepository(appDB),
			workouts:  mongo.NewMongoWorkoutRepository(appDB, notifier),
			items:     mongo.NewMongoWorkoutItemRepository(appDB, notifier),
		}
	}

	// --- Storage ---
	avatarStorage, err := storage.NewS3Storage(rootCtx, cfg.S3)
	if err != nil {
		log.Fatalf("failed to initialize S3 storage: %s", err)
	}

	// --- Services ---
	authService := service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration)
	planService := service.NewPlanService(repos.workouts, repos.items, metricsManager)
	exerciseService := service.NewExerciseService(repos.exercises, cfg.Search.PageSize, metricsManager)
	settingsService := service.NewSettingsService(repos.users, authService, avatarStorage, service.SettingsTimeouts{
		Name:     cfg.Settings.NameTimeout,
		Email:    cfg.Settings.EmailTimeout,
		Phone:    cfg.Settings.PhoneTimeout,
		Password: cfg.Settings.PasswordTimeout,
	}, metricsManager)

	drafts := wizard.NewStore(
		wizard.StoreParams{
			TTL:             cfg.Drafts.TTL,
			CleanupInterval: cfg.Drafts.CleanupInterval,
			PageSize:        cfg.Search.PageSize,
			Debounce:        cfg.Search.Debounce,
		},
		repos.exercises,
		exerciseService,
		wizard.NewSubmitter(planService, metricsManager),
		metricsManager,
	)
	defer drafts.Shutdown()

	// --- HTTP ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		AuthService:       authService,
		RosterService:     service.NewRosterService(repos.users),
		PlanService:       planService,
		ExerciseService:   exerciseService,
		StudentService:    service.NewStudentService(repos.workouts, repos.items, repos.exercises, hub),
		SettingsService:   settingsService,
		Gate:              gate.New(authService, repos.users, gate.Budgets{Session: cfg.Gate.SessionTimeout, Role: cfg.Gate.RoleTimeout}, metricsManager),
		Drafts:            drafts,
		Metrics:           metricsManager,
		Roles:             repos.users,
		PanelTTL:          cfg.Drafts.TTL,
		PanelCleanupEvery: cfg.Drafts.CleanupInterval,
	})

	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: event streams stay open
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return rootCtx },
	}

	go func() {
		log.Infof("server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %s", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	// streams end when their requests are cancelled
	cancelRoot()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %s", err)
	}

	log.Info("server exiting")
}
