package main

import (
	"context"
	"fmt"
	"log"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/cronosschool2025-afk/algoritmo/api/swagger"
	internalhandler "github.com/cronosschool2025-afk/algoritmo/internal/handler"
	internalmiddleware "github.com/cronosschool2025-afk/algoritmo/internal/middleware"
	"github.com/cronosschool2025-afk/algoritmo/internal/repository"
	"github.com/cronosschool2025-afk/algoritmo/internal/service"
	"github.com/cronosschool2025-afk/algoritmo/pkg/cache"
	"github.com/cronosschool2025-afk/algoritmo/pkg/config"
	"github.com/cronosschool2025-afk/algoritmo/pkg/database"
	"github.com/cronosschool2025-afk/algoritmo/pkg/jobs"
	"github.com/cronosschool2025-afk/algoritmo/pkg/logger"
	corsmiddleware "github.com/cronosschool2025-afk/algoritmo/pkg/middleware/cors"
	reqidmiddleware "github.com/cronosschool2025-afk/algoritmo/pkg/middleware/requestid"
	"github.com/cronosschool2025-afk/algoritmo/pkg/storage"
)

// @title Cronos Scheduling API
// @version 0.1.0
// @description Constraint-satisfaction class scheduling service
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		registerPprof(r)
	}

	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	api := r.Group(cfg.APIPrefix)

	// Redis-backed lookup cache for the Input Index (rooms/timeslots),
	// keyed per term and invalidated implicitly by its TTL.
	var cacheRepo service.CacheRepository
	var cacheCloser interface{ Close() error }
	if cfg.Cache.Enabled {
		if client, err := cache.NewRedis(cfg.Redis); err != nil {
			logr.Sugar().Warnw("cache disabled", "error", err)
		} else {
			cacheCloser = client
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	if cacheCloser != nil {
		defer cacheCloser.Close() //nolint:errcheck
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DefaultTTL, logr, cacheRepo != nil)

	courseRepo := repository.NewCourseRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	professorRepo := repository.NewProfessorRepository(db)
	termRepo := repository.NewTermRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	timeslotRepo := repository.NewTimeslotRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	generatedScheduleRepo := repository.NewGeneratedScheduleRepository(db)
	generatedSlotRepo := repository.NewGeneratedScheduleSlotRepository(db)
	deficitRepo := repository.NewScheduleDeficitRepository(db)

	courseSvc := service.NewCourseService(courseRepo, nil, logr)
	groupSvc := service.NewGroupService(groupRepo, nil, logr)
	professorSvc := service.NewProfessorService(professorRepo, nil, logr)
	termSvc := service.NewTermService(termRepo, nil, logr)
	roomSvc := service.NewRoomService(roomRepo, nil, logr)
	timeslotSvc := service.NewTimeslotService(timeslotRepo, logr)
	assignmentSvc := service.NewAssignmentService(professorRepo, courseRepo, groupRepo, termRepo, assignmentRepo, nil, logr)

	courseHandler := internalhandler.NewCourseHandler(courseSvc)
	groupHandler := internalhandler.NewGroupHandler(groupSvc)
	professorHandler := internalhandler.NewProfessorHandler(professorSvc, assignmentSvc)
	termHandler := internalhandler.NewTermHandler(termSvc)
	roomHandler := internalhandler.NewRoomHandler(roomSvc)
	timeslotHandler := internalhandler.NewTimeslotHandler(timeslotSvc)

	var schedulerHandler *internalhandler.ScheduleGeneratorHandler
	var schedulerSvc *service.ScheduleGeneratorService
	if cfg.Scheduler.Enabled {
		schedulerSvc = service.NewScheduleGeneratorService(
			termRepo,
			assignmentRepo,
			courseRepo,
			groupRepo,
			professorRepo,
			roomRepo,
			timeslotRepo,
			generatedScheduleRepo,
			generatedSlotRepo,
			deficitRepo,
			db,
			nil,
			logr,
			service.ScheduleGeneratorConfig{
				ProposalTTL:             cfg.Scheduler.ProposalTTL,
				MaxAttempts:             cfg.Scheduler.MaxAttempts,
				VerificationMaxAttempts: cfg.Scheduler.VerificationMaxAttempts,
				WindowStartHour:         cfg.Scheduler.WindowStartHour,
				WindowEndHour:           cfg.Scheduler.WindowEndHour,
				RandomSeed:              cfg.Scheduler.RandomSeed,
			},
		)
		schedulerSvc.SetCache(cacheSvc)
		schedulerHandler = internalhandler.NewScheduleGeneratorHandler(schedulerSvc)
	}

	// Background repair queue: retries a saved run through the full
	// generator whenever its verification pass left a non-zero deficit.
	var repairQueue *jobs.Queue
	var exportHandler *internalhandler.ScheduleExportHandler
	if cfg.Scheduler.Enabled && schedulerSvc != nil {
		repairWorker := service.NewScheduleRepairWorker(schedulerSvc, deficitRepo, logr)
		repairQueue = jobs.NewQueue("schedule-repair", repairWorker.Handle, jobs.QueueConfig{
			Workers:    cfg.Jobs.WorkerConcurrency,
			MaxRetries: cfg.Jobs.WorkerRetries,
			RetryDelay: 5 * time.Second,
			Logger:     logr,
		})
		queueCtx, cancel := context.WithCancel(context.Background())
		repairQueue.Start(queueCtx)
		defer func() {
			cancel()
			repairQueue.Stop()
		}()
		schedulerSvc.SetRepairQueue(repairQueue)

		if cfg.Export.Enabled {
			fileStore, err := storage.NewLocalStorage(cfg.Export.StorageDir)
			if err != nil {
				logr.Sugar().Fatalw("failed to init export storage", "error", err)
			}
			signer := storage.NewSignedURLSigner(cfg.Export.SignedURLSecret, cfg.Export.SignedURLTTL)
			exportSvc := service.NewScheduleExportService(generatedSlotRepo, generatedScheduleRepo, fileStore, signer, logr)
			exportHandler = internalhandler.NewScheduleExportHandler(exportSvc)
		}
	}

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(cfg.JWT.Secret))

	coursesGroup := secured.Group("/courses")
	coursesGroup.GET("", courseHandler.List)
	coursesGroup.POST("", courseHandler.Create)
	coursesGroup.GET("/:id", courseHandler.Get)
	coursesGroup.PUT("/:id", courseHandler.Update)
	coursesGroup.DELETE("/:id", courseHandler.Delete)

	groupsGroup := secured.Group("/groups")
	groupsGroup.GET("", groupHandler.List)
	groupsGroup.POST("", groupHandler.Create)
	groupsGroup.GET("/:id", groupHandler.Get)
	groupsGroup.PUT("/:id", groupHandler.Update)
	groupsGroup.DELETE("/:id", groupHandler.Delete)

	termsGroup := secured.Group("/terms")
	termsGroup.GET("", termHandler.List)
	termsGroup.GET("/active", termHandler.GetActive)
	termsGroup.POST("", termHandler.Create)
	termsGroup.PUT("/:id", termHandler.Update)
	termsGroup.POST("/:id/activate", termHandler.SetActive)
	termsGroup.DELETE("/:id", termHandler.Delete)

	roomsGroup := secured.Group("/rooms")
	roomsGroup.GET("", roomHandler.List)
	roomsGroup.POST("", roomHandler.Create)
	roomsGroup.GET("/:id", roomHandler.Get)
	roomsGroup.PUT("/:id", roomHandler.Update)
	roomsGroup.DELETE("/:id", roomHandler.Delete)

	timeslotsGroup := secured.Group("/timeslots")
	timeslotsGroup.GET("", timeslotHandler.List)
	timeslotsGroup.GET("/:id", timeslotHandler.Get)

	professorsGroup := secured.Group("/professors")
	professorsGroup.GET("", professorHandler.List)
	professorsGroup.POST("", professorHandler.Create)
	professorsGroup.GET("/:id", professorHandler.Get)
	professorsGroup.PUT("/:id", professorHandler.Update)
	professorsGroup.DELETE("/:id", professorHandler.Delete)
	professorsGroup.GET("/:id/unavailability", professorHandler.GetUnavailability)
	professorsGroup.PUT("/:id/unavailability", professorHandler.SetUnavailability)
	professorsGroup.POST("/:id/room", professorHandler.AssignRoom)
	professorsGroup.GET("/:id/assignments", professorHandler.ListAssignments)
	professorsGroup.POST("/:id/assignments", professorHandler.CreateAssignment)
	professorsGroup.DELETE("/:id/assignments/:aid", professorHandler.DeleteAssignment)

	if schedulerHandler != nil {
		schedulesGroup := secured.Group("/schedules")
		schedulesGroup.POST("/generate", schedulerHandler.Generate)
		schedulesGroup.POST("/generate/:id/save", schedulerHandler.Save)
		schedulesGroup.POST("/:id/publish", schedulerHandler.Publish)
		schedulesGroup.GET("", schedulerHandler.List)
		schedulesGroup.GET("/:id/slots", schedulerHandler.Slots)
		schedulesGroup.GET("/:id/deficits", schedulerHandler.Deficits)
		schedulesGroup.DELETE("/:id", schedulerHandler.Delete)

		if exportHandler != nil {
			schedulesGroup.GET("/:id/export.csv", exportHandler.ExportCSV)
			schedulesGroup.GET("/:id/export.pdf", exportHandler.ExportPDF)
			secured.GET("/exports/:token", exportHandler.Download)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerPprof(r *gin.Engine) {
	group := r.Group("/debug/pprof")
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	group.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	group.GET("/block", gin.WrapH(pprof.Handler("block")))
	group.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	group.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	group.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	group.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
}
