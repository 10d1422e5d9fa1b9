package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"factory-qc-backend/internal/adapter/events"
	httpadp "factory-qc-backend/internal/adapter/http"
	qcmw "factory-qc-backend/internal/adapter/middleware"
	"factory-qc-backend/internal/adapter/mediastore"
	"factory-qc-backend/internal/adapter/repository/mysql"
	"factory-qc-backend/internal/adapter/repository/templatecache"
	"factory-qc-backend/internal/config"
	"factory-qc-backend/internal/infrastructure/cache"
	"factory-qc-backend/internal/infrastructure/db"
	inspectionUC "factory-qc-backend/internal/usecase/inspection"
	mediaUC "factory-qc-backend/internal/usecase/media"
	submissionUC "factory-qc-backend/internal/usecase/submission"
	"factory-qc-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	// repositories
	templateRepo := mysql.NewTemplateRepository(gdb)
	cachedTemplates := templatecache.New(templateRepo, rdb, time.Duration(cfg.TemplateCacheTTLSecs)*time.Second)
	inspectionRepo := mysql.NewInspectionRepository(gdb)
	photoRepo := mysql.NewPhotoRepository(gdb)
	guow := mysql.NewGormUoW(gdb)

	// usecases
	publisher := events.NewRedisPublisher(rdb)
	inspUC := inspectionUC.NewUsecase(inspectionRepo, photoRepo, guow, publisher)
	subUC := submissionUC.NewUsecase(guow, inspUC)
	store := mediastore.NewLocalStore(cfg.MediaBaseURL)
	medUC := mediaUC.NewUsecase(photoRepo, inspectionRepo, store)

	// optional async upload retry
	retryWorker := worker.NewUploadRetryWorker(photoRepo, medUC,
		time.Duration(cfg.UploadRetryIntervalSecs)*time.Second, cfg.UploadRetryMax, 50)
	retryWorker.Start()
	defer retryWorker.Stop()

	// handlers
	h := httpadp.NewHandler()
	th := httpadp.NewTemplateHandler(cachedTemplates)
	ih := httpadp.NewInspectionHandler(inspUC, subUC)
	mh := httpadp.NewMediaHandler(medUC)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	// routes
	e.GET("/health", h.Health)

	e.POST("/templates", th.CreateTemplate)
	e.GET("/templates/:template_id/structure", th.GetStructure)

	idemp := qcmw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)
	e.POST("/inspections", ih.OpenInspection, idemp)
	e.POST("/inspections/submit", ih.Submit, idemp)
	e.GET("/inspections/:inspection_id", ih.GetInspection)
	e.PUT("/inspections/:inspection_id/results/:checkpoint_id", ih.RecordResult)
	e.POST("/inspections/:inspection_id/finalize", ih.Finalize, idemp)
	e.GET("/inspections/:inspection_id/verdict", ih.GetVerdict)
	e.GET("/inspections/:inspection_id/rework-chain", ih.GetReworkChain)

	e.POST("/photos", mh.RegisterPhoto)
	e.POST("/photos/:photo_id/status", mh.SetPhotoStatus)
	e.POST("/photos/:photo_id/complete", mh.CompletePhoto)
	e.GET("/photos/:photo_id", mh.GetPhoto)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
