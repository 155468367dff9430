package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/packvault/packvault/internal/config"
	"github.com/packvault/packvault/internal/db"
	"github.com/packvault/packvault/internal/formdata"
	"github.com/packvault/packvault/internal/metrics"
	"github.com/packvault/packvault/internal/repository"
	"github.com/packvault/packvault/internal/service"
	"github.com/packvault/packvault/internal/storage"
)

type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	Metrics     *metrics.Recorder
	FileService *service.FileService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Storage
	blobStorage, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	return Assemble(cfg, database, blobStorage, metrics.New()), nil
}

// Assemble wires repositories and services around already opened stores
func Assemble(cfg *config.Config, database *sqlx.DB, blobStorage storage.Storage, recorder *metrics.Recorder) *App {
	// Repositories
	fileRepository := repository.NewFileRepository(database)
	resourceRepository := repository.NewResourceRepository(database)

	// Services
	fileService := service.NewFileService(fileRepository, resourceRepository, blobStorage, recorder)

	return &App{
		Cfg:         cfg,
		DB:          database,
		Metrics:     recorder,
		FileService: fileService,
	}
}

// UploadOptions returns the multipart decoder limits from config
func (a *App) UploadOptions() formdata.Options {
	return formdata.Options{
		Window:      a.Cfg.UploadWindowBytes,
		ReadSize:    a.Cfg.UploadReadBytes,
		MaxFileSize: a.Cfg.UploadMaxBytes,
	}
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
