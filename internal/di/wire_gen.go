// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"gpscam/internal"
	"gpscam/internal/controllers"
	"gpscam/internal/overlay"
	"gpscam/internal/providers"
	"gpscam/internal/services"
	"gpscam/internal/storage"
	"gpscam/internal/structures"
)

// Injectors from injectors.go:

func InitApp(cfg *structures.CliFlags, position services.PositionProvider, frames services.FrameProvider) (*internal.App, error) {
	config, err := providers.NewConfigProvider(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := providers.NewLogProvider(config)
	if err != nil {
		return nil, err
	}
	compositor, err := overlay.NewCompositor(config, logger)
	if err != nil {
		return nil, err
	}
	metricsProviderInterface := providers.NewMetricsProvider(config)
	artifactStore := storage.NewArtifactStore(config, logger, metricsProviderInterface)
	cacheProviderInterface := providers.NewCacheProvider(config, logger)
	captureServiceInterface := services.NewCaptureService(compositor, artifactStore, cacheProviderInterface, metricsProviderInterface, logger)
	compressorInterface, err := storage.NewZstdCompressor()
	if err != nil {
		return nil, err
	}
	recordStore, err := storage.NewRecordStore(config, compressorInterface, logger)
	if err != nil {
		return nil, err
	}
	healthController := controllers.NewHealthController(captureServiceInterface, recordStore)
	schedulerInterface := storage.NewScheduler(config, logger, recordStore, artifactStore, metricsProviderInterface)
	gpsServiceInterface := services.NewGPSService(config, position, logger)
	cameraServiceInterface := services.NewCameraService(config, frames, logger)
	app, err := internal.NewApp(healthController, schedulerInterface, recordStore, gpsServiceInterface, cameraServiceInterface, config, logger, metricsProviderInterface)
	if err != nil {
		return nil, err
	}
	return app, nil
}
