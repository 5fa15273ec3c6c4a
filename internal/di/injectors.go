//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"gpscam/internal"
	"gpscam/internal/controllers"
	"gpscam/internal/overlay"
	"gpscam/internal/providers"
	"gpscam/internal/services"
	"gpscam/internal/storage"
	"gpscam/internal/structures"
)

func InitApp(cfg *structures.CliFlags, position services.PositionProvider, frames services.FrameProvider) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewCacheProvider,
		providers.NewMetricsProvider,

		storage.NewZstdCompressor,
		storage.NewRecordStore,
		storage.NewArtifactStore,
		storage.NewScheduler,
		overlay.NewCompositor,

		services.NewGPSService,
		services.NewCameraService,
		services.NewCaptureService,

		controllers.NewHealthController,
		internal.NewApp,
	)

	return nil, nil
}
