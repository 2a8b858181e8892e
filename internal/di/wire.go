//go:build wireinject
// +build wireinject

package di

import (
	"ShopIntent/pkg/config"
	"ShopIntent/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideHTTPClient,

		// Repositories
		ProvideDatasetStore,
		ProvideModelRegistry,
		ProvideAuditPublisher,
		ProvideScoreCache,
		ProvideJobQueue,

		// Use cases
		ProvideDatasetPipeline,
		ProvideTrainingPipeline,
		ProvidePredictionPipeline,
		ProvideComparisonPipeline,
		ProvideModelAdmin,

		// Delivery
		ProvideHandler,
		ProvideRunner,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
