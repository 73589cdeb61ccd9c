//go:build wireinject
// +build wireinject

package di

import (
	"IntraScan/pkg/config"
	"IntraScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideBrokerStream,
		ProvideCandleSource,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideFacadeCache,

		// Domain state and engines
		ProvideMarketStore,
		ProvideDetectEngine,
		ProvideSignalConfig,
		ProvideOrchestrator,
		ProvideAdaptive,
		ProvideCooldown,
		ProvideExecutionGuard,
		ProvideGuardChain,
		ProvideRankings,
		ProvideScheduler,
		ProvideRunner,

		// Use cases
		ProvideSignalSink,
		ProvideRecorder,
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,
		ProvideScanner,

		// Facade + application server
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
