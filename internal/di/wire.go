//go:build wireinject
// +build wireinject

package di

import (
	"MarketDesk/pkg/config"
	"MarketDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,
		ProvideSessionMetrics,
		ProvideHub,

		// Remote service
		ProvideMarketService,

		// Use cases
		ProvideSession,

		// HTTP surface
		ProvidePresenter,
		ProvideSessionHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
