//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/behave/internal/config"
)

// InitEngine assembles every long-lived component the driver needs from cfg.
func InitEngine(cfg *config.Config) (*Engine, func(), error) {
	panic(wire.Build(ProviderSet))
}
