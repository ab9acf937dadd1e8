package catalog

import (
	"github.com/smallbiznis/affinity/internal/catalog/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog",
	fx.Provide(repository.Provide),
)
