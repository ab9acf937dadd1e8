package association

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/affinity/internal/association/repository"
	"github.com/smallbiznis/affinity/internal/association/service"
)

var Module = fx.Module("association",
	fx.Provide(
		repository.Provide,
		repository.ProvideRunStore,
		service.NewService,
	),
)
