package export

import (
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/export/domain"
	"github.com/smallbiznis/flowdesk/internal/export/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("export",
	fx.Provide(
		fx.Annotate(service.NewPDFRenderer, fx.As(new(domain.Renderer))),
	),
	fx.Provide(func(r domain.Renderer, c clock.Clock, log *zap.Logger) *service.Tracker {
		return service.NewTracker(r, c, log)
	}),
	fx.Provide(service.NewBoard),
)
