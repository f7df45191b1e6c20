package draft

import (
	"context"

	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	"github.com/smallbiznis/flowdesk/internal/draft/codec"
	"github.com/smallbiznis/flowdesk/internal/draft/domain"
	"github.com/smallbiznis/flowdesk/internal/draft/session"
	"github.com/smallbiznis/flowdesk/internal/draft/store"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"github.com/smallbiznis/flowdesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("draft",
	fx.Provide(store.Provide),
	fx.Provide(NewEditor),
)

type EditorParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Store     domain.Store
	Invoices  invoicedomain.Service
	Clock     clock.Clock
	Log       *zap.Logger
	Metrics   *metrics.EditorMetrics `optional:"true"`
}

func NewEditor(p EditorParams) *session.Editor {
	editor := session.NewEditor(session.Options{
		Store:    p.Store,
		Codec:    codec.Codec{Compress: p.Config.Draft.Compress},
		Invoices: p.Invoices,
		Clock:    p.Clock,
		Log:      p.Log,
		Metrics:  p.Metrics,
		Debounce: p.Config.Draft.Debounce,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			editor.Close()
			return nil
		},
	})
	return editor
}
