package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/jacentio/entrymodel/model"
)

// Logger returns a callback that writes one debug line per event.
func Logger(logger *zap.Logger) model.Callback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, ev model.Event) error {
		logger.Debug("entry operation",
			zap.String("model", ev.ModelName),
			zap.String("table", ev.TableName),
			zap.String("action", string(ev.ActionType)),
			zap.String("id", ev.ID),
		)
		return nil
	}
}
