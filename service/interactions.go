package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/interaction"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/metrics"
	"github.com/rushteam/schemekit/recall"
)

// InteractionService 校验并记录隐式反馈事件。
type InteractionService struct {
	store   core.InteractionStore
	catalog recall.IndexProvider
	logger  *zap.Logger
}

// NewInteractionService 创建服务；catalog 可为空，为空时不校验 scheme 是否存在。
func NewInteractionService(store core.InteractionStore, catalog recall.IndexProvider, logger *zap.Logger) *InteractionService {
	return &InteractionService{store: store, catalog: catalog, logger: logging.OrNop(logger)}
}

// Record 写入一次事件并返回写入后的行。
func (s *InteractionService) Record(ctx context.Context, userID, schemeID int64, kind string) (core.Interaction, error) {
	if userID <= 0 {
		return core.Interaction{}, core.ErrMissingUser
	}
	k, err := interaction.ParseEventKind(kind)
	if err != nil {
		return core.Interaction{}, err
	}
	if s.catalog != nil {
		if _, err := s.catalog.Index().Get(schemeID); err != nil {
			return core.Interaction{}, err
		}
	}
	row, err := s.store.Record(ctx, userID, schemeID, k)
	if err != nil {
		s.logger.Error("record interaction failed",
			zap.Int64("user_id", userID),
			zap.Int64("scheme_id", schemeID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return core.Interaction{}, fmt.Errorf("record %s: %w", k, err)
	}
	metrics.InteractionEvents.WithLabelValues(string(k), s.store.Name()).Inc()
	return row, nil
}

// History 返回用户的全部交互。
func (s *InteractionService) History(ctx context.Context, userID int64) ([]core.Interaction, error) {
	if userID <= 0 {
		return nil, core.ErrMissingUser
	}
	return s.store.InteractionsFor(ctx, userID)
}
