package archive

import (
	"context"
	"fmt"

	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mirror writes the same document to every configured destination.
type Mirror struct {
	stores []Storage
	logger *zap.Logger
}

// NewMirror creates a mirror over stores.
func NewMirror(logger *zap.Logger, stores ...Storage) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{stores: stores, logger: logger}
}

// Stores returns the mirrored destinations.
func (m *Mirror) Stores() []Storage {
	return m.stores
}

// Publish writes data to every destination concurrently. Every write is
// attempted; the first failure is returned as STORAGE_FAILED.
func (m *Mirror) Publish(ctx context.Context, path string, data []byte) error {
	if len(m.stores) == 0 {
		return core.Errorf(core.ErrConfigMissing, "no storage destinations configured")
	}

	var g errgroup.Group
	for _, s := range m.stores {
		g.Go(func() error {
			if err := s.Write(ctx, path, data); err != nil {
				m.logger.Error("snapshot write failed",
					zap.String("store", s.Name()),
					zap.String("path", path),
					zap.Error(err),
				)
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			m.logger.Debug("snapshot written",
				zap.String("store", s.Name()),
				zap.String("path", path),
				zap.Int("bytes", len(data)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}
