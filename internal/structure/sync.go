package structure

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/orientavida/assess-cli/internal/model"
)

// Source is the fetch half of the persistence collaborator.
type Source interface {
	FetchStructure(ctx context.Context, testID string) (*model.Structure, error)
}

// SyncAgent is the single write path into a Store. It never merges: every
// reload discards the local tree and replaces it with the authoritative
// fetch. One extra round trip per mutation buys the dense-position
// invariant directly from the source.
type SyncAgent struct {
	src   Source
	store *Store
}

// NewSyncAgent builds an agent that refreshes store from src.
func NewSyncAgent(src Source, store *Store) *SyncAgent {
	return &SyncAgent{src: src, store: store}
}

// Reload fetches the complete structure for the Test and replaces the
// store's state. Invariant violations in the fetched tree are logged and
// kept as findings; they do not fail the reload.
func (a *SyncAgent) Reload(ctx context.Context, testID string) error {
	tree, err := a.src.FetchStructure(ctx, testID)
	if err != nil {
		return eris.Wrapf(err, "sync: fetch structure for test %s", testID)
	}
	a.store.Load(tree)

	if findings := a.store.Findings(); len(findings) > 0 {
		details := make([]string, len(findings))
		for i, f := range findings {
			details[i] = f.String()
		}
		zap.L().Warn("sync: reloaded structure is inconsistent",
			zap.String("test_id", testID),
			zap.Strings("findings", details),
		)
	}
	return nil
}
