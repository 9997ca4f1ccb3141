package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/orientavida/assess-cli/internal/authoring"
	"github.com/orientavida/assess-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "assess.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initSession opens the store, runs migrations and starts an authoring
// session on the given test with a fresh view.
func initSession(ctx context.Context, testID string) (*authoring.Session, store.Store, error) {
	if testID == "" {
		return nil, nil, eris.New("--test is required")
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}
	sess := authoring.NewSession(st, testID)
	if err := sess.Refresh(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, eris.Wrap(err, "load test structure")
	}
	return sess, st, nil
}
