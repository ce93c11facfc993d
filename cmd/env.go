package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/trailbeacon/sheltermap/internal/store"
)

// openStore builds the configured persistence driver, migrates it, and
// loads the POI store from it. The caller owns closing the returned
// persistence.
func openStore(ctx context.Context) (*store.Store, store.Persistence, error) {
	var pers store.Persistence

	switch cfg.Store.Driver {
	case "postgres":
		p, err := store.NewPostgresPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "cmd: connect postgres")
		}
		if err := p.Migrate(ctx); err != nil {
			p.Close()
			return nil, nil, eris.Wrap(err, "cmd: migrate postgres")
		}
		pers = p
	default:
		p, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, eris.Wrap(err, "cmd: open sqlite")
		}
		if err := p.Migrate(ctx); err != nil {
			p.Close()
			return nil, nil, eris.Wrap(err, "cmd: migrate sqlite")
		}
		pers = p
	}

	s := store.New(pers, cfg.Store.Key)
	s.Load(ctx)
	return s, pers, nil
}
