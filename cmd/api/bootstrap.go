package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bryanwahyu/heart-risk/internal/config"
	domain "github.com/bryanwahyu/heart-risk/internal/domain/predictions"
	mongostore "github.com/bryanwahyu/heart-risk/internal/infra/db/mongo"
	"github.com/bryanwahyu/heart-risk/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/heart-risk/internal/infra/model"
	"github.com/bryanwahyu/heart-risk/internal/infra/storage"
)

// loadModel fetches the artifact from object storage when one is
// configured, then loads it from disk. Any failure here is fatal.
func loadModel(ctx context.Context, c *config.Config) (*model.Pipeline, error) {
	if ms := c.ModelStore; ms.Endpoint != "" {
		store, err := storage.New(ms.Endpoint, ms.Region, ms.Bucket, ms.AccessKey, ms.SecretKey, ms.UseSSL)
		if err != nil {
			return nil, err
		}
		if err := store.FetchArtifact(ctx, ms.ObjectKey, c.Model.Path); err != nil {
			return nil, err
		}
		zap.L().Info("model artifact downloaded",
			zap.String("bucket", ms.Bucket),
			zap.String("key", ms.ObjectKey),
		)
	}

	p, err := model.Load(c.Model.Path)
	if err != nil {
		return nil, err
	}
	zap.L().Info("model loaded", zap.String("path", c.Model.Path))
	return p, nil
}

// errNoStoreURI means no store was configured; the service then runs
// without persistence.
var errNoStoreURI = eris.New("no store uri configured")

// openStore connects the configured prediction store. The returned close
// func releases the underlying client or pool.
func openStore(ctx context.Context, sc config.StoreConfig) (domain.Repository, func() error, error) {
	if sc.URI == "" {
		return nil, nil, errNoStoreURI
	}
	switch sc.Driver {
	case "mongo":
		client, err := mongostore.Connect(ctx, sc.URI)
		if err != nil {
			return nil, nil, err
		}
		repo := mongostore.NewPredictionRepository(client.Database(sc.Database).Collection(sc.Collection))
		return repo, func() error { return client.Disconnect(context.Background()) }, nil
	case sqlstore.DriverPostgres, sqlstore.DriverMySQL, sqlstore.DriverSQLite:
		db, err := sqlstore.Connect(ctx, sc.Driver, sc.URI)
		if err != nil {
			return nil, nil, err
		}
		repo, err := sqlstore.NewPredictionRepository(db, sc.Driver)
		if err != nil {
			db.Close() //nolint:errcheck
			return nil, nil, err
		}
		return repo, db.Close, nil
	default:
		return nil, nil, eris.Errorf("unsupported store driver %q", sc.Driver)
	}
}
