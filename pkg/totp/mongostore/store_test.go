package mongostore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/dmitrymomot/totpauth/pkg/mongo"
	"github.com/dmitrymomot/totpauth/pkg/totp"
	"github.com/dmitrymomot/totpauth/pkg/totp/mongostore"
	"github.com/dmitrymomot/totpauth/pkg/totp/storetest"
)

func TestStore(t *testing.T) {
	storetest.RequireIntegration(t)
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := mongo.NewWithDatabase(ctx, mongo.Config{
		ConnectionURL: uri,
		Database:      "totp_test",
		MaxPoolSize:   20,
		RetryAttempts: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(context.Background()) })
	require.NoError(t, mongo.Healthcheck(db.Client())(ctx))

	store := mongostore.New(db)
	require.NoError(t, store.EnsureIndexes(ctx))
	require.NoError(t, store.EnsureIndexes(ctx))

	storetest.Run(t, func(*testing.T) totp.Store { return store })
}
