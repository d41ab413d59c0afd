package repository

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/debemdeboas/spawnwrite/internal/db"
	"github.com/debemdeboas/spawnwrite/internal/util/compression"
)

func newTestDb(t *testing.T) db.Db {
	t.Helper()
	quiet := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(quiet)
	db.SetLogger(quiet)

	d := db.NewSQLite(":memory:")
	require.NoError(t, d.InitDb())
	t.Cleanup(func() { d.Close() })
	require.NoError(t, db.Migrate(context.Background(), d))
	return d
}

func newTestPostRepository(t *testing.T) *DBPostRepository {
	t.Helper()
	c, err := compression.New(compression.Zstd)
	require.NoError(t, err)
	return NewDBPostRepository(newTestDb(t), c, nil)
}
