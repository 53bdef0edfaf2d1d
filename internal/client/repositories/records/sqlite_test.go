package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/enclavechat/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE records (
  id TEXT PRIMARY KEY,
  created_at INTEGER NOT NULL,
  payload TEXT NOT NULL,
  iv TEXT NOT NULL DEFAULT '',
  salt TEXT NOT NULL DEFAULT '',
  version INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	return db
}

func TestPut_InsertAndOverwrite(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	createdAt := time.UnixMilli(1700000000000)
	rec := &models.EncryptedRecord{
		ID:        "id1",
		CreatedAt: createdAt,
		Payload:   "cGF5bG9hZDE=",
		IV:        "aXYx",
		Salt:      "c2FsdDE=",
		Version:   1,
	}
	require.NoError(t, r.Put(ctx, rec))

	// overwrite under the same id
	rec2 := &models.EncryptedRecord{
		ID:        "id1",
		CreatedAt: createdAt,
		Payload:   "cGF5bG9hZDI=",
		IV:        "aXYy",
		Salt:      "c2FsdDI=",
		Version:   1,
	}
	require.NoError(t, r.Put(ctx, rec2))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "save must overwrite, not append")
	assert.Equal(t, "cGF5bG9hZDI=", all[0].Payload)
	assert.Equal(t, "aXYy", all[0].IV)
	assert.Equal(t, createdAt, all[0].CreatedAt)
}

func TestGetAll_Empty(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	all, err := r.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, &models.EncryptedRecord{ID: "id1", CreatedAt: time.Now(), Payload: "x", Version: 1}))
	require.NoError(t, r.Put(ctx, &models.EncryptedRecord{ID: "id2", CreatedAt: time.Now(), Payload: "y", Version: 1}))

	require.NoError(t, r.Delete(ctx, "id1"))
	// deleting a missing id is not an error
	require.NoError(t, r.Delete(ctx, "id1"))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "id2", all[0].ID)
}

func TestDeleteBatch(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	for _, id := range []string{"id1", "id2", "id3"} {
		require.NoError(t, r.Put(ctx, &models.EncryptedRecord{ID: id, CreatedAt: time.Now(), Payload: "x", Version: 1}))
	}

	require.NoError(t, r.DeleteBatch(ctx, []string{"id1", "id3"}))
	// empty batch is a no-op
	require.NoError(t, r.DeleteBatch(ctx, nil))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "id2", all[0].ID)
}

func TestDeleteAll(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, &models.EncryptedRecord{ID: "id1", CreatedAt: time.Now(), Payload: "x", Version: 1}))
	require.NoError(t, r.Put(ctx, &models.EncryptedRecord{ID: "id2", CreatedAt: time.Now(), Payload: "y", Version: 1}))

	require.NoError(t, r.DeleteAll(ctx))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
