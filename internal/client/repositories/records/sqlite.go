package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/enclavechat/internal/client/models"
	"github.com/dmitrijs2005/enclavechat/internal/dbx"
)

// SQLiteRepository implements Repository over a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Put upserts a record by id. A later save strictly overwrites an
// earlier one; the vault relies on this last-write-wins behavior.
func (r *SQLiteRepository) Put(ctx context.Context, rec *models.EncryptedRecord) error {
	query := ` INSERT INTO records (id, created_at, payload, iv, salt, version)
			values (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at,
				payload = excluded.payload,
				iv = excluded.iv,
				salt = excluded.salt,
				version = excluded.version
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.CreatedAt.UnixMilli(), rec.Payload, rec.IV, rec.Salt, rec.Version)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// GetAll lists every stored record.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.EncryptedRecord, error) {
	query := `select id, created_at, payload, iv, salt, version from records`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []models.EncryptedRecord
	for rows.Next() {
		var item models.EncryptedRecord
		var createdAt int64
		if err := rows.Scan(&item.ID, &createdAt, &item.Payload, &item.IV, &item.Salt, &item.Version); err != nil {
			return nil, err
		}
		item.CreatedAt = time.UnixMilli(createdAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a record unconditionally. No passphrase is involved:
// deleting does not require decrypting.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.db, id)
}

// DeleteBatch removes the given records in one transaction.
func (r *SQLiteRepository) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, id := range ids {
			if err := deleteOne(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteAll removes every record.
func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `delete from records`); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

func deleteOne(ctx context.Context, db dbx.DBTX, id string) error {
	query := `delete from records where id=?`
	if _, err := db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
