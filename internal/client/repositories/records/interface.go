// Package records provides the persistent key-value substrate for
// encrypted conversation records, backed by a local SQLite database.
package records

import (
	"context"

	"github.com/dmitrijs2005/enclavechat/internal/client/models"
)

// Repository describes put/get-all/delete operations keyed by record id,
// durable across process restarts. The vault is its only consumer.
type Repository interface {
	// Put inserts a record or overwrites the existing one with the same id.
	Put(ctx context.Context, r *models.EncryptedRecord) error

	// GetAll returns every stored record in unspecified order.
	GetAll(ctx context.Context) ([]models.EncryptedRecord, error)

	// Delete removes a record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteBatch removes the given records atomically: either every id
	// is gone afterwards or none is.
	DeleteBatch(ctx context.Context, ids []string) error

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error
}
