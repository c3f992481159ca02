package invoice

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "invoices"

// DB defines the interface for invoice persistence
type DB interface {
	// SaveInvoice stores an invoice, assigning a new ID when inv.ID is zero
	SaveInvoice(ctx context.Context, inv *Invoice) error

	// GetInvoice retrieves an invoice by ID
	GetInvoice(ctx context.Context, id uint64) (*Invoice, error)

	// ListInvoices returns all invoices ordered by ID
	ListInvoices(ctx context.Context) ([]*Invoice, error)

	// DeleteInvoice removes an invoice
	DeleteInvoice(ctx context.Context, id uint64) error

	// Close closes the database
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens (or creates) a BoltDB file at path
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// itob encodes id big-endian so keys iterate in ID order
func itob(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

// SaveInvoice saves an invoice to the database
func (b *BoltDB) SaveInvoice(ctx context.Context, inv *Invoice) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if inv.ID == 0 {
			id, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("allocating id: %w", err)
			}
			inv.ID = id
		} else if inv.ID > bucket.Sequence() {
			if err := bucket.SetSequence(inv.ID); err != nil {
				return fmt.Errorf("advancing sequence: %w", err)
			}
		}

		data, err := json.Marshal(inv)
		if err != nil {
			return fmt.Errorf("marshaling invoice: %w", err)
		}
		return bucket.Put(itob(inv.ID), data)
	})
}

// GetInvoice retrieves an invoice by ID
func (b *BoltDB) GetInvoice(ctx context.Context, id uint64) (*Invoice, error) {
	var inv *Invoice
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get(itob(id))
		if data == nil {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return json.Unmarshal(data, &inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoices returns all invoices
func (b *BoltDB) ListInvoices(ctx context.Context) ([]*Invoice, error) {
	invoices := make([]*Invoice, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var inv Invoice
			if err := json.Unmarshal(v, &inv); err != nil {
				return fmt.Errorf("unmarshaling invoice: %w", err)
			}
			invoices = append(invoices, &inv)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// DeleteInvoice removes an invoice from the database
func (b *BoltDB) DeleteInvoice(ctx context.Context, id uint64) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket.Get(itob(id)) == nil {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return bucket.Delete(itob(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// OpenDB opens the record store named by driver ("bolt" or "sqlite")
func OpenDB(driver, path string) (DB, error) {
	var (
		db  DB
		err error
	)
	switch driver {
	case "", "bolt":
		db, err = NewBoltDB(path)
	case "sqlite":
		db, err = NewSQLiteDB(path)
	default:
		return nil, fmt.Errorf("unknown database driver %q (want bolt or sqlite)", driver)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}
