package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS invoices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	vendor TEXT NOT NULL,
	date TEXT NOT NULL,
	total TEXT NOT NULL,
	extracted_text TEXT NOT NULL,
	stored_file TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT '',
	uploaded_at TEXT NOT NULL
)`

const selectColumns = `id, filename, vendor, date, total, extracted_text, stored_file, content_type, uploaded_at`

// SQLiteDB implements the DB interface on a SQLite file. Every operation
// borrows a single connection and hands it back when the operation returns.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the SQLite database at path and ensures
// the invoices table exists
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" databases consistent across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteDB{db: db}
	err = s.withConn(context.Background(), func(conn *sql.Conn) error {
		_, err := conn.ExecContext(context.Background(), sqliteSchema)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating invoices table: %w", err)
	}

	return s, nil
}

// withConn acquires a connection, runs fn and always releases it
func (s *SQLiteDB) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// SaveInvoice inserts inv, or replaces the existing row when inv.ID is set
func (s *SQLiteDB) SaveInvoice(ctx context.Context, inv *Invoice) error {
	createdAt := inv.CreatedAt.UTC().Format(time.RFC3339Nano)

	return s.withConn(ctx, func(conn *sql.Conn) error {
		if inv.ID != 0 {
			_, err := conn.ExecContext(ctx,
				`INSERT OR REPLACE INTO invoices (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				inv.ID, inv.Filename, inv.Vendor, inv.Date, inv.Total, inv.ExtractedText, inv.StoredFile, inv.ContentType, createdAt,
			)
			if err != nil {
				return fmt.Errorf("replacing invoice: %w", err)
			}
			return nil
		}

		res, err := conn.ExecContext(ctx,
			`INSERT INTO invoices (filename, vendor, date, total, extracted_text, stored_file, content_type, uploaded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.Filename, inv.Vendor, inv.Date, inv.Total, inv.ExtractedText, inv.StoredFile, inv.ContentType, createdAt,
		)
		if err != nil {
			return fmt.Errorf("inserting invoice: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading inserted id: %w", err)
		}
		inv.ID = uint64(id)
		return nil
	})
}

// GetInvoice retrieves an invoice by ID
func (s *SQLiteDB) GetInvoice(ctx context.Context, id uint64) (*Invoice, error) {
	var inv *Invoice
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM invoices WHERE id = ?`, id)

		var err error
		inv, err = scanInvoice(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoices returns all invoices ordered by ID
func (s *SQLiteDB) ListInvoices(ctx context.Context) ([]*Invoice, error) {
	invoices := make([]*Invoice, 0)
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT `+selectColumns+` FROM invoices ORDER BY id`)
		if err != nil {
			return fmt.Errorf("querying invoices: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			inv, err := scanInvoice(rows)
			if err != nil {
				return err
			}
			invoices = append(invoices, inv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// DeleteInvoice removes an invoice
func (s *SQLiteDB) DeleteInvoice(ctx context.Context, id uint64) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting invoice: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reading affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil
	})
}

// Close closes the underlying pool
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var (
		inv       Invoice
		createdAt string
	)
	err := row.Scan(&inv.ID, &inv.Filename, &inv.Vendor, &inv.Date, &inv.Total,
		&inv.ExtractedText, &inv.StoredFile, &inv.ContentType, &createdAt)
	if err != nil {
		return nil, err
	}

	inv.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing uploaded_at %q: %w", createdAt, err)
	}
	return &inv, nil
}
