package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/marchford/receipt-relay/internal/receipt"
)

// Storage provides SQLite-backed receipt history.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens (or creates) the SQLite database at dbPath and runs any
// pending migrations.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveReceipt inserts a confirmed receipt.
func (s *Storage) SaveReceipt(record *ReceiptRecord) error {
	categoriesJSON, err := json.Marshal(record.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO receipts
	(id, store_name, receipt_date, source, original_total,
	 credit_amount, credit_target, forwarded, categories_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		record.ID,
		record.StoreName,
		record.Date,
		record.Source,
		record.OriginalTotal,
		record.CreditAmount,
		record.CreditTarget,
		record.Forwarded,
		string(categoriesJSON),
		record.CreatedAt,
	)
	return err
}

// GetReceipt retrieves one receipt by ID.
func (s *Storage) GetReceipt(id string) (*ReceiptRecord, error) {
	query := `
	SELECT id, store_name, receipt_date, source, original_total,
	       credit_amount, credit_target, forwarded, categories_json, created_at
	FROM receipts WHERE id = ?
	`

	record := &ReceiptRecord{}
	err := s.db.QueryRow(query, id).Scan(
		&record.ID,
		&record.StoreName,
		&record.Date,
		&record.Source,
		&record.OriginalTotal,
		&record.CreditAmount,
		&record.CreditTarget,
		&record.Forwarded,
		&record.CategoriesJSON,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if record.CategoriesJSON != "" {
		if err := json.Unmarshal([]byte(record.CategoriesJSON), &record.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories for %s: %w", record.ID, err)
		}
	}
	return record, nil
}

// ListReceipts returns the most recent receipts, newest first.
func (s *Storage) ListReceipts(limit int) ([]ReceiptRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, store_name, receipt_date, source, original_total,
	       credit_amount, credit_target, forwarded, categories_json, created_at
	FROM receipts
	ORDER BY created_at DESC
	LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []ReceiptRecord
	for rows.Next() {
		var record ReceiptRecord
		err := rows.Scan(
			&record.ID,
			&record.StoreName,
			&record.Date,
			&record.Source,
			&record.OriginalTotal,
			&record.CreditAmount,
			&record.CreditTarget,
			&record.Forwarded,
			&record.CategoriesJSON,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if record.CategoriesJSON != "" {
			var categories map[string]*receipt.CategoryBreakdown
			if err := json.Unmarshal([]byte(record.CategoriesJSON), &categories); err == nil {
				record.Categories = categories
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetStats returns aggregate counts over the stored receipts.
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{BySource: make(map[string]int64)}

	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(original_total), 0) FROM receipts
	`).Scan(&stats.TotalReceipts, &stats.TotalCents)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT source, COUNT(*) FROM receipts GROUP BY source`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		stats.BySource[source] = count
	}
	return stats, rows.Err()
}
