package storage

// Repository defines the persistence operations for receipt history.
type Repository interface {
	SaveReceipt(record *ReceiptRecord) error
	GetReceipt(id string) (*ReceiptRecord, error)
	ListReceipts(limit int) ([]ReceiptRecord, error)
	GetStats() (*Stats, error)
	Close() error
}
