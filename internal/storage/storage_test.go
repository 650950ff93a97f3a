package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchford/receipt-relay/internal/receipt"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "receipts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(id string) *ReceiptRecord {
	return &ReceiptRecord{
		ID:            id,
		StoreName:     "HEB",
		Date:          "11/26/25",
		Source:        "telegram",
		OriginalTotal: 449,
		Forwarded:     true,
		Categories: map[string]*receipt.CategoryBreakdown{
			"groceries": {
				Items:    []receipt.Item{{Name: "Milk", Price: 399}},
				Subtotal: 399,
				Tax:      50,
				Total:    449,
			},
		},
	}
}

func TestStorage_SaveAndGetReceipt(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SaveReceipt(sampleRecord("r-1")))

	got, err := s.GetReceipt("r-1")
	require.NoError(t, err)
	assert.Equal(t, "HEB", got.StoreName)
	assert.Equal(t, "11/26/25", got.Date)
	assert.Equal(t, int64(449), got.OriginalTotal)
	assert.True(t, got.Forwarded)
	require.Contains(t, got.Categories, "groceries")
	assert.Equal(t, int64(449), got.Categories["groceries"].Total)
	require.Len(t, got.Categories["groceries"].Items, 1)
	assert.Equal(t, "Milk", got.Categories["groceries"].Items[0].Name)
}

func TestStorage_GetReceiptNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetReceipt("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStorage_SaveReceiptWithCredit(t *testing.T) {
	s := newTestStorage(t)

	record := sampleRecord("r-credit")
	record.CreditAmount = 200
	record.CreditTarget = "groceries"
	require.NoError(t, s.SaveReceipt(record))

	got, err := s.GetReceipt("r-credit")
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.CreditAmount)
	assert.Equal(t, "groceries", got.CreditTarget)
}

func TestStorage_ListReceiptsNewestFirst(t *testing.T) {
	s := newTestStorage(t)

	older := sampleRecord("r-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := sampleRecord("r-new")
	newer.CreatedAt = time.Now().UTC()

	require.NoError(t, s.SaveReceipt(older))
	require.NoError(t, s.SaveReceipt(newer))

	records, err := s.ListReceipts(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "r-new", records[0].ID)
	assert.Equal(t, "r-old", records[1].ID)
}

func TestStorage_ListReceiptsLimit(t *testing.T) {
	s := newTestStorage(t)

	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		record := sampleRecord(id)
		record.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveReceipt(record))
	}

	records, err := s.ListReceipts(2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStorage_GetStats(t *testing.T) {
	s := newTestStorage(t)

	tg := sampleRecord("r-1")
	sms := sampleRecord("r-2")
	sms.Source = "sms"
	sms.OriginalTotal = 1000

	require.NoError(t, s.SaveReceipt(tg))
	require.NoError(t, s.SaveReceipt(sms))

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalReceipts)
	assert.Equal(t, int64(1449), stats.TotalCents)
	assert.Equal(t, int64(1), stats.BySource["telegram"])
	assert.Equal(t, int64(1), stats.BySource["sms"])
}

func TestStorage_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipts.db")

	s1, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, s1.SaveReceipt(sampleRecord("r-1")))
	require.NoError(t, s1.Close())

	// Reopening runs the migration check again without error or data loss.
	s2, err := NewStorage(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetReceipt("r-1")
	require.NoError(t, err)
	assert.Equal(t, "HEB", got.StoreName)
}
