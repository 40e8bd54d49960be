package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Liamhigh/Verumlast/internal/config"
	"github.com/Liamhigh/Verumlast/internal/domain"
)

// Integration tests run only against a real database:
//
//	TEST_POSTGRES_DSN="host=localhost user=verum ..." go test ./internal/infra/db/
func testRepo(t *testing.T) *SealRecordRepository {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	store, err := NewStore(config.Config{PostgresDSN: dsn})
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate())
	return NewSealRecordRepository(store.DB)
}

func testRecord(fingerprint string) domain.SealRecord {
	return domain.SealRecord{
		ManifestID:        uuid.NewString(),
		DeviceFingerprint: fingerprint,
		DocumentDigest:    fmt.Sprintf("%0128x", time.Now().UnixNano()),
		PageCount:         3,
		EvidenceCount:     2,
		SealedAtUTC:       time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
	}
}

func TestSealRecordRepository_CreateAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	record := testRecord("fp-create-get")

	require.NoError(t, repo.Create(ctx, record))

	got, err := repo.GetByManifestID(ctx, record.ManifestID)
	require.NoError(t, err)
	require.Equal(t, record, *got)
}

func TestSealRecordRepository_CreateIsIdempotent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	record := testRecord("fp-idempotent")

	require.NoError(t, repo.Create(ctx, record))
	require.NoError(t, repo.Create(ctx, record))
}

func TestSealRecordRepository_GetMissingIsNotFound(t *testing.T) {
	repo := testRepo(t)
	_, err := repo.GetByManifestID(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSealRecordRepository_ListByFingerprint(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	fingerprint := "fp-list-" + uuid.NewString()

	for i := 0; i < 3; i++ {
		record := testRecord(fingerprint)
		record.SealedAtUTC = time.Now().UTC().Add(time.Duration(i) * time.Minute).Truncate(time.Second).Format(time.RFC3339)
		require.NoError(t, repo.Create(ctx, record))
	}

	records, err := repo.ListByFingerprint(ctx, fingerprint, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// Newest first.
	require.True(t, records[0].SealedAtUTC >= records[1].SealedAtUTC)
	require.True(t, records[1].SealedAtUTC >= records[2].SealedAtUTC)
}

func TestSealRecordRepository_NilDBFailsFast(t *testing.T) {
	repo := NewSealRecordRepository(nil)
	ctx := context.Background()

	require.Error(t, repo.Create(ctx, testRecord("fp-nil")))
	_, err := repo.GetByManifestID(ctx, uuid.NewString())
	require.Error(t, err)
	_, err = repo.ListByFingerprint(ctx, "fp", 10)
	require.Error(t, err)
}
