package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Liamhigh/Verumlast/internal/domain"
)

type SealRecordRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSealRecordRepository(db *gorm.DB) *SealRecordRepository {
	return &SealRecordRepository{db: db, now: time.Now}
}

func (r *SealRecordRepository) Create(ctx context.Context, record domain.SealRecord) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if record.ManifestID == "" {
		return errors.New("manifest_id is required")
	}
	sealedAt, err := time.Parse(time.RFC3339, record.SealedAtUTC)
	if err != nil {
		return err
	}
	model := SealRecordModel{
		ID:                record.ManifestID,
		DeviceFingerprint: record.DeviceFingerprint,
		DocumentDigest:    record.DocumentDigest,
		PageCount:         record.PageCount,
		EvidenceCount:     record.EvidenceCount,
		SealedAt:          sealedAt.UTC(),
		CreatedAt:         r.now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

func (r *SealRecordRepository) GetByManifestID(ctx context.Context, manifestID string) (*domain.SealRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model SealRecordModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", manifestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record := toDomain(model)
	return &record, nil
}

func (r *SealRecordRepository) ListByFingerprint(ctx context.Context, fingerprint string, limit int) ([]domain.SealRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var models []SealRecordModel
	err := r.db.WithContext(ctx).
		Where("device_fingerprint = ?", fingerprint).
		Order("sealed_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	records := make([]domain.SealRecord, 0, len(models))
	for _, model := range models {
		records = append(records, toDomain(model))
	}
	return records, nil
}

func toDomain(model SealRecordModel) domain.SealRecord {
	return domain.SealRecord{
		ManifestID:        model.ID,
		DeviceFingerprint: model.DeviceFingerprint,
		DocumentDigest:    model.DocumentDigest,
		PageCount:         model.PageCount,
		EvidenceCount:     model.EvidenceCount,
		SealedAtUTC:       model.SealedAt.UTC().Format(time.RFC3339),
	}
}
