package db

import "time"

// SealRecordModel is the durable trace of one issued seal. Identifiers and
// digests only: evidence bytes and key material are never written here.
type SealRecordModel struct {
	ID                string    `gorm:"type:uuid;primaryKey"`
	DeviceFingerprint string    `gorm:"index;not null"`
	DocumentDigest    string    `gorm:"not null"`
	PageCount         int       `gorm:"not null"`
	EvidenceCount     int       `gorm:"not null"`
	SealedAt          time.Time `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
}

func (SealRecordModel) TableName() string {
	return "seal_records"
}
