package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cardioscan-server/internal/models"
)

// RecordStore persists analysis records. It exclusively owns the
// analysis_records table; artifact files belong to the storage layer.
type RecordStore struct {
	DB *gorm.DB
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{DB: db}
}

// Insert persists a new record and returns its assigned id. Clinician notes
// start unset.
func (s *RecordStore) Insert(ctx context.Context, owner string, createdAt int64, artifactPath, inferenceLabel, patientName string) (uint, error) {
	rec := models.AnalysisRecord{
		OwnerUsername:  owner,
		CreatedAt:      createdAt,
		ArtifactPath:   artifactPath,
		InferenceLabel: inferenceLabel,
		PatientName:    patientName,
	}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, fmt.Errorf("inserting record: %w", err)
	}
	return rec.ID, nil
}

// GetByID fetches a single record by id.
func (s *RecordStore) GetByID(ctx context.Context, id uint) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	if err := s.DB.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching record %d: %w", id, err)
	}
	return &rec, nil
}

// ListByOwner returns the slim history rows for every record owned by owner,
// newest first.
func (s *RecordStore) ListByOwner(ctx context.Context, owner string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.DB.WithContext(ctx).
		Model(&models.AnalysisRecord{}).
		Select("id", "patient_name", "created_at").
		Where("owner_username = ?", owner).
		Order("created_at desc, id desc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing records for %s: %w", owner, err)
	}
	return entries, nil
}

// UpdateNotes sets the clinician notes on a record.
func (s *RecordStore) UpdateNotes(ctx context.Context, id uint, notes string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.AnalysisRecord
		if err := tx.First(&rec, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("fetching record %d: %w", id, err)
		}
		if err := tx.Model(&rec).Update("clinician_notes", notes).Error; err != nil {
			return fmt.Errorf("updating notes on record %d: %w", id, err)
		}
		return nil
	})
}

// Delete removes a record row and returns the artifact path it referenced so
// the caller can clean up the files. The row delete is the commit point; if
// it fails nothing is returned for cleanup.
func (s *RecordStore) Delete(ctx context.Context, id uint) (string, error) {
	var artifactPath string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.AnalysisRecord
		if err := tx.First(&rec, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("fetching record %d: %w", id, err)
		}
		if err := tx.Delete(&rec).Error; err != nil {
			return fmt.Errorf("deleting record %d: %w", id, err)
		}
		artifactPath = rec.ArtifactPath
		return nil
	})
	if err != nil {
		return "", err
	}
	return artifactPath, nil
}
