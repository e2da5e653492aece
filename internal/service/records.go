package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"cardioscan-server/internal/auth"
	"cardioscan-server/internal/inference"
	"cardioscan-server/internal/models"
	"cardioscan-server/internal/storage"
	"cardioscan-server/internal/store"
)

// Principal is an authenticated caller.
type Principal struct {
	Username string
	Role     models.Role
}

// ArtifactKind selects which of a record's two files to fetch.
type ArtifactKind int

const (
	ArtifactPrimary ArtifactKind = iota // uploaded audio
	ArtifactDerived                     // spectrogram image
)

// UploadResult is returned from a successful upload.
type UploadResult struct {
	ID        uint   `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	Label     string `json:"inference"`
}

// RecordService orchestrates authentication, authorization, persistence and
// artifact handling for analysis records. Handlers that already hold an
// authenticated Principal (token auth) call the *As methods; the
// credential-taking methods authenticate first and then delegate.
type RecordService struct {
	authorizer  *auth.Authorizer
	credentials *store.CredentialStore
	records     *store.RecordStore
	artifacts   *storage.ArtifactManager
	classifier  inference.Classifier
	logger      *slog.Logger

	now func() time.Time
}

// NewRecordService creates a new RecordService.
func NewRecordService(
	authorizer *auth.Authorizer,
	credentials *store.CredentialStore,
	records *store.RecordStore,
	artifacts *storage.ArtifactManager,
	classifier inference.Classifier,
	logger *slog.Logger,
) *RecordService {
	return &RecordService{
		authorizer:  authorizer,
		credentials: credentials,
		records:     records,
		artifacts:   artifacts,
		classifier:  classifier,
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates a new user. The role defaults to patient when empty.
func (s *RecordService) Register(ctx context.Context, username, password string, role models.Role) error {
	if role == "" {
		role = models.RolePatient
	}
	if username == "" || password == "" || !models.ValidRole(role) {
		return ErrValidation
	}
	if _, err := s.credentials.Create(ctx, username, password, role); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return ErrDuplicateUsername
		}
		return s.internal(ctx, "creating credential", err)
	}
	return nil
}

// Login authenticates the caller and returns the principal, for the HTTP tier
// to mint a session token from.
func (s *RecordService) Login(ctx context.Context, username, password string) (Principal, error) {
	return s.authenticate(ctx, username, password)
}

// Upload authenticates, stores the audio, classifies it and inserts the
// record. If classification fails no record becomes visible; the stored audio
// is left behind as an orphan and logged.
func (s *RecordService) Upload(ctx context.Context, username, password, patientName string, audio []byte) (*UploadResult, error) {
	p, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.UploadAs(ctx, p, patientName, audio)
}

// UploadAs is Upload for an already authenticated caller.
func (s *RecordService) UploadAs(ctx context.Context, p Principal, patientName string, audio []byte) (*UploadResult, error) {
	if len(audio) == 0 || patientName == "" {
		return nil, ErrValidation
	}

	cred, err := s.credentials.Lookup(ctx, p.Username)
	if err != nil {
		return nil, s.internal(ctx, "looking up uploader", err)
	}

	createdAt := s.now().Unix()
	artifactPath, err := s.artifacts.Store(cred.StorageFolder, createdAt, audio, ".wav")
	if err != nil {
		return nil, s.internal(ctx, "storing audio", err)
	}

	label, spectrogram, err := s.classifier.Classify(ctx, audio)
	if err != nil {
		// The audio file is orphaned here; the record row was never
		// inserted so the failure is invisible to readers.
		s.logger.ErrorContext(ctx, "classification failed, audio orphaned",
			"artifact", artifactPath, "error", err)
		return nil, ErrInternal
	}
	if _, err := s.artifacts.StoreDerived(artifactPath, spectrogram); err != nil {
		return nil, s.internal(ctx, "storing spectrogram", err)
	}

	id, err := s.records.Insert(ctx, p.Username, createdAt, artifactPath, label, patientName)
	if err != nil {
		return nil, s.internal(ctx, "inserting record", err)
	}
	return &UploadResult{ID: id, CreatedAt: createdAt, Label: label}, nil
}

// ViewDetails authenticates and returns a single record the caller may read.
func (s *RecordService) ViewDetails(ctx context.Context, username, password string, id uint) (*models.AnalysisRecord, error) {
	p, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.ViewDetailsAs(ctx, p, id)
}

// ViewDetailsAs is ViewDetails for an already authenticated caller.
func (s *RecordService) ViewDetailsAs(ctx context.Context, p Principal, id uint) (*models.AnalysisRecord, error) {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authorizer.CanViewRecord(p.Username, p.Role, rec.OwnerUsername) {
		return nil, ErrUnauthorized
	}
	return rec, nil
}

// ListHistory authenticates and returns the caller's own records, newest
// first. Doctors see only their own uploads here even though they may view
// any individual record by id.
func (s *RecordService) ListHistory(ctx context.Context, username, password string) ([]models.HistoryEntry, error) {
	p, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.ListHistoryAs(ctx, p)
}

// ListHistoryAs is ListHistory for an already authenticated caller.
func (s *RecordService) ListHistoryAs(ctx context.Context, p Principal) ([]models.HistoryEntry, error) {
	entries, err := s.records.ListByOwner(ctx, p.Username)
	if err != nil {
		return nil, s.internal(ctx, "listing history", err)
	}
	return entries, nil
}

// UpdateNotes authenticates and sets clinician notes on a record. Only a
// doctor who owns the record may annotate it.
func (s *RecordService) UpdateNotes(ctx context.Context, username, password string, id uint, notes string) error {
	p, err := s.authenticate(ctx, username, password)
	if err != nil {
		return err
	}
	return s.UpdateNotesAs(ctx, p, id, notes)
}

// UpdateNotesAs is UpdateNotes for an already authenticated caller.
func (s *RecordService) UpdateNotesAs(ctx context.Context, p Principal, id uint, notes string) error {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if !s.authorizer.CanUpdateNotes(p.Username, p.Role, rec.OwnerUsername) {
		return ErrUnauthorized
	}
	if err := s.records.UpdateNotes(ctx, id, notes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return s.internal(ctx, "updating notes", err)
	}
	return nil
}

// DeleteRecord authenticates and deletes a record the caller owns, then
// removes its artifacts. The row delete is the commit point; artifact cleanup
// is best-effort and never rolls the delete back.
func (s *RecordService) DeleteRecord(ctx context.Context, username, password string, id uint) error {
	p, err := s.authenticate(ctx, username, password)
	if err != nil {
		return err
	}
	return s.DeleteRecordAs(ctx, p, id)
}

// DeleteRecordAs is DeleteRecord for an already authenticated caller.
func (s *RecordService) DeleteRecordAs(ctx context.Context, p Principal, id uint) error {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if !s.authorizer.CanDeleteRecord(p.Username, rec.OwnerUsername) {
		return ErrUnauthorized
	}

	artifactPath, err := s.records.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return s.internal(ctx, "deleting record", err)
	}

	if err := s.artifacts.Remove(artifactPath); err != nil {
		s.logger.WarnContext(ctx, "record deleted but artifact cleanup failed",
			"record", id, "artifact", artifactPath, "error", err)
	}
	return nil
}

// FetchArtifact authenticates and streams one of a record's files.
func (s *RecordService) FetchArtifact(ctx context.Context, username, password string, id uint, kind ArtifactKind) (io.ReadCloser, error) {
	p, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.FetchArtifactAs(ctx, p, id, kind)
}

// FetchArtifactAs is FetchArtifact for an already authenticated caller.
func (s *RecordService) FetchArtifactAs(ctx context.Context, p Principal, id uint, kind ArtifactKind) (io.ReadCloser, error) {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authorizer.CanViewRecord(p.Username, p.Role, rec.OwnerUsername) {
		return nil, ErrUnauthorized
	}

	path := rec.ArtifactPath
	if kind == ArtifactDerived {
		path = storage.DerivedPath(rec.ArtifactPath)
	}
	r, err := s.artifacts.Read(path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.internal(ctx, "reading artifact", err)
	}
	return r, nil
}

func (s *RecordService) authenticate(ctx context.Context, username, password string) (Principal, error) {
	role, err := s.authorizer.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, s.internal(ctx, "authenticating", err)
	}
	return Principal{Username: username, Role: role}, nil
}

func (s *RecordService) getRecord(ctx context.Context, id uint) (*models.AnalysisRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.internal(ctx, "fetching record", err)
	}
	return rec, nil
}

// internal logs the real cause and returns the generic failure so no driver
// or filesystem detail crosses the service boundary.
func (s *RecordService) internal(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg, "error", err)
	return ErrInternal
}
