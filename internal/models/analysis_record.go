package models

// AnalysisRecord represents one uploaded heart-sound recording together with
// its classification result. The audio file and its spectrogram image live on
// disk under the storage root; ArtifactPath is relative to that root.
type AnalysisRecord struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerUsername  string  `gorm:"size:255;index;not null" json:"-"`
	CreatedAt      int64   `gorm:"not null" json:"createdAt"` // seconds since epoch
	ArtifactPath   string  `gorm:"uniqueIndex;size:512;not null" json:"filePath"`
	InferenceLabel string  `gorm:"size:100;not null" json:"inference"`
	PatientName    string  `gorm:"size:255;not null" json:"patientName"`
	ClinicianNotes *string `gorm:"type:text" json:"doctorNotes,omitempty"`

	// Relations
	Owner Credential `gorm:"foreignKey:OwnerUsername;references:Username" json:"-"`
}

// HistoryEntry is the slim row returned when listing a user's records.
type HistoryEntry struct {
	ID          uint   `json:"id"`
	PatientName string `json:"patientName"`
	CreatedAt   int64  `json:"createdAt"`
}
