package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseFile represents a document uploaded against a case (typically the
// PDF handed to the assistive session for summarization)
type CaseFile struct {
	ID          uuid.UUID `json:"id"`
	CaseID      uuid.UUID `json:"case_id"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}
