package model

import "time"

// Document is a signed artifact record. Content bytes live in object storage under
// StoragePath; everything here is immutable once the record is created.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID          string    `json:"document_id"`
	Name        string    `json:"document_name"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"-"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PageCount   int       `json:"page_count"`
	Fingerprint string    `json:"fingerprint"`
	Signature   []byte    `json:"-"`
	PublicKey   []byte    `json:"-"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}
