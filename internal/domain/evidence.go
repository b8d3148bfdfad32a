package domain

import "time"

// Evidence is a supporting document attached to exactly one listing.
type Evidence struct {
	ID          string
	ListingID   string
	OwnerID     string
	Type        EvidenceType
	Name        string
	StoragePath string
	Content     string
	Summary     string
	Verified    bool
	UploadedAt  time.Time
}
