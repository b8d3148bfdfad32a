package domain

import (
	"math"
	"time"
)

// Listing is a parcel of land offered for sale.
type Listing struct {
	ID                    string
	OwnerID               string
	Title                 string
	Description           string
	Location              string
	County                string
	Price                 int64
	Area                  float64
	Size                  string
	LandType              string
	Latitude              float64
	Longitude             float64
	IsApproximateLocation bool
	Images                []Image
	Status                ListingStatus
	Badge                 Badge
	BadgeSuggestion       *BadgeSuggestion
	ImageAnalysis         *ImageAnalysis
	Evidence              []Evidence
	CreatedAt             time.Time
	UpdatedAt             time.Time
	AdminReviewedAt       *time.Time
}

// Image references an uploaded photo in blob storage.
type Image struct {
	URL  string
	Hint string
}

// BadgeSuggestion is advisory. It never replaces Listing.Badge on its own.
type BadgeSuggestion struct {
	Badge  Badge
	Reason string
}

// ImageAnalysis is the model's risk signal for a listing's documents.
type ImageAnalysis struct {
	IsSuspicious bool
	Reason       string
}

// Thumbnail returns the canonical image, if any.
func (l *Listing) Thumbnail() (Image, bool) {
	if len(l.Images) == 0 {
		return Image{}, false
	}
	return l.Images[0], true
}

// Views is a deterministic placeholder until real view counting exists.
func (l *Listing) Views() int {
	v := int(math.Round(float64(l.Price) / 1_000_000))
	if v < 5 {
		return 5
	}
	return v
}

// IsOwnedBy reports whether uid owns the listing.
func (l *Listing) IsOwnedBy(uid string) bool {
	return uid != "" && l.OwnerID == uid
}

// VisibleTo reports whether the principal may see the listing at all.
// Only approved listings are visible to principals that are neither the
// owner nor an admin.
func (l *Listing) VisibleTo(p Principal) bool {
	if l.Status == StatusApproved {
		return true
	}
	return p.IsAdmin() || l.IsOwnedBy(p.UID)
}

// CanManage reports whether the principal may edit or delete the listing.
func (l *Listing) CanManage(p Principal) bool {
	return p.IsAdmin() || l.IsOwnedBy(p.UID)
}

// RedactFor strips the advisory fields that only the owner and admins may
// read. The receiver is modified in place.
func (l *Listing) RedactFor(p Principal) {
	if l.CanManage(p) {
		return
	}
	l.BadgeSuggestion = nil
	l.ImageAnalysis = nil
	for i := range l.Evidence {
		l.Evidence[i].Content = ""
		l.Evidence[i].Summary = ""
		l.Evidence[i].StoragePath = ""
	}
}

// Principal is the caller identity supplied by the identity provider.
// The zero value is an anonymous caller.
type Principal struct {
	UID         string
	Role        Role
	DisplayName string
}

func (p Principal) IsAnonymous() bool {
	return p.UID == ""
}

func (p Principal) IsAdmin() bool {
	return p.UID != "" && p.Role == RoleAdmin
}

func (p Principal) CanSell() bool {
	return p.UID != "" && (p.Role == RoleSeller || p.Role == RoleAdmin)
}
