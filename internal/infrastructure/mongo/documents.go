package mongo

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// ListingDocument is the stored shape of a listing.
type ListingDocument struct {
	ID                    primitive.ObjectID       `bson:"_id"`
	OwnerID               string                   `bson:"ownerId"`
	Title                 string                   `bson:"title"`
	Description           string                   `bson:"description,omitempty"`
	Location              string                   `bson:"location"`
	County                string                   `bson:"county"`
	Price                 int64                    `bson:"price"`
	Area                  float64                  `bson:"area"`
	Size                  string                   `bson:"size,omitempty"`
	LandType              string                   `bson:"landType"`
	Latitude              *float64                 `bson:"latitude,omitempty"`
	Longitude             *float64                 `bson:"longitude,omitempty"`
	IsApproximateLocation bool                     `bson:"isApproximateLocation"`
	Images                []ImageDocument          `bson:"images,omitempty"`
	LegacyImage           string                   `bson:"image,omitempty"`
	Status                string                   `bson:"status"`
	Badge                 string                   `bson:"badge"`
	BadgeSuggestion       *BadgeSuggestionDocument `bson:"badgeSuggestion,omitempty"`
	ImageAnalysis         *ImageAnalysisDocument   `bson:"imageAnalysis,omitempty"`
	CreatedAt             Timestamp                `bson:"createdAt"`
	UpdatedAt             Timestamp                `bson:"updatedAt"`
	AdminReviewedAt       *Timestamp               `bson:"adminReviewedAt,omitempty"`
}

// ImageDocument references one uploaded photo.
type ImageDocument struct {
	URL  string `bson:"url"`
	Hint string `bson:"hint,omitempty"`
}

type BadgeSuggestionDocument struct {
	Badge  string `bson:"badge"`
	Reason string `bson:"reason"`
}

type ImageAnalysisDocument struct {
	IsSuspicious bool   `bson:"isSuspicious"`
	Reason       string `bson:"reason"`
}

// EvidenceDocument is stored in its own collection keyed by a UUID.
type EvidenceDocument struct {
	ID          string    `bson:"_id"`
	ListingID   string    `bson:"listingId"`
	OwnerID     string    `bson:"ownerId"`
	Type        string    `bson:"type"`
	Name        string    `bson:"name"`
	StoragePath string    `bson:"storagePath"`
	Content     string    `bson:"content,omitempty"`
	Summary     string    `bson:"summary,omitempty"`
	Verified    bool      `bson:"verified"`
	UploadedAt  Timestamp `bson:"uploadedAt"`
}

type ConversationDocument struct {
	ID             primitive.ObjectID             `bson:"_id"`
	ListingID      string                         `bson:"listingId"`
	ListingTitle   string                         `bson:"listingTitle"`
	BuyerID        string                         `bson:"buyerId"`
	SellerID       string                         `bson:"sellerId"`
	ParticipantIDs []string                       `bson:"participantIds"`
	Participants   map[string]ParticipantDocument `bson:"participants,omitempty"`
	InitiatorID    string                         `bson:"initiatorId"`
	LastMessage    *LastMessageDocument           `bson:"lastMessage,omitempty"`
	Status         string                         `bson:"status"`
	RespondedAt    *Timestamp                     `bson:"respondedAt,omitempty"`
	CreatedAt      Timestamp                      `bson:"createdAt"`
	UpdatedAt      Timestamp                      `bson:"updatedAt"`
}

type ParticipantDocument struct {
	DisplayName string `bson:"displayName,omitempty"`
	Role        string `bson:"role,omitempty"`
}

type LastMessageDocument struct {
	Text      string    `bson:"text"`
	SenderID  string    `bson:"senderId"`
	Timestamp Timestamp `bson:"timestamp"`
}

// MessageDocument is append-only. (conversationId, clientId) is unique.
type MessageDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	ConversationID string             `bson:"conversationId"`
	ClientID       string             `bson:"clientId"`
	SenderID       string             `bson:"senderId"`
	Text           string             `bson:"text"`
	Timestamp      Timestamp          `bson:"timestamp"`
}

// mapListingDocument normalises a stored listing. Missing status reads as
// pending and missing badge as None; unknown values are malformed. A legacy
// single image becomes the only entry of Images, and a listing without a
// geocode gets approximate coordinates derived from its location.
func mapListingDocument(doc ListingDocument) (domain.Listing, error) {
	status := domain.StatusPending
	if strings.TrimSpace(doc.Status) != "" {
		parsed, err := domain.ParseListingStatus(doc.Status)
		if err != nil {
			return domain.Listing{}, fmt.Errorf("%w: listing %s: %v", domain.ErrMalformedRecord, doc.ID.Hex(), err)
		}
		status = parsed
	}
	badge, err := domain.ParseBadge(doc.Badge)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("%w: listing %s: %v", domain.ErrMalformedRecord, doc.ID.Hex(), err)
	}

	listing := domain.Listing{
		ID:                    doc.ID.Hex(),
		OwnerID:               doc.OwnerID,
		Title:                 doc.Title,
		Description:           doc.Description,
		Location:              doc.Location,
		County:                doc.County,
		Price:                 doc.Price,
		Area:                  doc.Area,
		Size:                  doc.Size,
		LandType:              doc.LandType,
		IsApproximateLocation: doc.IsApproximateLocation,
		Images:                mapImageDocuments(doc.Images, doc.LegacyImage),
		Status:                status,
		Badge:                 badge,
		CreatedAt:             doc.CreatedAt.Time,
		UpdatedAt:             doc.UpdatedAt.Time,
		AdminReviewedAt:       doc.AdminReviewedAt.TimePtr(),
	}
	if listing.UpdatedAt.IsZero() {
		listing.UpdatedAt = listing.CreatedAt
	}

	if doc.Latitude != nil && doc.Longitude != nil {
		listing.Latitude = *doc.Latitude
		listing.Longitude = *doc.Longitude
	} else {
		coords := domain.GenerateCoordsFromLocation(doc.Location)
		listing.Latitude = coords.Latitude
		listing.Longitude = coords.Longitude
		listing.IsApproximateLocation = true
	}

	if doc.BadgeSuggestion != nil {
		suggested, err := domain.ParseBadge(doc.BadgeSuggestion.Badge)
		if err == nil {
			listing.BadgeSuggestion = &domain.BadgeSuggestion{Badge: suggested, Reason: doc.BadgeSuggestion.Reason}
		}
	}
	if doc.ImageAnalysis != nil {
		listing.ImageAnalysis = &domain.ImageAnalysis{IsSuspicious: doc.ImageAnalysis.IsSuspicious, Reason: doc.ImageAnalysis.Reason}
	}
	return listing, nil
}

func mapImageDocuments(images []ImageDocument, legacy string) []domain.Image {
	out := make([]domain.Image, 0, len(images)+1)
	for _, img := range images {
		if strings.TrimSpace(img.URL) == "" {
			continue
		}
		out = append(out, domain.Image{URL: img.URL, Hint: img.Hint})
	}
	if len(out) == 0 && strings.TrimSpace(legacy) != "" {
		out = append(out, domain.Image{URL: strings.TrimSpace(legacy)})
	}
	return out
}

// toListingDocument validates enum fields before a write.
func toListingDocument(listing *domain.Listing, id primitive.ObjectID) (ListingDocument, error) {
	status, err := domain.ParseListingStatus(listing.Status.String())
	if err != nil {
		return ListingDocument{}, err
	}
	badge, err := domain.ParseBadge(listing.Badge.String())
	if err != nil {
		return ListingDocument{}, err
	}

	lat, lon := listing.Latitude, listing.Longitude
	doc := ListingDocument{
		ID:                    id,
		OwnerID:               listing.OwnerID,
		Title:                 listing.Title,
		Description:           listing.Description,
		Location:              listing.Location,
		County:                listing.County,
		Price:                 listing.Price,
		Area:                  listing.Area,
		Size:                  listing.Size,
		LandType:              listing.LandType,
		Latitude:              &lat,
		Longitude:             &lon,
		IsApproximateLocation: listing.IsApproximateLocation,
		Status:                status.String(),
		Badge:                 badge.String(),
		CreatedAt:             NewTimestamp(listing.CreatedAt),
		UpdatedAt:             NewTimestamp(listing.UpdatedAt),
		AdminReviewedAt:       timestampPtr(listing.AdminReviewedAt),
	}
	for _, img := range listing.Images {
		doc.Images = append(doc.Images, ImageDocument{URL: img.URL, Hint: img.Hint})
	}
	if s := listing.BadgeSuggestion; s != nil {
		doc.BadgeSuggestion = &BadgeSuggestionDocument{Badge: s.Badge.String(), Reason: s.Reason}
	}
	if a := listing.ImageAnalysis; a != nil {
		doc.ImageAnalysis = &ImageAnalysisDocument{IsSuspicious: a.IsSuspicious, Reason: a.Reason}
	}
	return doc, nil
}

func mapEvidenceDocument(doc EvidenceDocument) domain.Evidence {
	return domain.Evidence{
		ID:          doc.ID,
		ListingID:   doc.ListingID,
		OwnerID:     doc.OwnerID,
		Type:        domain.CanonicalEvidenceType(doc.Type),
		Name:        doc.Name,
		StoragePath: doc.StoragePath,
		Content:     doc.Content,
		Summary:     doc.Summary,
		Verified:    doc.Verified,
		UploadedAt:  doc.UploadedAt.Time,
	}
}

func toEvidenceDocument(e domain.Evidence) EvidenceDocument {
	return EvidenceDocument{
		ID:          e.ID,
		ListingID:   e.ListingID,
		OwnerID:     e.OwnerID,
		Type:        domain.CanonicalEvidenceType(e.Type.String()).String(),
		Name:        e.Name,
		StoragePath: e.StoragePath,
		Content:     e.Content,
		Summary:     e.Summary,
		Verified:    e.Verified,
		UploadedAt:  NewTimestamp(e.UploadedAt),
	}
}

func mapConversationDocument(doc ConversationDocument) (domain.Conversation, error) {
	status, err := domain.ParseConversationStatus(doc.Status)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("%w: conversation %s: %v", domain.ErrMalformedRecord, doc.ID.Hex(), err)
	}
	conv := domain.Conversation{
		ID:             doc.ID.Hex(),
		ListingID:      doc.ListingID,
		ListingTitle:   doc.ListingTitle,
		BuyerID:        doc.BuyerID,
		SellerID:       doc.SellerID,
		ParticipantIDs: append([]string{}, doc.ParticipantIDs...),
		Participants:   make(map[string]domain.Participant, len(doc.Participants)),
		InitiatorID:    doc.InitiatorID,
		Status:         status,
		RespondedAt:    doc.RespondedAt.TimePtr(),
		CreatedAt:      doc.CreatedAt.Time,
		UpdatedAt:      doc.UpdatedAt.Time,
	}
	for uid, p := range doc.Participants {
		role, _ := domain.ParseRole(p.Role)
		conv.Participants[uid] = domain.Participant{DisplayName: p.DisplayName, Role: role}
	}
	if doc.LastMessage != nil {
		conv.LastMessage = &domain.LastMessage{
			Text:      doc.LastMessage.Text,
			SenderID:  doc.LastMessage.SenderID,
			Timestamp: doc.LastMessage.Timestamp.Time,
		}
	}
	return conv, nil
}

func toConversationDocument(c *domain.Conversation, id primitive.ObjectID) ConversationDocument {
	doc := ConversationDocument{
		ID:             id,
		ListingID:      c.ListingID,
		ListingTitle:   c.ListingTitle,
		BuyerID:        c.BuyerID,
		SellerID:       c.SellerID,
		ParticipantIDs: append([]string{}, c.ParticipantIDs...),
		Participants:   make(map[string]ParticipantDocument, len(c.Participants)),
		InitiatorID:    c.InitiatorID,
		Status:         string(c.Status),
		RespondedAt:    timestampPtr(c.RespondedAt),
		CreatedAt:      NewTimestamp(c.CreatedAt),
		UpdatedAt:      NewTimestamp(c.UpdatedAt),
	}
	for uid, p := range c.Participants {
		doc.Participants[uid] = ParticipantDocument{DisplayName: p.DisplayName, Role: string(p.Role)}
	}
	if c.LastMessage != nil {
		doc.LastMessage = &LastMessageDocument{
			Text:      c.LastMessage.Text,
			SenderID:  c.LastMessage.SenderID,
			Timestamp: NewTimestamp(c.LastMessage.Timestamp),
		}
	}
	return doc
}

func mapMessageDocument(doc MessageDocument) domain.Message {
	return domain.Message{
		ID:             doc.ID.Hex(),
		ClientID:       doc.ClientID,
		ConversationID: doc.ConversationID,
		SenderID:       doc.SenderID,
		Text:           doc.Text,
		Timestamp:      doc.Timestamp.Time,
	}
}
