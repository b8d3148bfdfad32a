package application

import (
	"context"
	"time"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// ListingRepository abstracts the listing store adapter.
type ListingRepository interface {
	Scan(ctx context.Context, query ListingQuery) (ScanResult, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	FindByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
	Create(ctx context.Context, listing *domain.Listing) error
	// UpdateDetails writes the seller-editable fields and the badge
	// suggestion, leaving moderation fields to the admin writers. With
	// resetReview the status goes back to pending. It returns the listing
	// as stored afterwards.
	UpdateDetails(ctx context.Context, listing *domain.Listing, resetReview bool) (*domain.Listing, error)
	Delete(ctx context.Context, id string) error
	SetImageAnalysis(ctx context.Context, id string, analysis domain.ImageAnalysis) error
}

// EvidenceRepository abstracts the evidence store adapter.
type EvidenceRepository interface {
	FindByListing(ctx context.Context, listingID string) ([]domain.Evidence, error)
	FindByID(ctx context.Context, id string) (*domain.Evidence, error)
	CreateMany(ctx context.Context, evidence []domain.Evidence) error
	SetSummary(ctx context.Context, id, summary string) error
	DeleteByListing(ctx context.Context, listingID string) error
}

// ConversationRepository persists conversation metadata. Writes after
// Create are conditional on the stored state, never on an earlier read.
// Each returns the conversation as stored afterwards and the status it
// held before the write.
type ConversationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
	FindByParticipants(ctx context.Context, listingID, buyerID, sellerID string) (*domain.Conversation, error)
	Create(ctx context.Context, conversation *domain.Conversation) error
	// RecordMessage fails with ErrConversationClosed when the stored
	// conversation is closed.
	RecordMessage(ctx context.Context, id string, last domain.LastMessage) (*domain.Conversation, domain.ConversationStatus, error)
	Close(ctx context.Context, id string, at time.Time) (*domain.Conversation, domain.ConversationStatus, error)
	Reopen(ctx context.Context, id string, at time.Time) (*domain.Conversation, domain.ConversationStatus, error)
	ListForParticipant(ctx context.Context, uid string) ([]domain.Conversation, error)
}

// MessageRepository appends and reads conversation messages.
type MessageRepository interface {
	// Append reports false when the client id was already stored in the
	// conversation; message then holds the stored copy.
	Append(ctx context.Context, message *domain.Message) (bool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// EventBroker fans conversation events out to live subscribers.
type EventBroker interface {
	Publish(conversationID string, event ConversationEvent)
	Subscribe(conversationID string) (<-chan ConversationEvent, func())
}

// Assistant is the generative model gateway.
type Assistant interface {
	DraftDescription(ctx context.Context, bullets []string) (string, error)
	SummarizeDocument(ctx context.Context, text string) (string, error)
	AssessDocuments(ctx context.Context, descriptions []string) (domain.ImageAnalysis, error)
}

// Revalidator invalidates cached read paths after a write.
type Revalidator interface {
	Revalidate(paths ...string)
}

// ListingQuery holds the predicates the store can apply natively.
type ListingQuery struct {
	Status      *domain.ListingStatus
	LandType    string
	Badges      domain.BadgeList
	MinPrice    *int64
	MaxPrice    *int64
	SortByPrice bool
	After       string
	Limit       int
}

// ScanResult is one raw page from the store. Fetched counts every document
// the store returned, including any rejected as malformed, and LastID is
// the identity of the last of them.
type ScanResult struct {
	Items   []domain.Listing
	Fetched int
	LastID  string
}

// SearchFilter is the caller-facing search request.
type SearchFilter struct {
	Status   string
	Query    string
	MinPrice *int64
	MaxPrice *int64
	MinArea  *float64
	MaxArea  *float64
	LandType string
	Badges   []string
}

// SearchPage is one page of results. An empty NextCursor means the scan is
// exhausted; a non-empty one means keep paging even if Items is short.
type SearchPage struct {
	Items      []domain.Listing
	NextCursor string
}

// SearchService runs listing searches.
type SearchService interface {
	Search(ctx context.Context, principal domain.Principal, filter SearchFilter, pageSize int, cursor string) (SearchPage, error)
}

// ListingService covers listing reads and owner writes.
type ListingService interface {
	Detail(ctx context.Context, principal domain.Principal, id string) (*domain.Listing, error)
	ForOwner(ctx context.Context, principal domain.Principal, ownerID string) ([]domain.Listing, error)
	Create(ctx context.Context, principal domain.Principal, cmd CreateListingCommand) (*domain.Listing, error)
	Update(ctx context.Context, principal domain.Principal, id string, cmd UpdateListingCommand) (*domain.Listing, error)
	Delete(ctx context.Context, principal domain.Principal, id string) error
}

// ConversationService covers buyer/seller messaging.
type ConversationService interface {
	Start(ctx context.Context, principal domain.Principal, listingID, text string) (*domain.Conversation, error)
	Send(ctx context.Context, principal domain.Principal, conversationID, clientID, text string) (*domain.Message, error)
	List(ctx context.Context, principal domain.Principal) ([]domain.Conversation, error)
	Messages(ctx context.Context, principal domain.Principal, conversationID string) ([]domain.Message, error)
	Close(ctx context.Context, principal domain.Principal, conversationID string) (*domain.Conversation, error)
	Reopen(ctx context.Context, principal domain.Principal, conversationID string) (*domain.Conversation, error)
	Subscribe(ctx context.Context, principal domain.Principal, conversationID string) (*Subscription, error)
}

// AssistService covers the model-backed helpers.
type AssistService interface {
	DraftDescription(ctx context.Context, principal domain.Principal, bullets []string) (string, error)
	SummarizeEvidence(ctx context.Context, principal domain.Principal, listingID, evidenceID string) (*domain.Evidence, error)
	AnalyzeListing(ctx context.Context, principal domain.Principal, listingID string) (*domain.ImageAnalysis, error)
}

// CreateListingCommand contains seller input for a new listing.
type CreateListingCommand struct {
	Title       string
	Description string
	Location    string
	County      string
	Price       int64
	Area        float64
	Size        string
	LandType    string
	Latitude    *float64
	Longitude   *float64
	Images      []ImageCommand
	Evidence    []EvidenceCommand
}

// UpdateListingCommand is a partial update; nil fields are left alone.
// Evidence entries are appended.
type UpdateListingCommand struct {
	Title       *string
	Description *string
	Location    *string
	County      *string
	Price       *int64
	Area        *float64
	Size        *string
	LandType    *string
	Latitude    *float64
	Longitude   *float64
	Images      *[]ImageCommand
	Evidence    []EvidenceCommand
}

// ImageCommand references an uploaded image.
type ImageCommand struct {
	URL  string
	Hint string
}

// EvidenceCommand references an uploaded evidence document.
type EvidenceCommand struct {
	Type        string
	Name        string
	StoragePath string
	Content     string
}

// ConversationEvent is pushed to subscribers of a conversation.
type ConversationEvent struct {
	Type    string
	Message *domain.Message
	Status  domain.ConversationStatus
}

const (
	EventMessage = "message"
	EventStatus  = "status"
)

// Subscription is a live feed of conversation events. Close must be called
// once the consumer stops reading; C is closed afterwards.
type Subscription struct {
	C     <-chan ConversationEvent
	close func()
}

func NewSubscription(c <-chan ConversationEvent, cancel func()) *Subscription {
	return &Subscription{C: c, close: cancel}
}

func (s *Subscription) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// Paths revalidated after listing writes.
const (
	PathListingFeed  = "/listings"
	PathAdminListing = "/admin/listings"
)

// ListingPaths returns the read paths that depend on a listing.
func ListingPaths(id string) []string {
	return []string{PathListingFeed, PathListingFeed + "/" + id, PathAdminListing, PathAdminListing + "/" + id}
}
