package application

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// memoryListings emulates the document store: equality and price filters,
// a single sort order and start-after cursors.
type memoryListings struct {
	mu       sync.Mutex
	seq      int
	items    map[string]domain.Listing
	order    []string
	scans    []ListingQuery
	scanErr  error
	analysis map[string]domain.ImageAnalysis
}

func newMemoryListings(listings ...domain.Listing) *memoryListings {
	m := &memoryListings{items: map[string]domain.Listing{}, analysis: map[string]domain.ImageAnalysis{}}
	for _, l := range listings {
		l := l
		if err := m.Create(context.Background(), &l); err != nil {
			panic(err)
		}
	}
	return m
}

func (m *memoryListings) Scan(_ context.Context, q ListingQuery) (ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, q)
	if m.scanErr != nil {
		return ScanResult{}, m.scanErr
	}

	matched := make([]domain.Listing, 0, len(m.items))
	for _, id := range m.order {
		l := m.items[id]
		if q.Status != nil && l.Status != *q.Status {
			continue
		}
		if q.LandType != "" && l.LandType != q.LandType {
			continue
		}
		if len(q.Badges) > 0 && !q.Badges.Contains(l.Badge) {
			continue
		}
		if q.MinPrice != nil && l.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && l.Price > *q.MaxPrice {
			continue
		}
		matched = append(matched, l)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if q.SortByPrice {
			if matched[i].Price != matched[j].Price {
				return matched[i].Price < matched[j].Price
			}
			return matched[i].ID < matched[j].ID
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start := 0
	if q.After != "" {
		for i, l := range matched {
			if l.ID == q.After {
				start = i + 1
				break
			}
		}
	}
	end := min(start+q.Limit, len(matched))
	page := matched[start:end]

	result := ScanResult{Fetched: len(page)}
	for _, l := range page {
		result.Items = append(result.Items, cloneListing(l))
	}
	if len(page) > 0 {
		result.LastID = page[len(page)-1].ID
	}
	return result, nil
}

func (m *memoryListings) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := cloneListing(l)
	return &c, nil
}

func (m *memoryListings) FindByOwner(_ context.Context, ownerID string) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Listing
	for _, id := range m.order {
		if l := m.items[id]; l.OwnerID == ownerID {
			out = append(out, cloneListing(l))
		}
	}
	return out, nil
}

func (m *memoryListings) Create(_ context.Context, listing *domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if listing.ID == "" {
		m.seq++
		listing.ID = fmt.Sprintf("L%04d", m.seq)
	}
	m.items[listing.ID] = cloneListing(*listing)
	m.order = append(m.order, listing.ID)
	return nil
}

func (m *memoryListings) UpdateDetails(_ context.Context, listing *domain.Listing, resetReview bool) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[listing.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	in := cloneListing(*listing)
	stored.Title = in.Title
	stored.Description = in.Description
	stored.Location = in.Location
	stored.County = in.County
	stored.Price = in.Price
	stored.Area = in.Area
	stored.Size = in.Size
	stored.LandType = in.LandType
	stored.Latitude = in.Latitude
	stored.Longitude = in.Longitude
	stored.IsApproximateLocation = in.IsApproximateLocation
	stored.Images = in.Images
	stored.BadgeSuggestion = in.BadgeSuggestion
	stored.UpdatedAt = in.UpdatedAt
	if resetReview {
		stored.Status = domain.StatusPending
	}
	m.items[listing.ID] = stored
	out := cloneListing(stored)
	return &out, nil
}

// put overwrites a stored listing the way a moderator write would.
func (m *memoryListings) put(listing domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[listing.ID] = cloneListing(listing)
}

func (m *memoryListings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memoryListings) SetImageAnalysis(_ context.Context, id string, analysis domain.ImageAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.ImageAnalysis = &analysis
	m.items[id] = l
	m.analysis[id] = analysis
	return nil
}

func (m *memoryListings) get(id string) domain.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneListing(m.items[id])
}

func cloneListing(l domain.Listing) domain.Listing {
	l.Images = append([]domain.Image(nil), l.Images...)
	l.Evidence = append([]domain.Evidence(nil), l.Evidence...)
	if l.BadgeSuggestion != nil {
		s := *l.BadgeSuggestion
		l.BadgeSuggestion = &s
	}
	if l.ImageAnalysis != nil {
		a := *l.ImageAnalysis
		l.ImageAnalysis = &a
	}
	return l
}

type memoryEvidence struct {
	mu    sync.Mutex
	seq   int
	items []domain.Evidence
}

func (m *memoryEvidence) FindByListing(_ context.Context, listingID string) ([]domain.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Evidence
	for _, e := range m.items {
		if e.ListingID == listingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryEvidence) FindByID(_ context.Context, id string) (*domain.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryEvidence) CreateMany(_ context.Context, evidence []domain.Evidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range evidence {
		if evidence[i].ID == "" {
			m.seq++
			evidence[i].ID = "E" + strconv.Itoa(m.seq)
		}
		m.items = append(m.items, evidence[i])
	}
	return nil
}

func (m *memoryEvidence) SetSummary(_ context.Context, id, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Summary = summary
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memoryEvidence) DeleteByListing(_ context.Context, listingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	for _, e := range m.items {
		if e.ListingID != listingID {
			kept = append(kept, e)
		}
	}
	m.items = kept
	return nil
}

type memoryConversations struct {
	mu    sync.Mutex
	seq   int
	items map[string]domain.Conversation
}

func newMemoryConversations() *memoryConversations {
	return &memoryConversations{items: map[string]domain.Conversation{}}
}

func (m *memoryConversations) FindByID(_ context.Context, id string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *memoryConversations) FindByParticipants(_ context.Context, listingID, buyerID, sellerID string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.ListingID == listingID && c.BuyerID == buyerID && c.SellerID == sellerID {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryConversations) Create(_ context.Context, c *domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c.ID = "C" + strconv.Itoa(m.seq)
	m.items[c.ID] = *c
	return nil
}

func (m *memoryConversations) RecordMessage(_ context.Context, id string, last domain.LastMessage) (*domain.Conversation, domain.ConversationStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	previous := c.Status
	if err := c.ApplyMessage(last.SenderID, last.Text, last.Timestamp); err != nil {
		return nil, "", err
	}
	m.items[id] = c
	return &c, previous, nil
}

func (m *memoryConversations) Close(_ context.Context, id string, at time.Time) (*domain.Conversation, domain.ConversationStatus, error) {
	return m.update(id, func(c *domain.Conversation) { c.Close(at) })
}

func (m *memoryConversations) Reopen(_ context.Context, id string, at time.Time) (*domain.Conversation, domain.ConversationStatus, error) {
	return m.update(id, func(c *domain.Conversation) { c.Reopen(at) })
}

func (m *memoryConversations) update(id string, apply func(*domain.Conversation)) (*domain.Conversation, domain.ConversationStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	previous := c.Status
	apply(&c)
	m.items[id] = c
	return &c, previous, nil
}

func (m *memoryConversations) ListForParticipant(_ context.Context, uid string) ([]domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Conversation
	for _, c := range m.items {
		if c.HasParticipant(uid) {
			out = append(out, c)
		}
	}
	return out, nil
}

type memoryMessages struct {
	mu    sync.Mutex
	seq   int
	items []domain.Message
}

func (m *memoryMessages) Append(_ context.Context, msg *domain.Message) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.ConversationID == msg.ConversationID && existing.ClientID == msg.ClientID {
			*msg = existing
			return false, nil
		}
	}
	m.seq++
	msg.ID = "M" + strconv.Itoa(m.seq)
	m.items = append(m.items, *msg)
	return true, nil
}

func (m *memoryMessages) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range m.items {
		if msg.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memoryMessages) List(_ context.Context, conversationID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.items {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type recordingBroker struct {
	mu     sync.Mutex
	events []ConversationEvent
}

func (b *recordingBroker) Publish(_ string, event ConversationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroker) Subscribe(string) (<-chan ConversationEvent, func()) {
	ch := make(chan ConversationEvent)
	return ch, func() { close(ch) }
}

type recordingRevalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingRevalidator) Revalidate(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, paths...)
}

type stubAssistant struct {
	description string
	summary     string
	analysis    domain.ImageAnalysis
	err         error
	seen        []string
}

func (s *stubAssistant) DraftDescription(_ context.Context, bullets []string) (string, error) {
	s.seen = bullets
	return s.description, s.err
}

func (s *stubAssistant) SummarizeDocument(_ context.Context, text string) (string, error) {
	s.seen = []string{text}
	return s.summary, s.err
}

func (s *stubAssistant) AssessDocuments(_ context.Context, descriptions []string) (domain.ImageAnalysis, error) {
	s.seen = descriptions
	return s.analysis, s.err
}

var (
	anonymous = domain.Principal{}
	sellerA   = domain.Principal{UID: "seller-a", Role: domain.RoleSeller, DisplayName: "Wanjiru"}
	sellerB   = domain.Principal{UID: "seller-b", Role: domain.RoleSeller}
	buyer     = domain.Principal{UID: "buyer-1", Role: domain.RoleBuyer, DisplayName: "Otieno"}
	admin     = domain.Principal{UID: "admin-1", Role: domain.RoleAdmin}
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func stringPtr(v string) *string    { return &v }
