package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

const maxMessageRunes = 4000

// conversationService implements ConversationService.
type conversationService struct {
	conversations ConversationRepository
	messages      MessageRepository
	listings      ListingRepository
	broker        EventBroker
	now           func() time.Time
}

func NewConversationService(conversations ConversationRepository, messages MessageRepository, listings ListingRepository, broker EventBroker) ConversationService {
	return &conversationService{
		conversations: conversations,
		messages:      messages,
		listings:      listings,
		broker:        broker,
		now:           time.Now,
	}
}

// Start finds or creates the buyer's conversation with the listing's
// seller. A non-empty text is sent as the first message.
func (s *conversationService) Start(ctx context.Context, principal domain.Principal, listingID, text string) (*domain.Conversation, error) {
	if principal.IsAnonymous() {
		return nil, domain.ErrPermissionDenied
	}
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.VisibleTo(principal) {
		return nil, domain.ErrNotFound
	}
	if listing.IsOwnedBy(principal.UID) {
		return nil, domain.NewValidationError("listingId", "cannot start a conversation on your own listing")
	}

	conversation, err := s.conversations.FindByParticipants(ctx, listing.ID, principal.UID, listing.OwnerID)
	if errors.Is(err, domain.ErrNotFound) {
		now := s.now().UTC()
		conversation = &domain.Conversation{
			ListingID:      listing.ID,
			ListingTitle:   listing.Title,
			BuyerID:        principal.UID,
			SellerID:       listing.OwnerID,
			ParticipantIDs: []string{principal.UID, listing.OwnerID},
			Participants: map[string]domain.Participant{
				principal.UID:   {DisplayName: principal.DisplayName, Role: principal.Role},
				listing.OwnerID: {Role: domain.RoleSeller},
			},
			InitiatorID: principal.UID,
			Status:      domain.ConversationNew,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.conversations.Create(ctx, conversation); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) != "" {
		if _, err := s.send(ctx, principal, conversation, "", text); err != nil {
			return nil, err
		}
	}
	return conversation, nil
}

func (s *conversationService) Send(ctx context.Context, principal domain.Principal, conversationID, clientID, text string) (*domain.Message, error) {
	conversation, err := s.load(ctx, principal, conversationID)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, principal, conversation, clientID, text)
}

func (s *conversationService) send(ctx context.Context, principal domain.Principal, conversation *domain.Conversation, clientID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewValidationError("text", "is required")
	}
	if utf8.RuneCountInString(text) > maxMessageRunes {
		return nil, domain.NewValidationError("text", fmt.Sprintf("must be at most %d characters", maxMessageRunes))
	}
	if strings.TrimSpace(clientID) == "" {
		clientID = uuid.NewString()
	}

	if conversation.Status == domain.ConversationClosed {
		return nil, domain.ErrConversationClosed
	}

	now := s.now().UTC()
	message := &domain.Message{
		ClientID:       clientID,
		ConversationID: conversation.ID,
		SenderID:       principal.UID,
		Text:           text,
		Timestamp:      now,
	}
	created, err := s.messages.Append(ctx, message)
	if err != nil {
		return nil, err
	}
	if !created {
		// Retried send: the first attempt already moved the thread on.
		return message, nil
	}

	updated, previous, err := s.conversations.RecordMessage(ctx, conversation.ID, domain.LastMessage{
		Text:      text,
		SenderID:  principal.UID,
		Timestamp: now,
	})
	if err != nil {
		// The thread was closed or removed after it was read.
		if delErr := s.messages.Delete(ctx, message.ID); delErr != nil {
			return nil, fmt.Errorf("%w (message %s not removed: %v)", err, message.ID, delErr)
		}
		return nil, err
	}
	*conversation = *updated

	s.publish(conversation.ID, ConversationEvent{Type: EventMessage, Message: message})
	if previous != updated.Status {
		s.publish(conversation.ID, ConversationEvent{Type: EventStatus, Status: updated.Status})
	}
	return message, nil
}

func (s *conversationService) List(ctx context.Context, principal domain.Principal) ([]domain.Conversation, error) {
	if principal.IsAnonymous() {
		return nil, domain.ErrPermissionDenied
	}
	conversations, err := s.conversations.ListForParticipant(ctx, principal.UID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

func (s *conversationService) Messages(ctx context.Context, principal domain.Principal, conversationID string) ([]domain.Message, error) {
	if _, err := s.load(ctx, principal, conversationID); err != nil {
		return nil, err
	}
	messages, err := s.messages.List(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}

func (s *conversationService) Close(ctx context.Context, principal domain.Principal, conversationID string) (*domain.Conversation, error) {
	return s.transition(ctx, principal, conversationID, s.conversations.Close)
}

func (s *conversationService) Reopen(ctx context.Context, principal domain.Principal, conversationID string) (*domain.Conversation, error) {
	return s.transition(ctx, principal, conversationID, s.conversations.Reopen)
}

type statusWrite func(ctx context.Context, id string, at time.Time) (*domain.Conversation, domain.ConversationStatus, error)

func (s *conversationService) transition(ctx context.Context, principal domain.Principal, conversationID string, write statusWrite) (*domain.Conversation, error) {
	conversation, err := s.load(ctx, principal, conversationID)
	if err != nil {
		return nil, err
	}
	updated, previous, err := write(ctx, conversation.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if previous != updated.Status {
		s.publish(updated.ID, ConversationEvent{Type: EventStatus, Status: updated.Status})
	}
	return updated, nil
}

func (s *conversationService) Subscribe(ctx context.Context, principal domain.Principal, conversationID string) (*Subscription, error) {
	conversation, err := s.load(ctx, principal, conversationID)
	if err != nil {
		return nil, err
	}
	if s.broker == nil {
		return nil, fmt.Errorf("conversation %s: no event broker configured", conversation.ID)
	}
	ch, cancel := s.broker.Subscribe(conversation.ID)
	return NewSubscription(ch, cancel), nil
}

// load fetches a conversation the principal takes part in. Outsiders get
// not-found so conversation ids cannot be guessed.
func (s *conversationService) load(ctx context.Context, principal domain.Principal, conversationID string) (*domain.Conversation, error) {
	if principal.IsAnonymous() {
		return nil, domain.ErrPermissionDenied
	}
	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(principal.UID) {
		return nil, domain.ErrNotFound
	}
	return conversation, nil
}

func (s *conversationService) publish(conversationID string, event ConversationEvent) {
	if s.broker != nil {
		s.broker.Publish(conversationID, event)
	}
}
