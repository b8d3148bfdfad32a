package domain

import "time"

// Conversation is a buyer/seller thread about one listing.
type Conversation struct {
	ID             string
	ListingID      string
	ListingTitle   string
	BuyerID        string
	SellerID       string
	ParticipantIDs []string
	Participants   map[string]Participant
	InitiatorID    string
	LastMessage    *LastMessage
	Status         ConversationStatus
	RespondedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Participant is the display info kept per participant id.
type Participant struct {
	DisplayName string
	Role        Role
}

// LastMessage is the denormalised preview of the newest message.
type LastMessage struct {
	Text      string
	SenderID  string
	Timestamp time.Time
}

// Message is immutable once stored.
type Message struct {
	ID             string
	ClientID       string
	ConversationID string
	SenderID       string
	Text           string
	Timestamp      time.Time
}

// HasParticipant reports whether uid takes part in the conversation.
func (c *Conversation) HasParticipant(uid string) bool {
	if uid == "" {
		return false
	}
	for _, id := range c.ParticipantIDs {
		if id == uid {
			return true
		}
	}
	return false
}

// ApplyMessage moves the conversation forward for a message sent by
// senderID at ts. The first message from the non-initiating participant
// marks the conversation as responded.
func (c *Conversation) ApplyMessage(senderID, text string, ts time.Time) error {
	if c.Status == ConversationClosed {
		return ErrConversationClosed
	}
	if senderID != c.InitiatorID && c.Status == ConversationNew {
		c.Status = ConversationResponded
		responded := ts
		c.RespondedAt = &responded
	}
	c.LastMessage = &LastMessage{Text: text, SenderID: senderID, Timestamp: ts}
	c.UpdatedAt = ts
	return nil
}

// Close marks the conversation closed. Closing twice is a no-op.
func (c *Conversation) Close(ts time.Time) {
	if c.Status == ConversationClosed {
		return
	}
	c.Status = ConversationClosed
	c.UpdatedAt = ts
}

// Reopen returns a closed conversation to responded when the other side
// has ever replied, otherwise to new.
func (c *Conversation) Reopen(ts time.Time) {
	if c.Status != ConversationClosed {
		return
	}
	if c.RespondedAt != nil {
		c.Status = ConversationResponded
	} else {
		c.Status = ConversationNew
	}
	c.UpdatedAt = ts
}
