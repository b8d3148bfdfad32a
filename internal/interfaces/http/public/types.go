package public

import (
	"time"

	"github.com/landlink-ke/land-market/api/internal/domain"
	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
	publicapp "github.com/landlink-ke/land-market/api/internal/public/application"
)

type imagePayload struct {
	URL  string `json:"url"`
	Hint string `json:"hint"`
}

type evidencePayload struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	StoragePath string `json:"storagePath"`
	Content     string `json:"content"`
}

type createListingRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	County      string            `json:"county"`
	Price       int64             `json:"price"`
	Area        float64           `json:"area"`
	Size        string            `json:"size"`
	LandType    string            `json:"landType"`
	Latitude    *float64          `json:"latitude"`
	Longitude   *float64          `json:"longitude"`
	Images      []imagePayload    `json:"images"`
	Evidence    []evidencePayload `json:"evidence"`
}

type updateListingRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Location    *string           `json:"location"`
	County      *string           `json:"county"`
	Price       *int64            `json:"price"`
	Area        *float64          `json:"area"`
	Size        *string           `json:"size"`
	LandType    *string           `json:"landType"`
	Latitude    *float64          `json:"latitude"`
	Longitude   *float64          `json:"longitude"`
	Images      *[]imagePayload   `json:"images"`
	Evidence    []evidencePayload `json:"evidence"`
}

type startConversationRequest struct {
	Text string `json:"text"`
}

type sendMessageRequest struct {
	ClientID string `json:"clientId"`
	Text     string `json:"text"`
}

type draftDescriptionRequest struct {
	Bullets []string `json:"bullets"`
}

type suggestBadgeRequest struct {
	Evidence []struct {
		Type string `json:"type"`
	} `json:"evidence"`
	PhotoCount int `json:"photoCount"`
}

type ownerListingsResponse struct {
	Items []common.ListingResponse `json:"items"`
}

type participantResponse struct {
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role,omitempty"`
}

type lastMessageResponse struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

type conversationResponse struct {
	ID           string                         `json:"id"`
	ListingID    string                         `json:"listingId"`
	ListingTitle string                         `json:"listingTitle"`
	BuyerID      string                         `json:"buyerId"`
	SellerID     string                         `json:"sellerId"`
	Participants map[string]participantResponse `json:"participants"`
	InitiatorID  string                         `json:"initiatorId"`
	LastMessage  *lastMessageResponse           `json:"lastMessage,omitempty"`
	Status       string                         `json:"status"`
	RespondedAt  *time.Time                     `json:"respondedAt,omitempty"`
	CreatedAt    time.Time                      `json:"createdAt"`
	UpdatedAt    time.Time                      `json:"updatedAt"`
}

type messageResponse struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"clientId"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

type eventResponse struct {
	Type    string           `json:"type"`
	Message *messageResponse `json:"message,omitempty"`
	Status  string           `json:"status,omitempty"`
}

func (req createListingRequest) command() publicapp.CreateListingCommand {
	return publicapp.CreateListingCommand{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		County:      req.County,
		Price:       req.Price,
		Area:        req.Area,
		Size:        req.Size,
		LandType:    common.CanonicalLandType(req.LandType),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Images:      imageCommands(req.Images),
		Evidence:    evidenceCommands(req.Evidence),
	}
}

func (req updateListingRequest) command() publicapp.UpdateListingCommand {
	cmd := publicapp.UpdateListingCommand{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		County:      req.County,
		Price:       req.Price,
		Area:        req.Area,
		Size:        req.Size,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Evidence:    evidenceCommands(req.Evidence),
	}
	if req.LandType != nil {
		landType := common.CanonicalLandType(*req.LandType)
		cmd.LandType = &landType
	}
	if req.Images != nil {
		images := imageCommands(*req.Images)
		cmd.Images = &images
	}
	return cmd
}

func imageCommands(payloads []imagePayload) []publicapp.ImageCommand {
	result := make([]publicapp.ImageCommand, 0, len(payloads))
	for _, p := range payloads {
		result = append(result, publicapp.ImageCommand{URL: p.URL, Hint: p.Hint})
	}
	return result
}

func evidenceCommands(payloads []evidencePayload) []publicapp.EvidenceCommand {
	if len(payloads) == 0 {
		return nil
	}
	result := make([]publicapp.EvidenceCommand, 0, len(payloads))
	for _, p := range payloads {
		result = append(result, publicapp.EvidenceCommand{
			Type:        p.Type,
			Name:        p.Name,
			StoragePath: p.StoragePath,
			Content:     p.Content,
		})
	}
	return result
}

func newConversationResponse(c domain.Conversation) conversationResponse {
	res := conversationResponse{
		ID:           c.ID,
		ListingID:    c.ListingID,
		ListingTitle: c.ListingTitle,
		BuyerID:      c.BuyerID,
		SellerID:     c.SellerID,
		Participants: make(map[string]participantResponse, len(c.Participants)),
		InitiatorID:  c.InitiatorID,
		Status:       string(c.Status),
		RespondedAt:  c.RespondedAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	for uid, p := range c.Participants {
		res.Participants[uid] = participantResponse{DisplayName: p.DisplayName, Role: string(p.Role)}
	}
	if c.LastMessage != nil {
		res.LastMessage = &lastMessageResponse{
			Text:      c.LastMessage.Text,
			SenderID:  c.LastMessage.SenderID,
			Timestamp: c.LastMessage.Timestamp,
		}
	}
	return res
}

func newMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:             m.ID,
		ClientID:       m.ClientID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		Timestamp:      m.Timestamp,
	}
}

func newEventResponse(e publicapp.ConversationEvent) eventResponse {
	res := eventResponse{Type: e.Type, Status: string(e.Status)}
	if e.Message != nil {
		msg := newMessageResponse(*e.Message)
		res.Message = &msg
	}
	return res
}
