package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestGenerateCoordsFromLocation(t *testing.T) {
	locations := []string{"", "Kitengela", "Nanyuki, Laikipia", "Malindi", "  kitengela  ", "Lodwar", "Mombasa Road 14km"}
	for _, loc := range locations {
		a := GenerateCoordsFromLocation(loc)
		b := GenerateCoordsFromLocation(loc)
		if a != b {
			t.Fatalf("coordinates for %q not stable: %+v vs %+v", loc, a, b)
		}
		if !a.InKenya() {
			t.Fatalf("coordinates for %q outside Kenya: %+v", loc, a)
		}
	}
	for i := 0; i < 500; i++ {
		c := GenerateCoordsFromLocation(fmt.Sprintf("plot-%d", i))
		if !c.InKenya() {
			t.Fatalf("coordinates for plot-%d outside Kenya: %+v", i, c)
		}
	}
	if GenerateCoordsFromLocation("Kitengela") == GenerateCoordsFromLocation("Malindi") {
		t.Fatalf("distinct locations should not collide")
	}
}

func TestListingViews(t *testing.T) {
	cases := map[int64]int{
		0:          5,
		1_000_000:  5,
		5_000_000:  5,
		7_400_000:  7,
		12_600_000: 13,
	}
	for price, want := range cases {
		l := Listing{Price: price}
		if got := l.Views(); got != want {
			t.Errorf("Views() for price %d = %d, want %d", price, got, want)
		}
	}
}

func TestListingVisibility(t *testing.T) {
	owner := Principal{UID: "seller-a", Role: RoleSeller}
	admin := Principal{UID: "admin-1", Role: RoleAdmin}
	stranger := Principal{UID: "buyer-b", Role: RoleBuyer}
	anonymous := Principal{}

	for _, status := range []ListingStatus{StatusPending, StatusRejected} {
		l := Listing{OwnerID: "seller-a", Status: status}
		if !l.VisibleTo(owner) || !l.VisibleTo(admin) {
			t.Fatalf("%s listing must be visible to owner and admin", status)
		}
		if l.VisibleTo(stranger) || l.VisibleTo(anonymous) {
			t.Fatalf("%s listing must be hidden from other principals", status)
		}
	}

	approved := Listing{OwnerID: "seller-a", Status: StatusApproved}
	if !approved.VisibleTo(anonymous) {
		t.Fatalf("approved listing must be public")
	}
}

func TestListingRedactFor(t *testing.T) {
	l := Listing{
		OwnerID:         "seller-a",
		Status:          StatusApproved,
		BadgeSuggestion: &BadgeSuggestion{Badge: BadgeGold, Reason: "x"},
		ImageAnalysis:   &ImageAnalysis{IsSuspicious: true, Reason: "y"},
		Evidence:        []Evidence{{Content: "deed text", Summary: "s", StoragePath: "p"}},
	}
	owned := l
	owned.Evidence = append([]Evidence(nil), l.Evidence...)
	owned.RedactFor(Principal{UID: "seller-a", Role: RoleSeller})
	if owned.BadgeSuggestion == nil || owned.ImageAnalysis == nil || owned.Evidence[0].Content == "" {
		t.Fatalf("owner view must keep advisory fields")
	}

	l.RedactFor(Principal{UID: "buyer-b", Role: RoleBuyer})
	if l.BadgeSuggestion != nil || l.ImageAnalysis != nil {
		t.Fatalf("buyer view must not expose advisory fields")
	}
	if l.Evidence[0].Content != "" || l.Evidence[0].StoragePath != "" {
		t.Fatalf("buyer view must not expose evidence content")
	}
}

func TestPrincipalWithoutUIDIsNeverAdmin(t *testing.T) {
	if (Principal{Role: RoleAdmin}).IsAdmin() {
		t.Fatalf("a role without uid must not grant admin")
	}
}

func TestParseEnums(t *testing.T) {
	if s, err := ParseListingStatus(" Approved "); err != nil || s != StatusApproved {
		t.Fatalf("ParseListingStatus = %q, %v", s, err)
	}
	if _, err := ParseListingStatus("archived"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if b, err := ParseBadge("silver"); err != nil || b != BadgeSilver {
		t.Fatalf("ParseBadge = %q, %v", b, err)
	}
	if b, err := ParseBadge(""); err != nil || b != BadgeNone {
		t.Fatalf("empty badge should read as None, got %q, %v", b, err)
	}
	if _, err := ParseBadge("platinum"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	list, err := NewBadgeList([]string{"gold", "Gold", "", "bronze"})
	if err != nil {
		t.Fatalf("NewBadgeList: %v", err)
	}
	if len(list) != 2 || !list.Contains(BadgeGold) || !list.Contains(BadgeBronze) {
		t.Fatalf("unexpected badge list %v", list)
	}
}

func TestConversationLifecycle(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := Conversation{
		BuyerID:        "buyer",
		SellerID:       "seller",
		ParticipantIDs: []string{"buyer", "seller"},
		InitiatorID:    "buyer",
		Status:         ConversationNew,
	}

	if err := c.ApplyMessage("buyer", "is it available?", t0); err != nil {
		t.Fatalf("ApplyMessage: %v", err)
	}
	if c.Status != ConversationNew {
		t.Fatalf("initiator message must not change status, got %s", c.Status)
	}

	if err := c.ApplyMessage("seller", "yes", t0.Add(time.Minute)); err != nil {
		t.Fatalf("ApplyMessage: %v", err)
	}
	if c.Status != ConversationResponded || c.RespondedAt == nil {
		t.Fatalf("reply must mark conversation responded, got %s", c.Status)
	}
	if c.LastMessage == nil || c.LastMessage.Text != "yes" {
		t.Fatalf("last message not updated: %+v", c.LastMessage)
	}

	c.Close(t0.Add(2 * time.Minute))
	if err := c.ApplyMessage("buyer", "hello?", t0.Add(3*time.Minute)); !errors.Is(err, ErrConversationClosed) {
		t.Fatalf("expected ErrConversationClosed, got %v", err)
	}

	c.Reopen(t0.Add(4 * time.Minute))
	if c.Status != ConversationResponded {
		t.Fatalf("reopen after a reply should restore responded, got %s", c.Status)
	}
}

func TestConversationReopenWithoutReply(t *testing.T) {
	c := Conversation{InitiatorID: "buyer", ParticipantIDs: []string{"buyer", "seller"}, Status: ConversationNew}
	c.Close(time.Now())
	c.Reopen(time.Now())
	if c.Status != ConversationNew {
		t.Fatalf("reopen without reply should restore new, got %s", c.Status)
	}
	if c.HasParticipant("intruder") || c.HasParticipant("") {
		t.Fatalf("unexpected participant match")
	}
}
