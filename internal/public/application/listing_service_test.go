package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

func newTestListingService() (*listingService, *memoryListings, *memoryEvidence, *recordingRevalidator) {
	listings := newMemoryListings()
	evidence := &memoryEvidence{}
	reval := &recordingRevalidator{}
	svc := NewListingService(listings, evidence, reval).(*listingService)
	svc.now = func() time.Time { return base }
	return svc, listings, evidence, reval
}

func validCreate() CreateListingCommand {
	return CreateListingCommand{
		Title:    "Half acre in Kitengela",
		Location: "Kitengela",
		County:   "Kajiado",
		Price:    2_500_000,
		Area:     0.5,
		LandType: "residential",
		Images: []ImageCommand{
			{URL: "https://cdn.example.com/a.jpg"},
			{URL: "https://cdn.example.com/b.jpg", Hint: "road frontage"},
		},
		Evidence: []EvidenceCommand{
			{Type: "Title Deed", StoragePath: "evidence/u1/deed.pdf"},
		},
	}
}

func TestListingService_Create(t *testing.T) {
	svc, listings, evidence, reval := newTestListingService()

	got, err := svc.Create(context.Background(), sellerA, validCreate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Status != domain.StatusPending || got.Badge != domain.BadgeNone {
		t.Fatalf("new listing = %s/%s, want pending/None", got.Status, got.Badge)
	}
	if got.BadgeSuggestion == nil || got.BadgeSuggestion.Badge != domain.BadgeSilver {
		t.Fatalf("BadgeSuggestion = %+v, want Silver", got.BadgeSuggestion)
	}
	if !got.IsApproximateLocation {
		t.Fatalf("listing without coordinates should be approximate")
	}
	coords := domain.Coordinates{Latitude: got.Latitude, Longitude: got.Longitude}
	if !coords.InKenya() {
		t.Fatalf("approximate coordinates %+v outside Kenya", coords)
	}
	stored := listings.get(got.ID)
	if stored.OwnerID != sellerA.UID {
		t.Fatalf("OwnerID = %q", stored.OwnerID)
	}
	docs, _ := evidence.FindByListing(context.Background(), got.ID)
	if len(docs) != 1 || docs[0].Type != domain.EvidenceTitleDeed || docs[0].Name != "deed.pdf" {
		t.Fatalf("stored evidence = %+v", docs)
	}
	if len(reval.paths) == 0 {
		t.Fatalf("expected revalidation after create")
	}
}

func TestListingService_CreateWithCoordinates(t *testing.T) {
	svc, _, _, _ := newTestListingService()
	cmd := validCreate()
	cmd.Latitude = float64Ptr(-1.47)
	cmd.Longitude = float64Ptr(36.96)

	got, err := svc.Create(context.Background(), sellerA, cmd)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.IsApproximateLocation || got.Latitude != -1.47 {
		t.Fatalf("expected the supplied geocode, got %+v", got)
	}

	cmd.Longitude = nil
	if _, err := svc.Create(context.Background(), sellerA, cmd); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("half a coordinate pair error = %v, want validation", err)
	}
}

func TestListingService_CreateRejects(t *testing.T) {
	svc, _, _, _ := newTestListingService()

	if _, err := svc.Create(context.Background(), buyer, validCreate()); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("buyer create error = %v, want permission denied", err)
	}
	if _, err := svc.Create(context.Background(), anonymous, validCreate()); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("anonymous create error = %v, want permission denied", err)
	}

	cases := map[string]func(*CreateListingCommand){
		"title":    func(c *CreateListingCommand) { c.Title = " " },
		"price":    func(c *CreateListingCommand) { c.Price = 0 },
		"area":     func(c *CreateListingCommand) { c.Area = -1 },
		"county":   func(c *CreateListingCommand) { c.County = "" },
		"image":    func(c *CreateListingCommand) { c.Images = []ImageCommand{{URL: "not a url"}} },
		"evidence": func(c *CreateListingCommand) { c.Evidence = []EvidenceCommand{{Type: "deed"}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cmd := validCreate()
			mutate(&cmd)
			_, err := svc.Create(context.Background(), sellerA, cmd)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestListingService_DetailVisibility(t *testing.T) {
	svc, listings, _, _ := newTestListingService()
	created, err := svc.Create(context.Background(), sellerA, validCreate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Detail(context.Background(), anonymous, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("anonymous detail of pending listing error = %v, want not found", err)
	}
	if _, err := svc.Detail(context.Background(), sellerB, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("other seller detail error = %v, want not found", err)
	}

	for _, p := range []domain.Principal{sellerA, admin} {
		got, err := svc.Detail(context.Background(), p, created.ID)
		if err != nil {
			t.Fatalf("Detail(%s) error = %v", p.UID, err)
		}
		if got.BadgeSuggestion == nil || len(got.Evidence) != 1 || got.Evidence[0].StoragePath == "" {
			t.Fatalf("Detail(%s) should be unredacted, got %+v", p.UID, got)
		}
	}

	approved := listings.get(created.ID)
	approved.Status = domain.StatusApproved
	listings.put(approved)

	got, err := svc.Detail(context.Background(), anonymous, created.ID)
	if err != nil {
		t.Fatalf("Detail() of approved listing error = %v", err)
	}
	if got.BadgeSuggestion != nil || got.Evidence[0].StoragePath != "" {
		t.Fatalf("anonymous detail should be redacted, got %+v", got)
	}

	if _, err := svc.Detail(context.Background(), anonymous, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing listing error = %v", err)
	}
}

func TestListingService_OwnerEditResetsStatus(t *testing.T) {
	svc, listings, _, _ := newTestListingService()
	created, _ := svc.Create(context.Background(), sellerA, validCreate())

	approved := listings.get(created.ID)
	approved.Status = domain.StatusApproved
	approved.Badge = domain.BadgeSilver
	listings.put(approved)

	got, err := svc.Update(context.Background(), sellerA, created.ID, UpdateListingCommand{
		Price: int64Ptr(2_800_000),
		Evidence: []EvidenceCommand{
			{Type: "survey", StoragePath: "evidence/u1/survey.pdf"},
			{Type: "rates", StoragePath: "evidence/u1/rates.pdf"},
		},
		Images: &[]ImageCommand{
			{URL: "https://cdn.example.com/a.jpg"},
			{URL: "https://cdn.example.com/b.jpg"},
			{URL: "https://cdn.example.com/c.jpg"},
		},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("owner edit status = %s, want pending", got.Status)
	}
	if got.Badge != domain.BadgeSilver {
		t.Fatalf("owner edit must not touch the assigned badge, got %s", got.Badge)
	}
	if got.BadgeSuggestion.Badge != domain.BadgeGold {
		t.Fatalf("suggestion = %+v, want Gold", got.BadgeSuggestion)
	}
	if got.Price != 2_800_000 || len(got.Evidence) != 3 {
		t.Fatalf("patch not applied: %+v", got)
	}
}

// racingListings runs afterRead once, between the service loading a
// listing and writing it back.
type racingListings struct {
	*memoryListings
	afterRead func(id string)
}

func (r *racingListings) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := r.memoryListings.FindByID(ctx, id)
	if err == nil && r.afterRead != nil {
		hook := r.afterRead
		r.afterRead = nil
		hook(id)
	}
	return l, err
}

func TestListingService_OwnerEditKeepsConcurrentModeration(t *testing.T) {
	svc, listings, _, _ := newTestListingService()
	created, _ := svc.Create(context.Background(), sellerA, validCreate())
	reviewedAt := base.Add(time.Hour)
	svc.listings = &racingListings{memoryListings: listings, afterRead: func(id string) {
		moderated := listings.get(id)
		moderated.Status = domain.StatusApproved
		moderated.Badge = domain.BadgeGold
		moderated.AdminReviewedAt = &reviewedAt
		moderated.ImageAnalysis = &domain.ImageAnalysis{IsSuspicious: true, Reason: "stock photo"}
		listings.put(moderated)
	}}

	got, err := svc.Update(context.Background(), sellerA, created.ID, UpdateListingCommand{Price: int64Ptr(2_700_000)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	for name, l := range map[string]domain.Listing{"returned": *got, "stored": listings.get(created.ID)} {
		if l.Badge != domain.BadgeGold {
			t.Errorf("%s badge = %s, want gold", name, l.Badge)
		}
		if l.AdminReviewedAt == nil || !l.AdminReviewedAt.Equal(reviewedAt) {
			t.Errorf("%s adminReviewedAt = %v, want %v", name, l.AdminReviewedAt, reviewedAt)
		}
		if l.ImageAnalysis == nil || !l.ImageAnalysis.IsSuspicious {
			t.Errorf("%s imageAnalysis = %+v, was dropped", name, l.ImageAnalysis)
		}
		if l.Status != domain.StatusPending || l.Price != 2_700_000 {
			t.Errorf("%s = %s price %d, want pending at 2700000", name, l.Status, l.Price)
		}
	}
}

func TestListingService_AdminEditKeepsStatus(t *testing.T) {
	svc, listings, _, _ := newTestListingService()
	created, _ := svc.Create(context.Background(), sellerA, validCreate())
	approved := listings.get(created.ID)
	approved.Status = domain.StatusApproved
	listings.put(approved)

	got, err := svc.Update(context.Background(), admin, created.ID, UpdateListingCommand{Title: stringPtr("Corrected title")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Status != domain.StatusApproved || got.Title != "Corrected title" {
		t.Fatalf("admin edit = %s %q", got.Status, got.Title)
	}
}

func TestListingService_UpdateLocationMovesApproximatePin(t *testing.T) {
	svc, _, _, _ := newTestListingService()
	created, _ := svc.Create(context.Background(), sellerA, validCreate())

	got, err := svc.Update(context.Background(), sellerA, created.ID, UpdateListingCommand{Location: stringPtr("Naivasha")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	want := domain.GenerateCoordsFromLocation("Naivasha")
	if got.Latitude != want.Latitude || got.Longitude != want.Longitude {
		t.Fatalf("coordinates = (%v, %v), want %+v", got.Latitude, got.Longitude, want)
	}
}

func TestListingService_UpdatePermissions(t *testing.T) {
	svc, listings, _, _ := newTestListingService()
	created, _ := svc.Create(context.Background(), sellerA, validCreate())

	if _, err := svc.Update(context.Background(), sellerB, created.ID, UpdateListingCommand{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update of hidden listing error = %v, want not found", err)
	}

	approved := listings.get(created.ID)
	approved.Status = domain.StatusApproved
	listings.put(approved)
	if _, err := svc.Update(context.Background(), sellerB, created.ID, UpdateListingCommand{}); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("update of visible listing error = %v, want permission denied", err)
	}
	if err := svc.Delete(context.Background(), buyer, created.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("buyer delete error = %v, want permission denied", err)
	}
}

func TestListingService_Delete(t *testing.T) {
	svc, _, evidence, reval := newTestListingService()
	created, _ := svc.Create(context.Background(), sellerA, validCreate())
	reval.paths = nil

	if err := svc.Delete(context.Background(), sellerA, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Detail(context.Background(), sellerA, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted listing still readable: %v", err)
	}
	if docs, _ := evidence.FindByListing(context.Background(), created.ID); len(docs) != 0 {
		t.Fatalf("evidence not removed: %+v", docs)
	}
	if len(reval.paths) == 0 {
		t.Fatalf("expected revalidation after delete")
	}
}

func TestListingService_ForOwner(t *testing.T) {
	svc, _, _, _ := newTestListingService()
	_, _ = svc.Create(context.Background(), sellerA, validCreate())
	_, _ = svc.Create(context.Background(), sellerB, validCreate())

	got, err := svc.ForOwner(context.Background(), sellerA, sellerA.UID)
	if err != nil || len(got) != 1 {
		t.Fatalf("ForOwner() = %d, %v", len(got), err)
	}
	if _, err := svc.ForOwner(context.Background(), buyer, sellerA.UID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("foreign ForOwner error = %v", err)
	}
	if got, err := svc.ForOwner(context.Background(), admin, sellerB.UID); err != nil || len(got) != 1 {
		t.Fatalf("admin ForOwner() = %d, %v", len(got), err)
	}
}
