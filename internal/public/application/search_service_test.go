package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func listing(n int, price int64, area float64, status domain.ListingStatus) domain.Listing {
	return domain.Listing{
		OwnerID:   sellerA.UID,
		Title:     fmt.Sprintf("Plot %d", n),
		Location:  "Ruiru",
		County:    "Kiambu",
		Price:     price,
		Area:      area,
		LandType:  "residential",
		Status:    status,
		Badge:     domain.BadgeNone,
		CreatedAt: base.Add(time.Duration(n) * time.Minute),
	}
}

func drain(t *testing.T, svc SearchService, p domain.Principal, filter SearchFilter, pageSize int) []domain.Listing {
	t.Helper()
	var (
		all    []domain.Listing
		cursor string
	)
	for i := 0; i < 1000; i++ {
		page, err := svc.Search(context.Background(), p, filter, pageSize, cursor)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			return all
		}
		cursor = page.NextCursor
	}
	t.Fatalf("pagination did not terminate")
	return nil
}

func TestSearch_ExampleScenario(t *testing.T) {
	repo := newMemoryListings(listing(1, 5_000_000, 5, domain.StatusApproved))
	svc := NewSearchService(repo, 0, 0)

	page, err := svc.Search(context.Background(), anonymous, SearchFilter{
		MinPrice: int64Ptr(1_000_000),
		MaxPrice: int64Ptr(6_000_000),
		MinArea:  float64Ptr(3),
		MaxArea:  float64Ptr(10),
	}, 10, "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected the listing to match, got %d items", len(page.Items))
	}

	page, err = svc.Search(context.Background(), anonymous, SearchFilter{MinPrice: int64Ptr(6_000_000)}, 10, "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected no match above 6M, got %d", len(page.Items))
	}
}

func TestSearch_PaginationCompleteness(t *testing.T) {
	var seed []domain.Listing
	for i := 1; i <= 37; i++ {
		l := listing(i, int64(i%9+1)*1_000_000, float64(i%7+1), domain.StatusApproved)
		if i%5 == 0 {
			l.Status = domain.StatusPending
		}
		if i%4 == 0 {
			l.Badge = domain.BadgeGold
		}
		if i%3 == 0 {
			l.Title = "Shamba near Thika road"
		}
		seed = append(seed, l)
	}
	repo := newMemoryListings(seed...)
	svc := NewSearchService(repo, 0, 0)

	filters := map[string]SearchFilter{
		"none":        {},
		"price":       {MinPrice: int64Ptr(3_000_000), MaxPrice: int64Ptr(7_000_000)},
		"area":        {MinArea: float64Ptr(2), MaxArea: float64Ptr(5)},
		"text":        {Query: "thika"},
		"badge":       {Badges: []string{"Gold"}},
		"price+area":  {MinPrice: int64Ptr(2_000_000), MinArea: float64Ptr(4)},
		"everything":  {Query: "SHAMBA", MaxPrice: int64Ptr(8_000_000), MaxArea: float64Ptr(6), Badges: []string{"Gold", "None"}, LandType: "residential"},
		"no results":  {LandType: "agricultural"},
		"text + area": {Query: "plot", MinArea: float64Ptr(7)},
	}

	for name, filter := range filters {
		want := map[string]bool{}
		for _, l := range seed {
			if l.Status != domain.StatusApproved {
				continue
			}
			if matchesFilter(l, filter) {
				want[l.Title+"|"+fmt.Sprint(l.CreatedAt.Unix())] = true
			}
		}
		for _, size := range []int{1, 2, 5, 7, 12, 100} {
			t.Run(fmt.Sprintf("%s/size=%d", name, size), func(t *testing.T) {
				got := drain(t, svc, anonymous, filter, size)
				seen := map[string]bool{}
				for _, l := range got {
					if seen[l.ID] {
						t.Fatalf("listing %s returned twice", l.ID)
					}
					seen[l.ID] = true
					key := l.Title + "|" + fmt.Sprint(l.CreatedAt.Unix())
					if !want[key] {
						t.Fatalf("listing %s should not match", l.ID)
					}
				}
				if len(got) != len(want) {
					t.Fatalf("got %d listings, want %d", len(got), len(want))
				}
			})
		}
	}
}

func matchesFilter(l domain.Listing, f SearchFilter) bool {
	if f.MinPrice != nil && l.Price < *f.MinPrice || f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	if !withinArea(l.Area, f.MinArea, f.MaxArea) {
		return false
	}
	if f.LandType != "" && l.LandType != f.LandType {
		return false
	}
	if len(f.Badges) > 0 {
		badges, _ := domain.NewBadgeList(f.Badges)
		if !badges.Contains(l.Badge) {
			return false
		}
	}
	if f.Query != "" && !matchesText(l, strings.ToLower(f.Query)) {
		return false
	}
	return true
}

func TestSearch_ShortPageStillSignalsMore(t *testing.T) {
	var seed []domain.Listing
	for i := 1; i <= 6; i++ {
		seed = append(seed, listing(i, 1_000_000, 1, domain.StatusApproved))
	}
	// Only the oldest listing is large enough; it sits on the last raw page.
	seed[0].Area = 50
	repo := newMemoryListings(seed...)
	svc := NewSearchService(repo, 0, 0)

	page, err := svc.Search(context.Background(), anonymous, SearchFilter{MinArea: float64Ptr(10)}, 3, "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("first page should be empty after filtering, got %d", len(page.Items))
	}
	if page.NextCursor == "" {
		t.Fatalf("a full raw page must yield a cursor even when nothing survived filtering")
	}

	page, err = svc.Search(context.Background(), anonymous, SearchFilter{MinArea: float64Ptr(10)}, 3, page.NextCursor)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Area != 50 {
		t.Fatalf("expected the large plot on the second page, got %+v", page.Items)
	}
}

func TestSearch_NoCursorWhenRawPageShort(t *testing.T) {
	repo := newMemoryListings(listing(1, 1_000_000, 1, domain.StatusApproved), listing(2, 2_000_000, 1, domain.StatusApproved))
	svc := NewSearchService(repo, 0, 0)

	page, err := svc.Search(context.Background(), anonymous, SearchFilter{}, 5, "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if page.NextCursor != "" {
		t.Fatalf("NextCursor = %q, want empty", page.NextCursor)
	}
	if len(page.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(page.Items))
	}
}

func TestSearch_InvalidCursorStartsOver(t *testing.T) {
	repo := newMemoryListings(listing(1, 1_000_000, 1, domain.StatusApproved), listing(2, 2_000_000, 1, domain.StatusApproved))
	svc := NewSearchService(repo, 0, 0)

	page, err := svc.Search(context.Background(), anonymous, SearchFilter{}, 10, "deleted-listing")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected scan from the beginning, got %d items", len(page.Items))
	}
}

func TestSearch_HidesUnapprovedListings(t *testing.T) {
	repo := newMemoryListings(
		listing(1, 1_000_000, 1, domain.StatusApproved),
		listing(2, 1_000_000, 1, domain.StatusPending),
		listing(3, 1_000_000, 1, domain.StatusRejected),
	)
	svc := NewSearchService(repo, 0, 0)

	for _, p := range []domain.Principal{anonymous, buyer, sellerB} {
		for _, status := range []string{"", "all", "pending", "rejected"} {
			page, err := svc.Search(context.Background(), p, SearchFilter{Status: status}, 10, "")
			if err != nil {
				t.Fatalf("Search(%s, %q) error = %v", p.UID, status, err)
			}
			for _, l := range page.Items {
				if l.Status != domain.StatusApproved {
					t.Fatalf("principal %q saw %s listing %s", p.UID, l.Status, l.ID)
				}
			}
		}
	}
	if q := repo.scans[0]; q.Status == nil || *q.Status != domain.StatusApproved {
		t.Fatalf("expected status pushed down as approved, got %v", q.Status)
	}
}

func TestSearch_AdminStatusFilter(t *testing.T) {
	repo := newMemoryListings(
		listing(1, 1_000_000, 1, domain.StatusApproved),
		listing(2, 1_000_000, 1, domain.StatusPending),
		listing(3, 1_000_000, 1, domain.StatusRejected),
	)
	svc := NewSearchService(repo, 0, 0)

	cases := map[string]int{"": 1, "all": 3, "ALL": 3, "pending": 1, "rejected": 1}
	for status, want := range cases {
		page, err := svc.Search(context.Background(), admin, SearchFilter{Status: status}, 10, "")
		if err != nil {
			t.Fatalf("Search(%q) error = %v", status, err)
		}
		if len(page.Items) != want {
			t.Fatalf("Search(%q) = %d items, want %d", status, len(page.Items), want)
		}
	}

	if _, err := svc.Search(context.Background(), admin, SearchFilter{Status: "archived"}, 10, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown status error = %v, want validation", err)
	}
}

func TestSearch_RedactsAdvisoryFields(t *testing.T) {
	l := listing(1, 1_000_000, 1, domain.StatusApproved)
	l.BadgeSuggestion = &domain.BadgeSuggestion{Badge: domain.BadgeSilver, Reason: "x"}
	l.ImageAnalysis = &domain.ImageAnalysis{IsSuspicious: true}
	repo := newMemoryListings(l)
	svc := NewSearchService(repo, 0, 0)

	page, _ := svc.Search(context.Background(), buyer, SearchFilter{}, 10, "")
	if page.Items[0].BadgeSuggestion != nil || page.Items[0].ImageAnalysis != nil {
		t.Fatalf("buyer should not see advisory fields")
	}
	page, _ = svc.Search(context.Background(), sellerA, SearchFilter{}, 10, "")
	if page.Items[0].BadgeSuggestion == nil {
		t.Fatalf("owner should see the badge suggestion")
	}
}

func TestSearch_QueryPushdown(t *testing.T) {
	repo := newMemoryListings()
	svc := NewSearchService(repo, 12, 50)

	_, err := svc.Search(context.Background(), anonymous, SearchFilter{
		MinPrice: int64Ptr(1),
		MinArea:  float64Ptr(2),
		LandType: " agricultural ",
		Badges:   []string{"gold", "Silver"},
	}, 500, " abc ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	q := repo.scans[0]
	if !q.SortByPrice {
		t.Errorf("price filter should switch to price ordering")
	}
	if q.Limit != 50 {
		t.Errorf("Limit = %d, want clamp to 50", q.Limit)
	}
	if q.LandType != "agricultural" || q.After != "abc" {
		t.Errorf("unexpected query %+v", q)
	}
	if len(q.Badges) != 2 {
		t.Errorf("Badges = %v", q.Badges)
	}

	_, _ = svc.Search(context.Background(), anonymous, SearchFilter{}, 0, "")
	if q := repo.scans[1]; q.Limit != 12 || q.SortByPrice {
		t.Errorf("default query = %+v", q)
	}
}

func TestSearch_Validation(t *testing.T) {
	svc := NewSearchService(newMemoryListings(), 0, 0)
	cases := map[string]SearchFilter{
		"negative price": {MinPrice: int64Ptr(-1)},
		"inverted price": {MinPrice: int64Ptr(10), MaxPrice: int64Ptr(5)},
		"inverted area":  {MinArea: float64Ptr(10), MaxArea: float64Ptr(5)},
		"negative area":  {MaxArea: float64Ptr(-2)},
		"unknown badge":  {Badges: []string{"Platinum"}},
	}
	for name, filter := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), anonymous, filter, 10, "")
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("error = %v, want validation", err)
			}
		})
	}
}

func TestSearch_StoreFailure(t *testing.T) {
	repo := newMemoryListings()
	repo.scanErr = errors.New("boom")
	svc := NewSearchService(repo, 0, 0)
	if _, err := svc.Search(context.Background(), anonymous, SearchFilter{}, 10, ""); err == nil {
		t.Fatalf("expected store error to surface")
	}
}
