package search

import (
	"context"
	"testing"

	"github.com/Sternrassler/carsearch/internal/testutil"
	"github.com/Sternrassler/carsearch/pkg/client"
	"github.com/Sternrassler/carsearch/pkg/ratelimit"
)

// TestSearch_AgainstMockCatalog runs the controller over the real HTTP client.
func TestSearch_AgainstMockCatalog(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	private := testutil.DefaultListing("p2")
	private.Rating = ""

	mock.SetPage(1, testutil.NewPageResponse(testutil.DefaultListing("p1"), private))
	mock.SetPageSequence(2,
		testutil.NewChallengeResponse(),
		testutil.NewMalformedResponse(),
		testutil.NewPageResponse(testutil.DefaultListing("p3")),
	)

	cfg := client.DefaultConfig("TestApp/1.0.0")
	cfg.RequestsPerSecond = 0
	cfg.Throttle = ratelimit.Config{}
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	defer c.Close()

	ctrlCfg := DefaultConfig()
	ctrlCfg.BaseURL = mock.URL()
	ctrlCfg.Retry = RetryConfig{}
	ctrl, err := NewController(c, DefaultParameters(), ctrlCfg)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	opts := DefaultSearchOptions()
	opts.Sort = "Mileage"
	records, err := ctrl.Search(context.Background(), opts)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got, want := ids(records), []string{"p1", "p2", "p3"}; !equalIDs(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if got := mock.GetPageRequests(2); got != 3 {
		t.Errorf("page 2 requests = %d, want 3", got)
	}
	if got := mock.GetRequestCount(); got != 5 {
		t.Errorf("requests = %d, want 5", got)
	}
	if got := mock.GetLastQuery().Get("sort"); got != "mileage" {
		t.Errorf("sort = %q, want %q", got, "mileage")
	}

	first := records[0]
	if first.Link != "https://www.autotrader.co.uk/car-details/p1" {
		t.Errorf("Link = %q", first.Link)
	}
	if first.Price != 21995 {
		t.Errorf("Price = %d, want 21995", first.Price)
	}
	if first.Mileage != 45210 {
		t.Errorf("Mileage = %d, want 45210", first.Mileage)
	}
	if records[1].SellerRating != nil {
		t.Errorf("private seller rating = %v, want nil", *records[1].SellerRating)
	}
}
