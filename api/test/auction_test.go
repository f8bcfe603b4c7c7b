package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mgiulio/photo-market/core/auction"
	"github.com/mgiulio/photo-market/core/paylog"
	"github.com/mgiulio/photo-market/random"
	"github.com/shopspring/decimal"
)

func createAuction(t *testing.T, env *TestEnv, admin *http.Client, basePrice float64) auction.LimitedPhoto {
	t.Helper()

	payload := map[string]interface{}{
		"title":       "Limited " + random.String(6),
		"description": "a limited run",
		"imageUrl":    "https://photos.example.com/" + random.String(8) + ".jpg",
		"basePrice":   basePrice,
	}

	var lp auction.LimitedPhoto
	do(t, admin, http.MethodPost, env.URL+"/auctions", payload, http.StatusCreated, &lp)
	return lp
}

// closeAuction rewinds the end date so the auction is past due.
func closeAuction(t *testing.T, env *TestEnv, photoID string) {
	t.Helper()

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := env.DB.Exec("UPDATE limited_photos SET end_date = $1 WHERE photo_id = $2", past, photoID); err != nil {
		t.Fatalf("rewinding end date: %v", err)
	}
}

func placeBid(t *testing.T, env *TestEnv, client *http.Client, photoID string, amount float64, want int) auction.Bid {
	t.Helper()

	var bid auction.Bid
	var out interface{}
	if want == http.StatusCreated {
		out = &bid
	}
	do(t, client, http.MethodPost, env.URL+"/auctions/"+photoID+"/bids",
		map[string]interface{}{"amount": amount}, want, out)
	return bid
}

func TestBidding(t *testing.T) {
	env := NewTestEnv(t, "auction_test")

	admin := env.Login(t, env.AdminName, env.AdminPass)
	lp := createAuction(t, env, admin, 10.00)

	nameA, passA := env.Signup(t)
	clientA := env.Login(t, nameA, passA)
	nameB, passB := env.Signup(t)
	clientB := env.Login(t, nameB, passB)

	// Below the base price.
	placeBid(t, env, clientA, lp.ID, 8.00, http.StatusConflict)

	placeBid(t, env, clientA, lp.ID, 12.00, http.StatusCreated)

	// Below the standing high bid.
	placeBid(t, env, clientB, lp.ID, 11.00, http.StatusConflict)

	winning := placeBid(t, env, clientB, lp.ID, 15.00, http.StatusCreated)

	var listing auction.Listing
	do(t, clientA, http.MethodGet, env.URL+"/auctions/"+lp.ID, nil, http.StatusOK, &listing)
	if !listing.HighestBid.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected highest bid 15, got %s", listing.HighestBid)
	}

	closeAuction(t, env, lp.ID)

	// Late bids are rejected server-side.
	placeBid(t, env, clientA, lp.ID, 20.00, http.StatusConflict)

	var report auction.SettlementReport
	do(t, admin, http.MethodPost, env.URL+"/auctions/settle", nil, http.StatusOK, &report)
	if len(report.Settled) != 1 {
		t.Fatalf("expected 1 settled auction, got %+v", report)
	}
	s := report.Settled[0]
	if s.PhotoID != lp.ID || s.WinnerID != winning.UserID || !s.Amount.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected settlement: %+v", s)
	}

	var entries []paylog.Entry
	do(t, admin, http.MethodGet, env.URL+"/admin/payment-logs", nil, http.StatusOK, &entries)
	if len(entries) != 1 || !entries[0].Amount.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected one payment entry of 15, got %+v", entries)
	}

	// Settling again finds nothing: exactly-once payout.
	do(t, admin, http.MethodPost, env.URL+"/auctions/settle", nil, http.StatusOK, &report)
	if len(report.Settled) != 0 || len(report.Expired) != 0 {
		t.Fatalf("second sweep should be a no-op, got %+v", report)
	}

	do(t, admin, http.MethodGet, env.URL+"/admin/payment-logs", nil, http.StatusOK, &entries)
	if len(entries) != 1 {
		t.Fatalf("second sweep must not pay again, got %d entries", len(entries))
	}

	do(t, clientA, http.MethodGet, env.URL+"/auctions/"+lp.ID, nil, http.StatusNotFound, nil)
	placeBid(t, env, clientA, lp.ID, 30.00, http.StatusNotFound)
}

func TestAuctionListingAggregates(t *testing.T) {
	env := NewTestEnv(t, "auction_listing_test")

	admin := env.Login(t, env.AdminName, env.AdminPass)
	quiet := createAuction(t, env, admin, 10.00)
	busy := createAuction(t, env, admin, 5.00)

	name, pass := env.Signup(t)
	bidder := env.Login(t, name, pass)
	placeBid(t, env, bidder, busy.ID, 7.00, http.StatusCreated)
	placeBid(t, env, bidder, busy.ID, 9.00, http.StatusCreated)

	var active []auction.Listing
	do(t, admin, http.MethodGet, env.URL+"/auctions", nil, http.StatusOK, &active)
	if len(active) != 2 {
		t.Fatalf("expected 2 active auctions, got %d", len(active))
	}

	byID := map[string]auction.Listing{}
	for _, l := range active {
		byID[l.ID] = l
	}

	got := byID[busy.ID]
	if !got.HighestBid.Equal(decimal.NewFromInt(9)) || got.BidCount != 2 {
		t.Fatalf("expected highest bid 9 over 2 bids, got %s over %d", got.HighestBid, got.BidCount)
	}

	got = byID[quiet.ID]
	if !got.HighestBid.IsZero() || got.BidCount != 0 {
		t.Fatalf("expected a bidless listing, got %s over %d", got.HighestBid, got.BidCount)
	}
}

func TestZeroBidAuctionExpires(t *testing.T) {
	env := NewTestEnv(t, "auction_expiry_test")

	admin := env.Login(t, env.AdminName, env.AdminPass)
	lp := createAuction(t, env, admin, 10.00)
	closeAuction(t, env, lp.ID)

	var report auction.SettlementReport
	do(t, admin, http.MethodPost, env.URL+"/auctions/settle", nil, http.StatusOK, &report)
	if len(report.Expired) != 1 || report.Expired[0] != lp.ID {
		t.Fatalf("expected the auction to expire, got %+v", report)
	}
	if len(report.Settled) != 0 {
		t.Fatalf("zero-bid auction must not settle, got %+v", report)
	}

	var entries []paylog.Entry
	do(t, admin, http.MethodGet, env.URL+"/admin/payment-logs", nil, http.StatusOK, &entries)
	if len(entries) != 0 {
		t.Fatalf("zero-bid expiry must not pay anyone, got %+v", entries)
	}

	var active []auction.Listing
	do(t, admin, http.MethodGet, env.URL+"/auctions", nil, http.StatusOK, &active)
	if len(active) != 0 {
		t.Fatalf("expired auction should not be listed, got %+v", active)
	}

	do(t, admin, http.MethodPost, env.URL+"/auctions/settle", nil, http.StatusOK, &report)
	if len(report.Expired) != 0 {
		t.Fatalf("expired auction must not be swept twice, got %+v", report)
	}
}

func TestConcurrentBids(t *testing.T) {
	env := NewTestEnv(t, "auction_race_test")

	admin := env.Login(t, env.AdminName, env.AdminPass)
	lp := createAuction(t, env, admin, 10.00)

	const bidders = 8
	clients := make([]*http.Client, bidders)
	for i := range clients {
		name, pass := env.Signup(t)
		clients[i] = env.Login(t, name, pass)
	}

	var wg sync.WaitGroup
	for i, client := range clients {
		wg.Add(1)
		go func(i int, client *http.Client) {
			defer wg.Done()

			amount := fmt.Sprintf(`{"amount": %d}`, 11+i)
			r, err := http.NewRequest(http.MethodPost, env.URL+"/auctions/"+lp.ID+"/bids",
				strings.NewReader(amount))
			if err != nil {
				return
			}
			r.Header.Set("Content-Type", "application/json")

			w, err := client.Do(r)
			if err != nil {
				return
			}
			w.Body.Close()
		}(i, client)
	}
	wg.Wait()

	// Whatever interleaving happened, the accepted sequence must be
	// strictly increasing in insertion order.
	var amounts []decimal.Decimal
	if err := env.DB.Select(&amounts, "SELECT amount FROM bids WHERE photo_id = $1 ORDER BY created_at, bid_id", lp.ID); err != nil {
		t.Fatal(err)
	}
	if len(amounts) == 0 {
		t.Fatal("expected at least one accepted bid")
	}
	for i := 1; i < len(amounts); i++ {
		if !amounts[i].GreaterThan(amounts[i-1]) {
			t.Fatalf("accepted bids are not strictly increasing: %v", amounts)
		}
	}

	var listing auction.Listing
	do(t, admin, http.MethodGet, env.URL+"/auctions/"+lp.ID, nil, http.StatusOK, &listing)
	if !listing.HighestBid.Equal(amounts[len(amounts)-1]) {
		t.Fatalf("highest bid %s does not match last accepted %s", listing.HighestBid, amounts[len(amounts)-1])
	}
}

func TestConcurrentSettlement(t *testing.T) {
	env := NewTestEnv(t, "auction_settle_race_test")

	admin := env.Login(t, env.AdminName, env.AdminPass)

	name, pass := env.Signup(t)
	client := env.Login(t, name, pass)

	const auctions = 3
	for i := 0; i < auctions; i++ {
		lp := createAuction(t, env, admin, 10.00)
		placeBid(t, env, client, lp.ID, 12.00, http.StatusCreated)
		closeAuction(t, env, lp.ID)
	}

	reports := make([]auction.SettlementReport, 2)
	var wg sync.WaitGroup
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			r, err := http.NewRequest(http.MethodPost, env.URL+"/auctions/settle", nil)
			if err != nil {
				return
			}
			w, err := admin.Do(r)
			if err != nil {
				return
			}
			defer w.Body.Close()
			if w.StatusCode == http.StatusOK {
				_ = json.NewDecoder(w.Body).Decode(&reports[i])
			}
		}(i)
	}
	wg.Wait()

	settled := len(reports[0].Settled) + len(reports[1].Settled)
	if settled != auctions {
		t.Fatalf("expected %d settlements across both sweeps, got %d", auctions, settled)
	}

	var entries []paylog.Entry
	do(t, admin, http.MethodGet, env.URL+"/admin/payment-logs", nil, http.StatusOK, &entries)
	if len(entries) != auctions {
		t.Fatalf("expected %d payment entries, got %d", auctions, len(entries))
	}
}
