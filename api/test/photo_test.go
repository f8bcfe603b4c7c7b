package test

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mgiulio/photo-market/core/auditlog"
	"github.com/mgiulio/photo-market/core/photo"
	"github.com/mgiulio/photo-market/validate"
	"github.com/shopspring/decimal"
)

func TestGallery(t *testing.T) {
	env := NewTestEnv(t, "gallery_test")

	admin := env.Login(t, env.AdminName, env.AdminPass)

	seed := []map[string]interface{}{
		{"title": "Dunes", "description": "desert dunes", "theme": "Nature",
			"imageUrl": "https://photos.example.com/dunes.jpg",
			"priceLicense": 5.00, "pricePrint": 3.00, "inventory": 5},
		{"title": "Alleys", "description": "old town alleys", "theme": "City",
			"imageUrl": "https://photos.example.com/alleys.jpg",
			"priceLicense": 20.00, "pricePrint": 8.00, "inventory": 2},
		{"title": "Harbor", "description": "harbor at dusk", "theme": "City",
			"imageUrl": "https://photos.example.com/harbor.jpg",
			"priceLicense": 50.00, "pricePrint": 25.00, "inventory": 1},
	}
	created := make([]photo.Photo, len(seed))
	for i, payload := range seed {
		do(t, admin, http.MethodPost, env.URL+"/photos", payload, http.StatusCreated, &created[i])
	}

	// The gallery is public and a fetched photo matches what was created.
	anon := &http.Client{}
	var got photo.Photo
	do(t, anon, http.MethodGet, env.URL+"/photos/"+created[0].ID, nil, http.StatusOK, &got)
	// Postgres keeps microseconds, the create response nanoseconds.
	if diff := cmp.Diff(created[0], got, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Fatalf("fetched photo differs from created one:\n%s", diff)
	}

	var all []photo.Photo
	do(t, anon, http.MethodGet, env.URL+"/photos", nil, http.StatusOK, &all)
	if len(all) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(all))
	}

	var city []photo.Photo
	do(t, anon, http.MethodGet, env.URL+"/photos?theme=City", nil, http.StatusOK, &city)
	if len(city) != 2 {
		t.Fatalf("expected 2 City photos, got %d", len(city))
	}

	// Price bounds are inclusive and apply to the selected price kind.
	var prints []photo.Photo
	do(t, anon, http.MethodGet, env.URL+"/photos?type=print&price_min=3&price_max=8", nil, http.StatusOK, &prints)
	if len(prints) != 2 {
		t.Fatalf("expected 2 photos with print price in [3, 8], got %+v", prints)
	}

	var none []photo.Photo
	do(t, anon, http.MethodGet, env.URL+"/photos?theme=Nature&type=license&price_min=10", nil, http.StatusOK, &none)
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %+v", none)
	}

	do(t, anon, http.MethodGet, env.URL+"/photos?price_min=abc", nil, http.StatusBadRequest, nil)

	var themes []string
	do(t, anon, http.MethodGet, env.URL+"/themes", nil, http.StatusOK, &themes)
	if diff := cmp.Diff([]string{"City", "Nature"}, themes); diff != "" {
		t.Fatalf("unexpected themes:\n%s", diff)
	}
}

func TestPhotoAdminOnly(t *testing.T) {
	env := NewTestEnv(t, "photo_admin_test")

	name, pass := env.Signup(t)
	client := env.Login(t, name, pass)

	payload := map[string]interface{}{
		"title": "Sneaky", "description": "not allowed", "theme": "Nature",
		"imageUrl": "https://photos.example.com/sneaky.jpg",
		"priceLicense": 1.00, "pricePrint": 1.00, "inventory": 1,
	}
	do(t, client, http.MethodPost, env.URL+"/photos", payload, http.StatusUnauthorized, nil)

	admin := env.Login(t, env.AdminName, env.AdminPass)
	p := createPhoto(t, env, admin, 1)

	do(t, client, http.MethodPut, env.URL+"/photos/"+p.ID,
		map[string]interface{}{"title": "Hijacked"}, http.StatusUnauthorized, nil)
	do(t, client, http.MethodDelete, env.URL+"/photos/"+p.ID, nil, http.StatusUnauthorized, nil)
}

func TestPhotoUpdateAndAudit(t *testing.T) {
	env := NewTestEnv(t, "photo_update_test")

	admin := env.Login(t, env.AdminName, env.AdminPass)
	p := createPhoto(t, env, admin, 5)

	update := map[string]interface{}{"title": "Renamed", "pricePrint": 4.50}
	var up photo.Photo
	do(t, admin, http.MethodPut, env.URL+"/photos/"+p.ID, update, http.StatusOK, &up)
	if up.Title != "Renamed" || !up.PricePrint.Equal(decimal.RequireFromString("4.50")) {
		t.Fatalf("unexpected updated photo: %+v", up)
	}
	if up.Theme != p.Theme || up.Inventory != p.Inventory {
		t.Fatalf("untouched fields must survive the update: %+v", up)
	}

	// Prices are capped at two decimal places.
	do(t, admin, http.MethodPut, env.URL+"/photos/"+p.ID,
		map[string]interface{}{"pricePrint": 4.555}, http.StatusUnprocessableEntity, nil)

	do(t, admin, http.MethodPut, env.URL+"/photos/"+validate.GenerateID(), update, http.StatusNotFound, nil)

	// Audit entries land off the request path, so give the writer a moment.
	var entries []auditlog.Entry
	deadline := time.Now().Add(2 * time.Second)
	for {
		do(t, admin, http.MethodGet, env.URL+"/admin/audit-logs", nil, http.StatusOK, &entries)
		if len(entries) >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %+v", entries)
	}
	if entries[0].Action != auditlog.ActionUpload || entries[1].Action != auditlog.ActionUpdate {
		t.Fatalf("unexpected audit actions: %+v", entries)
	}
	if entries[1].SubjectID != p.ID || entries[1].Label != "Renamed" {
		t.Fatalf("unexpected audit entry: %+v", entries[1])
	}
}
