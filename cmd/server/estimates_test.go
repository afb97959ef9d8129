package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aerocost/tripcost/internal/config"
	"github.com/aerocost/tripcost/internal/db"
	"github.com/aerocost/tripcost/internal/migrations"
	"github.com/aerocost/tripcost/internal/store"
	"github.com/aerocost/tripcost/internal/trip"
)

const testIdentityHeader = "Cf-Access-Authenticated-User-Email"

func newTestServer(t *testing.T, env string) (*server, *sql.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "server-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database, "../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := config.Config{
		Env:            env,
		IdentityHeader: testIdentityHeader,
		DevUserEmail:   "dev@tripcost.local",
	}
	return &server{store: store.New(database), cfg: cfg}, database
}

func doJSON(t *testing.T, srv *server, method, path, email string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	if email != "" {
		req.Header.Set(testIdentityHeader, email)
	}
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)
	return rr
}

func testEstimate() *trip.Estimate {
	return &trip.Estimate{
		Legs: []trip.Leg{
			{From: "PDX", To: "SFO", Time: "1:30", FuelBurnLb: 2000},
			{From: "SFO", To: "PDX", Time: "1:30", FuelBurnLb: 2000},
		},
		CrewRates: []trip.CrewRateEntry{{Role: trip.RolePilot, DailyRate: 1500}},
		Fuel:      trip.FuelParams{DensityLbPerGal: 6.7, PricePerGal: 5.00, ApuBurnLbPerLeg: 100},
		CrewExpense: trip.CrewExpenseParams{
			TripDays:    2,
			HotelRate:   150,
			MealsPerDay: 75,
		},
	}
}

func TestCalcReturnsTotalsAndSummary(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	rr := doJSON(t, srv, http.MethodPost, "/api/calc", "pilot@example.com", testEstimate())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Estimate trip.Estimate `json:"estimate"`
		Totals   trip.Totals   `json:"totals"`
		Summary  string        `json:"summary"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Totals.GrandTotal <= 0 {
		t.Fatalf("GrandTotal = %v, want > 0", resp.Totals.GrandTotal)
	}
	if resp.Totals.TotalMinutes != 180 {
		t.Fatalf("TotalMinutes = %d, want 180", resp.Totals.TotalMinutes)
	}
	// Hotel nights mirror written back into the returned snapshot.
	if resp.Estimate.CrewExpense.HotelNights.Nights != 1 {
		t.Fatalf("normalized hotel nights = %d, want 1", resp.Estimate.CrewExpense.HotelNights.Nights)
	}
	if !strings.HasPrefix(resp.Summary, "Trip Cost Estimate") {
		t.Fatalf("unexpected summary: %s", resp.Summary)
	}
}

func TestCalcRejectsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	req := httptest.NewRequest(http.MethodPost, "/api/calc", strings.NewReader("{not json"))
	req.Header.Set(testIdentityHeader, "pilot@example.com")
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCreateGetRoundTripReproducesTotals(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	rr := doJSON(t, srv, http.MethodPost, "/api/estimates", "pilot@example.com",
		map[string]any{"name": "West Coast Run", "data": testEstimate()})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var created struct {
		ID     string          `json:"id"`
		Data   json.RawMessage `json:"data"`
		Totals json.RawMessage `json:"totals"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if !strings.HasPrefix(created.ID, "est_") {
		t.Fatalf("estimate id %q missing est_ prefix", created.ID)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/estimates/"+created.ID, "pilot@example.com", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	var fetched struct {
		Data   json.RawMessage `json:"data"`
		Totals json.RawMessage `json:"totals"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}

	// Restoring the stored snapshot reproduces an identical output snapshot.
	var restored trip.Estimate
	if err := json.Unmarshal(fetched.Data, &restored); err != nil {
		t.Fatalf("decode stored snapshot: %v", err)
	}
	recomputed, err := json.Marshal(trip.Recalculate(&restored))
	if err != nil {
		t.Fatalf("marshal recomputed totals: %v", err)
	}
	if string(recomputed) != string(fetched.Totals) {
		t.Fatalf("recomputed totals differ from stored totals:\n%s\n%s", recomputed, fetched.Totals)
	}
}

func TestCreateRequiresNameAndData(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	for _, body := range []map[string]any{
		{"data": testEstimate()},
		{"name": "No Data"},
		{"name": "   ", "data": testEstimate()},
	} {
		rr := doJSON(t, srv, http.MethodPost, "/api/estimates", "pilot@example.com", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %v: status = %d, want 400", body, rr.Code)
		}
	}
}

func TestListScopedToUserAndFiltered(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	for _, name := range []string{"Aspen Weekend", "Teterboro Shuttle"} {
		rr := doJSON(t, srv, http.MethodPost, "/api/estimates", "alice@example.com",
			map[string]any{"name": name, "data": testEstimate()})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create %q: status = %d", name, rr.Code)
		}
	}
	rr := doJSON(t, srv, http.MethodPost, "/api/estimates", "bob@example.com",
		map[string]any{"name": "Bob Only", "data": testEstimate()})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create for bob: status = %d", rr.Code)
	}

	var list struct {
		Estimates []struct {
			Name       string  `json:"name"`
			GrandTotal float64 `json:"grand_total"`
		} `json:"estimates"`
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/estimates", "alice@example.com", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Estimates) != 2 {
		t.Fatalf("alice sees %d estimates, want 2", len(list.Estimates))
	}
	for _, item := range list.Estimates {
		if item.GrandTotal <= 0 {
			t.Fatalf("list item missing grand total: %+v", item)
		}
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/estimates?q=Aspen", "alice@example.com", nil)
	list.Estimates = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode filtered list: %v", err)
	}
	if len(list.Estimates) != 1 || list.Estimates[0].Name != "Aspen Weekend" {
		t.Fatalf("unexpected filtered list: %+v", list.Estimates)
	}
}

func TestUpdateRecomputesStoredTotals(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	rr := doJSON(t, srv, http.MethodPost, "/api/estimates", "pilot@example.com",
		map[string]any{"name": "Draft", "data": testEstimate()})
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	richer := testEstimate()
	richer.Airport.Landing = 10000

	rr = doJSON(t, srv, http.MethodPut, "/api/estimates/"+created.ID, "pilot@example.com",
		map[string]any{"data": richer})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var updated struct {
		Totals trip.Totals `json:"totals"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update response: %v", err)
	}
	if updated.Totals.AirportSubtotal != 10000 {
		t.Fatalf("AirportSubtotal = %v, want 10000", updated.Totals.AirportSubtotal)
	}
}

func TestUpdateRequiresNameOrData(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	rr := doJSON(t, srv, http.MethodPost, "/api/estimates", "pilot@example.com",
		map[string]any{"name": "Draft", "data": testEstimate()})
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/estimates/"+created.ID, "pilot@example.com", map[string]any{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	rr := doJSON(t, srv, http.MethodPost, "/api/estimates", "pilot@example.com",
		map[string]any{"name": "Doomed", "data": testEstimate()})
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/estimates/"+created.ID, "pilot@example.com", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/estimates/"+created.ID, "pilot@example.com", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rr.Code)
	}
}

func TestSummaryEndpointReturnsPlainText(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	est := testEstimate()
	est.Notes = "Wheels up 0700."
	rr := doJSON(t, srv, http.MethodPost, "/api/estimates", "pilot@example.com",
		map[string]any{"name": "Summary Trip", "data": est})
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/estimates/"+created.ID+"/summary", "pilot@example.com", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("content type = %q, want text/plain", rr.Header().Get("Content-Type"))
	}

	body := rr.Body.String()
	for _, want := range []string{"Trip Cost Estimate", "- Leg 1: PDX → SFO 1:30", "Estimated Total: ", "Trip Notes:\nWheels up 0700."} {
		if !strings.Contains(body, want) {
			t.Fatalf("summary missing %q:\n%s", want, body)
		}
	}
}

func TestShareFlowAllowsTokenReadWithoutIdentity(t *testing.T) {
	srv, _ := newTestServer(t, "production")

	rr := doJSON(t, srv, http.MethodPost, "/api/estimates", "owner@example.com",
		map[string]any{"name": "Shared Trip", "data": testEstimate()})
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/estimates/"+created.ID+"/share", "owner@example.com", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("share status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var share struct {
		ShareToken string `json:"share_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &share); err != nil {
		t.Fatalf("decode share response: %v", err)
	}

	// No identity header at all: tokened read must still work.
	rr = doJSON(t, srv, http.MethodGet, "/api/shared/"+share.ShareToken, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("shared get status = %d, body: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/estimates/"+created.ID+"/share", "owner@example.com", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unshare status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/shared/"+share.ShareToken, "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("shared get after revoke status = %d, want 404", rr.Code)
	}
}
