package dpsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/ri-erusk/texas-dps-scheduler/config"
	"github.com/ri-erusk/texas-dps-scheduler/metrics"
	"github.com/ri-erusk/texas-dps-scheduler/models"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.App.BaseURL = "http://dps.test"
	cfg.App.MaxRetries = 2
	cfg.Personal.FirstName = "Jane"
	cfg.Personal.LastName = "Doe"
	cfg.Personal.DateOfBirth = "01/02/1990"
	cfg.Personal.LastFourSSN = "1234"
	cfg.Personal.Email = "jane@example.com"
	return cfg
}

func newTestClient(cfg *config.Config) (*Client, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	client := New(cfg, metrics.New())
	client.WithTransport(transport)
	return client, transport
}

func TestPostRetriesToCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.App.MaxRetries = 2
	client, transport := newTestClient(cfg)
	transport.RegisterResponder("POST", "http://dps.test/api/AvailableLocation",
		httpmock.NewStringResponder(http.StatusInternalServerError, "upstream broken"))

	_, err := client.SearchLocations(context.Background(), "78701")
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}

	var exhausted RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want RetriesExhaustedError", err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", exhausted.Attempts)
	}
	var status StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusInternalServerError {
		t.Fatalf("want wrapped StatusError with 500, got %v", err)
	}
	if got := transport.GetTotalCallCount(); got != 3 {
		t.Fatalf("total requests = %d, want 3 (maxRetries+1)", got)
	}
}

func TestPostRecoversAfterTransientFailure(t *testing.T) {
	client, transport := newTestClient(testConfig())

	calls := 0
	transport.RegisterResponder("POST", "http://dps.test/api/AvailableLocation",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(http.StatusBadGateway, "flaky"), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `[{"Id":610,"Name":"Austin South","Distance":4.2}]`), nil
		})

	locations, err := client.SearchLocations(context.Background(), "78701")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(locations) != 1 || locations[0].ID != 610 {
		t.Fatalf("locations = %+v, want one with id 610", locations)
	}
}

func TestPostSendsFixedHeaders(t *testing.T) {
	client, transport := newTestClient(testConfig())

	var headers http.Header
	transport.RegisterResponder("POST", "http://dps.test/api/AvailableLocation",
		func(req *http.Request) (*http.Response, error) {
			headers = req.Header.Clone()
			return httpmock.NewStringResponse(http.StatusOK, "[]"), nil
		})

	if _, err := client.SearchLocations(context.Background(), "78701"); err != nil {
		t.Fatalf("search: %v", err)
	}

	want := map[string]string{
		"Origin":       "https://public.txdpsscheduler.com",
		"Referer":      "https://public.txdpsscheduler.com/",
		"Content-Type": "application/json;charset=UTF-8",
	}
	for key, value := range want {
		if got := headers.Get(key); got != value {
			t.Fatalf("header %s = %q, want %q", key, got, value)
		}
	}
	if headers.Get("User-Agent") == "" {
		t.Fatalf("User-Agent header missing")
	}
}

func TestPostStopsWhenContextCancelled(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/AvailableLocation",
		httpmock.NewStringResponder(http.StatusOK, "[]"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchLocations(ctx, "78701")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("requests after cancel = %d, want 0", got)
	}
}

func TestSearchLocationsSetsOwningZip(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/AvailableLocation",
		httpmock.NewStringResponder(http.StatusOK,
			`[{"Id":610,"Name":"Austin South","Address":"123 Main","Distance":4.2},{"Id":611,"Name":"Pflugerville","Distance":11.7}]`))

	locations, err := client.SearchLocations(context.Background(), "78701")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, loc := range locations {
		if loc.ZipCode != "78701" {
			t.Fatalf("location %d zip = %q, want 78701", loc.ID, loc.ZipCode)
		}
	}
}

func TestLocationDatesSkipsMalformedEntries(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/AvailableLocationDates",
		httpmock.NewStringResponder(http.StatusOK, `{
			"LocationAvailabilityDates": [
				{
					"AvailabilityDate": "2026-09-01T00:00:00",
					"AvailableTimeSlots": [
						{"SlotId": 1, "StartDateTime": "2026-09-01T08:00:00", "EndDateTime": "2026-09-01T08:15:00", "Duration": 15},
						{"SlotId": 2, "StartDateTime": "not-a-time", "EndDateTime": "", "Duration": 15}
					]
				},
				{"AvailabilityDate": "bogus", "AvailableTimeSlots": []}
			]
		}`))

	dates, err := client.LocationDates(context.Background(), 610)
	if err != nil {
		t.Fatalf("location dates: %v", err)
	}
	if len(dates) != 1 {
		t.Fatalf("dates = %d, want 1 (malformed date dropped)", len(dates))
	}
	if len(dates[0].Slots) != 1 || dates[0].Slots[0].SlotID != 1 {
		t.Fatalf("slots = %+v, want only slot 1", dates[0].Slots)
	}
	wantStart := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	if !dates[0].Slots[0].StartAt.Equal(wantStart) {
		t.Fatalf("slot start = %v, want %v", dates[0].Slots[0].StartAt, wantStart)
	}
}

func TestHoldSlotRejectedCarriesBody(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/HoldSlot",
		httpmock.NewStringResponder(http.StatusOK, `{"SlotHeldSuccessfully":false}`))

	result, err := client.HoldSlot(context.Background(), 42)
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if result.Held {
		t.Fatalf("hold reported success, want rejection")
	}
	if result.Message == "" {
		t.Fatalf("rejected hold should carry the response body")
	}
}

func TestHoldSlotGranted(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/HoldSlot",
		httpmock.NewStringResponder(http.StatusOK, `{"SlotHeldSuccessfully":true}`))

	result, err := client.HoldSlot(context.Background(), 42)
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if !result.Held || result.Message != "" {
		t.Fatalf("result = %+v, want held with empty message", result)
	}
}

func TestEligibilityReturnsFirstResponseID(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/Eligibility",
		httpmock.NewStringResponder(http.StatusOK, `[{"ResponseId":987654},{"ResponseId":111}]`))

	id, err := client.Eligibility(context.Background())
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if id != 987654 {
		t.Fatalf("response id = %d, want 987654", id)
	}
}

func TestEligibilityEmptyIsError(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/Eligibility",
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	if _, err := client.Eligibility(context.Background()); err == nil {
		t.Fatalf("expected error for empty eligibility response")
	}
}

func TestSubmitBookingConfirmed(t *testing.T) {
	cfg := testConfig()
	cfg.Personal.CellPhone = "512-555-0100"
	client, transport := newTestClient(cfg)

	var sent newBookingRequest
	transport.RegisterResponder("POST", "http://dps.test/api/NewBooking",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&sent); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"Booking":{"ConfirmationNumber":"CONF42"}}`), nil
		})

	candidate := models.Candidate{
		Location: models.Location{ID: 610, Name: "Austin South"},
		Date:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Slot:     models.TimeSlot{SlotID: 11, StartAt: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC), Duration: 15},
	}
	result, err := client.SubmitBooking(context.Background(), candidate, 987654)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Confirmed || result.ConfirmationNumber != "CONF42" {
		t.Fatalf("result = %+v, want confirmed CONF42", result)
	}

	if sent.BookingDateTime != "2026-09-01T08:00:00" {
		t.Fatalf("booking datetime = %q, want 2026-09-01T08:00:00", sent.BookingDateTime)
	}
	if sent.SiteID != 610 || sent.BookingDuration != 15 || sent.ResponseID != 987654 {
		t.Fatalf("request = %+v, want site 610, duration 15, response id 987654", sent)
	}
	if !sent.SendSms {
		t.Fatalf("SendSms should be true when a cell phone is configured")
	}
}

func TestSubmitBookingNullBooking(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/NewBooking",
		httpmock.NewStringResponder(http.StatusOK, `{"Booking":null}`))

	candidate := models.Candidate{
		Location: models.Location{ID: 610},
		Slot:     models.TimeSlot{SlotID: 11, StartAt: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC), Duration: 15},
	}
	result, err := client.SubmitBooking(context.Background(), candidate, 987654)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Confirmed {
		t.Fatalf("null booking reported as confirmed")
	}
	if result.Message == "" {
		t.Fatalf("rejected booking should carry the response body")
	}
}

func TestExistingBookingsKeepsMalformedDatetime(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/Booking",
		httpmock.NewStringResponder(http.StatusOK, `[
			{"ConfirmationNumber":"ABC123","BookingDateTime":"2026-09-10T10:00:00","SiteName":"Austin South","ServiceTypeId":71},
			{"ConfirmationNumber":"XYZ789","BookingDateTime":"garbled","SiteName":"Waco","ServiceTypeId":71}
		]`))

	bookings, err := client.ExistingBookings(context.Background())
	if err != nil {
		t.Fatalf("existing bookings: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("bookings = %d, want 2 (malformed datetime kept)", len(bookings))
	}
	if bookings[0].StartAt.IsZero() {
		t.Fatalf("first booking should have a parsed datetime")
	}
	if !bookings[1].StartAt.IsZero() {
		t.Fatalf("malformed datetime should parse to zero time")
	}
}

func TestCancelBooking(t *testing.T) {
	client, transport := newTestClient(testConfig())
	transport.RegisterResponder("POST", "http://dps.test/api/CancelBooking",
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	if err := client.CancelBooking(context.Background(), "ABC123"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}

func TestConfirmationURL(t *testing.T) {
	got := ConfirmationURL("CONF42")
	want := "https://public.txdpsscheduler.com/?b=CONF42"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
}

func TestErrorTypeLabel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: "unknown"},
		{name: "deadline", err: context.DeadlineExceeded, expected: "timeout"},
		{name: "status", err: StatusError{Path: "/api/HoldSlot", StatusCode: 500}, expected: "status"},
		{name: "wrapped status", err: RetriesExhaustedError{Err: StatusError{StatusCode: 502}}, expected: "status"},
		{name: "other", err: errors.New("boom"), expected: "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(tt.err); got != tt.expected {
				t.Fatalf("errorTypeLabel = %q, want %q", got, tt.expected)
			}
		})
	}
}
