// Package dpsapi implements the HTTP client for the Texas DPS public
// scheduling API: fixed browser-shaped headers, a header-receipt timeout,
// and a bounded retry budget shared by every endpoint.
package dpsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ri-erusk/texas-dps-scheduler/config"
	"github.com/ri-erusk/texas-dps-scheduler/metrics"
	"github.com/ri-erusk/texas-dps-scheduler/models"
)

const (
	publicOrigin = "https://public.txdpsscheduler.com"
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	contentType  = "application/json;charset=UTF-8"

	maxLoggedBody = 512
)

// Client issues requests against the scheduling API. Safe for use from a
// single goroutine; the scheduler serializes all calls.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// New builds a client from cfg. The header-receipt timeout applies to every
// request; there is no overall request deadline beyond the caller's context.
func New(cfg *config.Config, m *metrics.Metrics) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.App.HeaderTimeout(),
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Transport: transport},
		metrics:    m,
	}
}

// WithTransport replaces the underlying round tripper.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.httpClient.Transport = rt
}

// SearchLocations returns offices near zipCode offering the configured
// appointment type, in the API's distance ordering. Each result's owning
// zip code is set to the query zip.
func (c *Client) SearchLocations(ctx context.Context, zipCode string) ([]models.Location, error) {
	reqBody := availableLocationRequest{
		TypeID:  c.cfg.Personal.AppointmentTypeID,
		ZipCode: zipCode,
	}
	var locations []models.Location
	if _, err := c.post(ctx, "/api/AvailableLocation", reqBody, &locations); err != nil {
		return nil, err
	}
	for i := range locations {
		locations[i].ZipCode = zipCode
	}
	return locations, nil
}

// LocationDates returns the calendar for one location, preserving the API's
// date and slot ordering.
func (c *Client) LocationDates(ctx context.Context, locationID int) ([]models.AvailabilityDate, error) {
	reqBody := availableLocationDatesRequest{
		LocationID: locationID,
		TypeID:     c.cfg.Personal.AppointmentTypeID,
		SameDay:    c.cfg.Window.SameDay,
	}
	var resp availableLocationDatesResponse
	if _, err := c.post(ctx, "/api/AvailableLocationDates", reqBody, &resp); err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

// HoldSlot asks the API for a short-lived reservation of slotID.
func (c *Client) HoldSlot(ctx context.Context, slotID int) (*HoldResult, error) {
	var resp holdSlotResponse
	raw, err := c.post(ctx, "/api/HoldSlot", holdSlotRequest{SlotID: slotID}, &resp)
	if err != nil {
		return nil, err
	}
	result := &HoldResult{Held: resp.SlotHeldSuccessfully}
	if !result.Held {
		result.Message = strings.TrimSpace(string(raw))
	}
	return result, nil
}

// Eligibility fetches the correlation token required by SubmitBooking. The
// token is single-use; call this immediately before booking.
func (c *Client) Eligibility(ctx context.Context) (int64, error) {
	reqBody := eligibilityRequest{
		DateOfBirth:       c.cfg.Personal.DateOfBirth,
		FirstName:         c.cfg.Personal.FirstName,
		LastName:          c.cfg.Personal.LastName,
		LastFourDigitsSsn: c.cfg.Personal.LastFourSSN,
	}
	var entries []eligibilityEntry
	if _, err := c.post(ctx, "/api/Eligibility", reqBody, &entries); err != nil {
		return 0, err
	}
	if len(entries) == 0 || entries[0].ResponseID == 0 {
		return 0, errors.New("/api/Eligibility: no response id returned")
	}
	return entries[0].ResponseID, nil
}

// SubmitBooking books the candidate's slot using a fresh eligibility token.
func (c *Client) SubmitBooking(ctx context.Context, candidate models.Candidate, responseID int64) (*BookingResult, error) {
	person := c.cfg.Personal
	reqBody := newBookingRequest{
		FirstName:       person.FirstName,
		LastName:        person.LastName,
		DateOfBirth:     person.DateOfBirth,
		Email:           person.Email,
		CellPhone:       person.CellPhone,
		ServiceTypeID:   person.AppointmentTypeID,
		BookingDateTime: candidate.Slot.StartAt.Format(apiTimeLayout),
		BookingDuration: candidate.Slot.Duration,
		SpanishLanguage: "N",
		SiteID:          candidate.Location.ID,
		SendSms:         person.CellPhone != "",
		ResponseID:      responseID,
	}
	var resp newBookingResponse
	raw, err := c.post(ctx, "/api/NewBooking", reqBody, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Booking == nil {
		return &BookingResult{Message: strings.TrimSpace(string(raw))}, nil
	}
	return &BookingResult{
		Confirmed:          true,
		ConfirmationNumber: resp.Booking.ConfirmationNumber,
	}, nil
}

// ExistingBookings returns every booking the API holds for the operator,
// regardless of appointment type. A booking with an unparseable datetime is
// kept with a zero StartAt so the policy guard still sees it.
func (c *Client) ExistingBookings(ctx context.Context) ([]models.ExistingBooking, error) {
	reqBody := bookingQueryRequest{
		FirstName:         c.cfg.Personal.FirstName,
		LastName:          c.cfg.Personal.LastName,
		DateOfBirth:       c.cfg.Personal.DateOfBirth,
		LastFourDigitsSsn: c.cfg.Personal.LastFourSSN,
	}
	var wire []wireExistingBooking
	if _, err := c.post(ctx, "/api/Booking", reqBody, &wire); err != nil {
		return nil, err
	}
	bookings := make([]models.ExistingBooking, 0, len(wire))
	for _, b := range wire {
		startAt, err := time.Parse(apiTimeLayout, b.BookingDateTime)
		if err != nil {
			slog.Warn("existing booking has malformed datetime",
				slog.String("confirmation", b.ConfirmationNumber),
				slog.String("value", b.BookingDateTime),
			)
		}
		bookings = append(bookings, models.ExistingBooking{
			ConfirmationNumber: b.ConfirmationNumber,
			SiteName:           b.SiteName,
			StartAt:            startAt,
			ServiceTypeID:      b.ServiceTypeID,
		})
	}
	return bookings, nil
}

// CancelBooking cancels an existing booking by confirmation number.
func (c *Client) CancelBooking(ctx context.Context, confirmationNumber string) error {
	_, err := c.post(ctx, "/api/CancelBooking", cancelBookingRequest{ConfirmationNumber: confirmationNumber}, nil)
	return err
}

// ConfirmationURL is the human-facing page for a confirmed booking.
func ConfirmationURL(confirmationNumber string) string {
	return publicOrigin + "/?b=" + confirmationNumber
}

// post sends one JSON request with the shared retry budget. maxRetries = k
// means k+1 total attempts; a retry fires on any network error or non-2xx
// status without distinguishing 4xx from 5xx. After the final attempt the
// last failure is wrapped in RetriesExhaustedError. On success the raw body
// is returned alongside the decode into out (skipped when out is nil).
func (c *Client) post(ctx context.Context, path string, payload any, out any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", path, err)
	}

	attempts := c.cfg.App.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := c.postOnce(ctx, path, body, out)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		var statusErr StatusError
		if errors.As(err, &statusErr) {
			slog.Warn("api request failed",
				slog.String("path", path),
				slog.Int("attempt", attempt+1),
				slog.Int("status", statusErr.StatusCode),
				slog.String("body", statusErr.Body),
			)
		} else {
			slog.Warn("api request failed",
				slog.String("path", path),
				slog.Int("attempt", attempt+1),
				slog.Any("error", err),
			)
		}
		if attempt < attempts-1 {
			c.metrics.IncRetries()
		}
	}

	c.metrics.IncError(errorTypeLabel(lastErr))
	return nil, RetriesExhaustedError{Path: path, Attempts: attempts, Err: lastErr}
}

func (c *Client) postOnce(ctx context.Context, path string, body []byte, out any) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.App.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Origin", publicOrigin)
	req.Header.Set("Referer", publicOrigin+"/")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		c.metrics.IncRequest(path, "error")
		return nil, fmt.Errorf("send %s request: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncRequest(path, "error")
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.metrics.IncRequest(path, "error")
		return nil, StatusError{Path: path, StatusCode: resp.StatusCode, Body: snippet(raw)}
	}

	c.metrics.IncRequest(path, "success")
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return raw, nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody]
	}
	return s
}
