// Package places wraps the Google Geocoding and Places APIs for CareFlow's
// handoff flows: nearby emergency services, doctors, pharmacies, labs and
// mental-health professionals. Filtering and ranking happen in-app.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	placesBaseURL = "https://maps.googleapis.com/maps/api/place"
	geocodeURL    = "https://maps.googleapis.com/maps/api/geocode/json"

	// EmergencyNumber is the national emergency number returned with
	// every emergency-services lookup.
	EmergencyNumber = "112"

	defaultRadiusM = 5000
	maxResults     = 20
	maxDetailCalls = 15
)

// ErrNotConfigured indicates no Maps API key is set.
var ErrNotConfigured = errors.New("places: maps api key not configured")

// ErrNotFound indicates a place query could not be geocoded.
var ErrNotFound = errors.New("places: no result for query")

// Place is one nearby result, enriched with contact details where a
// details lookup succeeded.
type Place struct {
	Name       string   `json:"name"`
	PlaceID    string   `json:"place_id"`
	Rating     float64  `json:"rating,omitempty"`
	OpenNow    *bool    `json:"open_now,omitempty"`
	Vicinity   string   `json:"vicinity"`
	DistanceKm float64  `json:"distance_km,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Hours      string   `json:"opening_hours_text,omitempty"`
}

type Client struct {
	key        string
	baseURL    string
	geocodeURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient constructs a Places client. An empty key yields a client whose
// lookups fail with ErrNotConfigured.
func NewClient(key string) *Client {
	return &Client{
		key:        key,
		baseURL:    placesBaseURL,
		geocodeURL: geocodeURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Geocode converts a city or address into coordinates, biased to the given
// region (default "in"). A ZERO_RESULTS reply retries once with ", India"
// appended.
func (c *Client) Geocode(ctx context.Context, query, region string) (lat, lon float64, err error) {
	if c.key == "" {
		return 0, 0, ErrNotConfigured
	}
	if region == "" {
		region = "in"
	}
	lat, lon, status, err := c.geocodeOnce(ctx, query, region)
	if err != nil {
		return 0, 0, err
	}
	if status == "ZERO_RESULTS" {
		lat, lon, status, err = c.geocodeOnce(ctx, query+", India", region)
		if err != nil {
			return 0, 0, err
		}
	}
	if status != "OK" {
		return 0, 0, fmt.Errorf("%w: status %s", ErrNotFound, status)
	}
	return lat, lon, nil
}

func (c *Client) geocodeOnce(ctx context.Context, query, region string) (lat, lon float64, status string, err error) {
	params := url.Values{
		"address": {query},
		"key":     {c.key},
		"region":  {region},
	}
	var result struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, c.geocodeURL+"?"+params.Encode(), &result); err != nil {
		return 0, 0, "", fmt.Errorf("geocode: %w", err)
	}
	if result.Status != "OK" || len(result.Results) == 0 {
		if result.Status == "OK" {
			result.Status = "ZERO_RESULTS"
		}
		return 0, 0, result.Status, nil
	}
	loc := result.Results[0].Geometry.Location
	return loc.Lat, loc.Lng, "OK", nil
}

type searchOptions struct {
	typeFilter  string
	openNowOnly bool
	minRating   float64
}

// nearby runs one Nearby Search and returns raw results with distances
// from the search center.
func (c *Client) nearby(ctx context.Context, lat, lon float64, keyword string, opts searchOptions) ([]Place, error) {
	if c.key == "" {
		return nil, ErrNotConfigured
	}
	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", lat, lon)},
		"key":      {c.key},
		"keyword":  {keyword},
		"radius":   {fmt.Sprint(defaultRadiusM)},
	}
	if opts.typeFilter != "" {
		params.Set("type", opts.typeFilter)
	}
	if opts.openNowOnly {
		params.Set("opennow", "1")
	}

	var result struct {
		Results []struct {
			Name         string  `json:"name"`
			PlaceID      string  `json:"place_id"`
			Rating       float64 `json:"rating"`
			Vicinity     string  `json:"vicinity"`
			OpeningHours *struct {
				OpenNow *bool `json:"open_now"`
			} `json:"opening_hours"`
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/nearbysearch/json?"+params.Encode(), &result); err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	out := make([]Place, 0, len(result.Results))
	for i, p := range result.Results {
		if i >= maxResults {
			break
		}
		place := Place{
			Name:       p.Name,
			PlaceID:    p.PlaceID,
			Rating:     p.Rating,
			Vicinity:   p.Vicinity,
			DistanceKm: haversineKm(lat, lon, p.Geometry.Location.Lat, p.Geometry.Location.Lng),
		}
		if p.OpeningHours != nil {
			place.OpenNow = p.OpeningHours.OpenNow
		}
		if opts.openNowOnly && (place.OpenNow == nil || !*place.OpenNow) {
			continue
		}
		if opts.minRating > 0 && place.Rating < opts.minRating {
			continue
		}
		out = append(out, place)
	}

	// Rating first, then name, so result order is stable across calls.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// withContact enriches places with phone and opening-hours details. When
// onlyWithPhone is set, places whose details lookup yields no phone number
// are dropped — handoff lists must be callable.
func (c *Client) withContact(ctx context.Context, in []Place, onlyWithPhone bool) []Place {
	out := make([]Place, 0, len(in))
	for i, p := range in {
		if i >= maxDetailCalls {
			break
		}
		if p.PlaceID != "" {
			phone, hours, err := c.details(ctx, p.PlaceID)
			if err == nil {
				p.Phone = phone
				p.Hours = hours
			}
		}
		if onlyWithPhone && p.Phone == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Client) details(ctx context.Context, placeID string) (phone, hours string, err error) {
	params := url.Values{
		"place_id": {placeID},
		"key":      {c.key},
		"fields":   {"formatted_phone_number,opening_hours"},
	}
	var result struct {
		Result struct {
			Phone        string `json:"formatted_phone_number"`
			OpeningHours *struct {
				WeekdayText []string `json:"weekday_text"`
			} `json:"opening_hours"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/details/json?"+params.Encode(), &result); err != nil {
		return "", "", fmt.Errorf("place details: %w", err)
	}
	if result.Result.OpeningHours != nil {
		hours = todayHours(result.Result.OpeningHours.WeekdayText, c.now().UTC())
	}
	return result.Result.Phone, hours, nil
}

// EmergencyServices returns nearby ambulances and hospitals. At night only
// hospitals that are open right now are included.
func (c *Client) EmergencyServices(ctx context.Context, lat, lon float64) (ambulances, hospitals []Place, err error) {
	ambulances, err = c.nearby(ctx, lat, lon, "ambulance", searchOptions{minRating: 3.0})
	if err != nil {
		return nil, nil, err
	}
	hospitals, err = c.nearby(ctx, lat, lon, "hospital emergency", searchOptions{
		typeFilter:  "hospital",
		openNowOnly: isNight(c.now().UTC()),
		minRating:   3.0,
	})
	if err != nil {
		return nil, nil, err
	}
	return c.withContact(ctx, ambulances, false), c.withContact(ctx, hospitals, false), nil
}

// Doctors returns nearby doctors with phone numbers, optionally filtered by
// specialty, paged by skip/limit. The second return reports whether more
// results remain.
func (c *Client) Doctors(ctx context.Context, lat, lon float64, specialty string, skip, limit int) ([]Place, bool, error) {
	keyword := "doctor"
	if specialty != "" {
		keyword = specialty + " doctor"
	}
	return c.handoffList(ctx, lat, lon, keyword, "doctor", skip, limit)
}

// Pharmacies returns nearby pharmacies with phone numbers.
func (c *Client) Pharmacies(ctx context.Context, lat, lon float64, skip, limit int) ([]Place, bool, error) {
	return c.handoffList(ctx, lat, lon, "pharmacy", "pharmacy", skip, limit)
}

// Labs returns nearby diagnostic labs with phone numbers.
func (c *Client) Labs(ctx context.Context, lat, lon float64, skip, limit int) ([]Place, bool, error) {
	return c.handoffList(ctx, lat, lon, "diagnostic lab pathology", "", skip, limit)
}

// Keyword per mental-health specialty slug; anything else falls back to
// the combined search.
var mentalHealthKeywords = map[string]string{
	"psychiatrist": "psychiatrist",
	"psychologist": "psychologist",
	"counselor":    "counselor",
	"therapist":    "therapist",
}

// MentalHealth returns nearby mental-health professionals with phone
// numbers. Unlike the other handoff lists it never restricts to
// open-now: a closed practice is still worth listing for a callback.
func (c *Client) MentalHealth(ctx context.Context, lat, lon float64, specialty string, skip, limit int) ([]Place, bool, error) {
	keyword, ok := mentalHealthKeywords[strings.ToLower(strings.TrimSpace(specialty))]
	if !ok {
		keyword = "psychologist psychiatrist counselor"
	}
	raw, err := c.nearby(ctx, lat, lon, keyword, searchOptions{minRating: 3.0})
	if err != nil {
		return nil, false, err
	}
	return c.pageWithPhones(ctx, raw, skip, limit)
}

func (c *Client) handoffList(ctx context.Context, lat, lon float64, keyword, typeFilter string, skip, limit int) ([]Place, bool, error) {
	raw, err := c.nearby(ctx, lat, lon, keyword, searchOptions{
		typeFilter:  typeFilter,
		openNowOnly: isNight(c.now().UTC()),
		minRating:   0,
	})
	if err != nil {
		return nil, false, err
	}
	return c.pageWithPhones(ctx, raw, skip, limit)
}

func (c *Client) pageWithPhones(ctx context.Context, raw []Place, skip, limit int) ([]Place, bool, error) {
	if limit <= 0 {
		limit = 10
	}
	withPhones := c.withContact(ctx, raw, true)
	if skip >= len(withPhones) {
		return []Place{}, false, nil
	}
	rest := withPhones[skip:]
	hasMore := len(rest) > limit
	if hasMore {
		rest = rest[:limit]
	}
	return rest, hasMore, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %s, body: %s", resp.Status, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// isNight reports whether t falls in the 22:00–07:00 UTC window, when
// handoff lists restrict to places open now.
func isNight(t time.Time) bool {
	hour := t.Hour()
	return hour >= 22 || hour < 7
}

// todayHours turns Place Details weekday_text into a short label: "24x7"
// when open around the clock every day, otherwise today's hours.
func todayHours(weekdayText []string, now time.Time) string {
	if len(weekdayText) == 0 {
		return ""
	}
	all24 := true
	for _, line := range weekdayText {
		if !is24hLine(line) {
			all24 = false
			break
		}
	}
	if all24 {
		return "24x7"
	}
	// weekday_text is Monday-first; time.Weekday is Sunday-first.
	idx := (int(now.Weekday()) + 6) % 7
	if idx >= len(weekdayText) {
		idx = 0
	}
	line := weekdayText[idx]
	if i := indexAfterDay(line); i > 0 {
		return line[i:]
	}
	return line
}

func is24hLine(line string) bool {
	s := strings.ToLower(line)
	return strings.Contains(s, "open 24") || strings.Contains(s, "24 hours")
}

// indexAfterDay returns the index just past the "Monday: " prefix, or 0
// when the line carries no day label.
func indexAfterDay(line string) int {
	i := strings.Index(line, ": ")
	if i == -1 {
		return 0
	}
	return i + 2
}

// haversineKm is the great-circle distance between two points, rounded to
// one decimal.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLam := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLam/2)*math.Sin(dLam/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusKm*c*10) / 10
}
