package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// GooglePlacesSource queries the Google Places text search API. Requires an
// API key; last in the chain because of per-call cost.
type GooglePlacesSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGooglePlacesSource constructs the adapter.
func NewGooglePlacesSource(baseURL, apiKey string, client *http.Client) *GooglePlacesSource {
	return &GooglePlacesSource{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name implements Source.
func (s *GooglePlacesSource) Name() string { return "google_places" }

type googlePlacesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Search implements Source.
func (s *GooglePlacesSource) Search(ctx context.Context, serviceType, location string) (*Place, error) {
	params := url.Values{}
	params.Set("query", serviceType+" in "+location)
	params.Set("key", s.apiKey)

	endpoint := s.baseURL + "/maps/api/place/textsearch/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google places status %d", resp.StatusCode)
	}

	var body googlePlacesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Status == "ZERO_RESULTS" || len(body.Results) == 0 {
		return nil, nil
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("google places status %s", body.Status)
	}

	raw := body.Results[0]
	place := &Place{
		Name:    raw.Name,
		Address: raw.FormattedAddress,
		Rating:  raw.Rating,
	}
	if raw.Geometry.Location.Lat != 0 || raw.Geometry.Location.Lng != 0 {
		lat := raw.Geometry.Location.Lat
		lng := raw.Geometry.Location.Lng
		place.Latitude = &lat
		place.Longitude = &lng
	}
	return place, nil
}
