package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// FoursquareSource queries the Foursquare Places search API. Requires an API
// key; skipped by the chain builder when none is configured.
type FoursquareSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFoursquareSource constructs the adapter.
func NewFoursquareSource(baseURL, apiKey string, client *http.Client) *FoursquareSource {
	return &FoursquareSource{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name implements Source.
func (s *FoursquareSource) Name() string { return "foursquare" }

type foursquareResponse struct {
	Results []struct {
		Name     string `json:"name"`
		Tel      string `json:"tel"`
		Website  string `json:"website"`
		Rating   float64 `json:"rating"`
		Location struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"location"`
		Geocodes struct {
			Main struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"main"`
		} `json:"geocodes"`
	} `json:"results"`
}

// Search implements Source.
func (s *FoursquareSource) Search(ctx context.Context, serviceType, location string) (*Place, error) {
	params := url.Values{}
	params.Set("query", serviceType)
	params.Set("near", location)
	params.Set("limit", "1")

	endpoint := s.baseURL + "/v3/places/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("foursquare status %d", resp.StatusCode)
	}

	var body foursquareResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Results) == 0 {
		return nil, nil
	}

	raw := body.Results[0]
	place := &Place{
		Name:    raw.Name,
		Address: raw.Location.FormattedAddress,
		Phone:   raw.Tel,
		Website: raw.Website,
		// Foursquare rates 0-10; the directory uses a 0-5 scale.
		Rating: raw.Rating / 2,
	}
	if raw.Geocodes.Main.Latitude != 0 || raw.Geocodes.Main.Longitude != 0 {
		lat := raw.Geocodes.Main.Latitude
		lng := raw.Geocodes.Main.Longitude
		place.Latitude = &lat
		place.Longitude = &lng
	}
	return place, nil
}
