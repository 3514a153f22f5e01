package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// NominatimSource queries the OpenStreetMap Nominatim search API. It is
// keyless, which puts it first in the chain.
type NominatimSource struct {
	baseURL string
	client  *http.Client
}

// NewNominatimSource constructs the adapter.
func NewNominatimSource(baseURL string, client *http.Client) *NominatimSource {
	return &NominatimSource{baseURL: baseURL, client: client}
}

// Name implements Source.
func (s *NominatimSource) Name() string { return "nominatim" }

type nominatimResult struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	ExtraTags   struct {
		Phone   string `json:"phone"`
		Website string `json:"website"`
	} `json:"extratags"`
}

// Search implements Source.
func (s *NominatimSource) Search(ctx context.Context, serviceType, location string) (*Place, error) {
	params := url.Values{}
	params.Set("q", serviceType+" near "+location)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("extratags", "1")

	endpoint := s.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "marketplace-service/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	raw := results[0]
	place := &Place{
		Name:    raw.Name,
		Address: raw.DisplayName,
		Phone:   raw.ExtraTags.Phone,
		Website: raw.ExtraTags.Website,
	}
	if place.Name == "" {
		place.Name = firstSegment(raw.DisplayName)
	}
	if lat, err := strconv.ParseFloat(raw.Lat, 64); err == nil {
		place.Latitude = &lat
	}
	if lon, err := strconv.ParseFloat(raw.Lon, 64); err == nil {
		place.Longitude = &lon
	}
	return place, nil
}

func firstSegment(displayName string) string {
	for i := 0; i < len(displayName); i++ {
		if displayName[i] == ',' {
			return displayName[:i]
		}
	}
	return displayName
}
