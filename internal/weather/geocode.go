package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// City is one geocoding candidate.
type City struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	DisplayName string  `json:"displayName"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
		Admin1    string  `json:"admin1"`
	} `json:"results"`
}

// SearchCities queries the geocoder and returns candidates in provider
// order. Used by the settings UI for location picking.
func (a *Adapter) SearchCities(ctx context.Context, query string) ([]City, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s?name=%s&count=10&language=en&format=json", a.geocodeURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned %d", resp.StatusCode)
	}

	var gr geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	cities := make([]City, 0, len(gr.Results))
	for _, r := range gr.Results {
		parts := []string{r.Name}
		if r.Admin1 != "" {
			parts = append(parts, r.Admin1)
		}
		if r.Country != "" {
			parts = append(parts, r.Country)
		}
		cities = append(cities, City{
			Name:        r.Name,
			Country:     r.Country,
			DisplayName: strings.Join(parts, ", "),
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		})
	}
	return cities, nil
}

// geocode resolves a free-text location to coordinates. Lookup order: the
// full query, then the city segment before the first comma, then the first
// whitespace token (covers "Springfield USA"-style compound input). Each
// result set goes through scoreCandidates to pick the best match.
func (a *Adapter) geocode(ctx context.Context, query string) (*City, error) {
	attempts := []string{query}
	if city, _, found := strings.Cut(query, ","); found {
		attempts = append(attempts, strings.TrimSpace(city))
	}
	if first, _, found := strings.Cut(strings.TrimSpace(query), " "); found {
		attempts = append(attempts, first)
	}

	var lastErr error
	for _, attempt := range attempts {
		cities, err := a.SearchCities(ctx, attempt)
		if err != nil {
			lastErr = err
			continue
		}
		if best := scoreCandidates(query, cities); best != nil {
			return best, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no geocoding candidate for %q", query)
}

// scoreCandidates picks the best match for the original query. Per token:
// a hit in the display name is worth twice the token length, a hit only in
// the country field is worth the token length, and a candidate whose
// country appears in the query gets a flat bonus. Ties keep the
// first-seen candidate.
func scoreCandidates(query string, cities []City) *City {
	if len(cities) == 0 {
		return nil
	}

	normQuery := strings.ToLower(query)
	tokens := strings.Fields(normQuery)

	best := -1
	bestScore := -1
	for i, c := range cities {
		display := strings.ToLower(c.DisplayName)
		country := strings.ToLower(c.Country)

		score := 0
		for _, tok := range tokens {
			switch {
			case strings.Contains(display, tok):
				score += len(tok) * 2
			case strings.Contains(country, tok):
				score += len(tok)
			}
		}
		if country != "" && strings.Contains(normQuery, country) {
			score += 10
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return &cities[best]
}
