package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Coordinates is a geocoded point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves a street address to coordinates. Implementations fail
// soft: a no-match, quota-exceeded or network failure returns (nil, nil) so
// an import degrades to an ungeocoded stop instead of aborting.
type Geocoder interface {
	Geocode(ctx context.Context, street, city, state, zip string) (*Coordinates, error)
}

// GoogleGeocoder calls the Google Geocoding API.
type GoogleGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewGoogleGeocoder builds a geocoder from the GOOGLE_MAPS_API_KEY env var.
func NewGoogleGeocoder() *GoogleGeocoder {
	return &GoogleGeocoder{
		APIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
		BaseURL: "https://maps.googleapis.com/maps/api/geocode/json",
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves one address. All provider failures are logged and
// swallowed; callers only ever see coordinates or nil.
func (g *GoogleGeocoder) Geocode(ctx context.Context, street, city, state, zip string) (*Coordinates, error) {
	if g.APIKey == "" {
		logrus.Error("Geocode: Google Maps API key not configured")
		return nil, nil
	}

	fullAddress := fmt.Sprintf("%s, %s, %s %s, USA", street, city, state, zip)

	q := url.Values{}
	q.Set("address", fullAddress)
	q.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		logrus.WithError(err).Error("Geocode: building request failed")
		return nil, nil
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("address", fullAddress).Warn("Geocode: request failed")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Warn("Geocode: API returned non-OK status")
		return nil, nil
	}

	var data geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		logrus.WithError(err).Warn("Geocode: decoding response failed")
		return nil, nil
	}

	switch data.Status {
	case "OK":
		if len(data.Results) == 0 {
			return nil, nil
		}
		loc := data.Results[0].Geometry.Location
		return &Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
	case "ZERO_RESULTS":
		logrus.WithField("address", fullAddress).Warn("Geocode: no results")
		return nil, nil
	case "OVER_QUERY_LIMIT":
		logrus.Error("Geocode: API quota exceeded")
		return nil, nil
	default:
		logrus.WithFields(logrus.Fields{
			"address": fullAddress,
			"status":  data.Status,
			"message": data.ErrorMessage,
		}).Error("Geocode: lookup failed")
		return nil, nil
	}
}
