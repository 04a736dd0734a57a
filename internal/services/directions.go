package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// DirectionsError carries the provider status alongside a human-readable
// message. Unlike geocoding, directions failures surface to the caller.
type DirectionsError struct {
	Status  string
	Message string
}

func (e *DirectionsError) Error() string {
	return e.Message
}

// directionsMessages maps Google Directions API status codes onto messages
// fit for the navigation UI.
var directionsMessages = map[string]string{
	"NOT_FOUND":              "Could not find a route to this destination",
	"ZERO_RESULTS":           "No route found between these locations",
	"MAX_WAYPOINTS_EXCEEDED": "Too many waypoints in route",
	"INVALID_REQUEST":        "Invalid route request",
	"OVER_QUERY_LIMIT":       "API quota exceeded. Please try again later.",
	"REQUEST_DENIED":         "API key is invalid or restricted",
	"UNKNOWN_ERROR":          "Server error. Please try again.",
}

// DirectionsClient proxies turn-by-turn routing requests to the Google
// Directions API. Used only by the navigation UI, never by the completion
// state machine.
type DirectionsClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewDirectionsClient() *DirectionsClient {
	return &DirectionsClient{
		APIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
		BaseURL: "https://maps.googleapis.com/maps/api/directions/json",
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Directions fetches a driving route between two "lat,lng" points and returns
// the raw provider payload on success.
func (d *DirectionsClient) Directions(ctx context.Context, origin, destination string) (json.RawMessage, error) {
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", ErrInvalidInput)
	}
	if d.APIKey == "" {
		return nil, errors.New("Google Maps API key not configured")
	}

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("key", d.APIKey)
	q.Set("mode", "driving")
	q.Set("units", "imperial")
	q.Set("alternatives", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions API returned %d", resp.StatusCode)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var meta struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, err
	}

	if meta.Status != "OK" {
		logrus.WithFields(logrus.Fields{
			"status":  meta.Status,
			"message": meta.ErrorMessage,
		}).Warn("Directions: provider error")

		msg, ok := directionsMessages[meta.Status]
		if !ok {
			msg = "Failed to get directions"
		}
		return nil, &DirectionsError{Status: meta.Status, Message: msg}
	}

	return body, nil
}
