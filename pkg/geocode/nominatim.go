package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

const requestTimeout = 10 * time.Second

var ErrNoAddress = errors.New("no address found")

// Client reverse-geocodes coordinates through the Nominatim API. It is
// an edge collaborator: callers treat every failure as "no address yet",
// never as a fatal aggregation error.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{BaseURL: baseURL, Logger: logger}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse resolves a coordinate pair to a human-readable address.
func (c *Client) Reverse(ctx context.Context, lat float64, lon float64) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create reverse geocode request: %w", err)
	}

	request.Header.Set("User-Agent", "SipGargoyle/1.0")

	response, err := httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("execute reverse geocode request: %w", err)
	}
	defer response.Body.Close() //nolint:errcheck // nothing useful to do with a close error here

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("read reverse geocode response: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: reverse geocode returned status %d", ErrNoAddress, response.StatusCode)
	}

	var parsed reverseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode reverse geocode response: %w", err)
	}

	if parsed.Error != "" || parsed.DisplayName == "" {
		c.Logger.Warn("no address for coordinates", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.String("error", parsed.Error))

		return "", ErrNoAddress
	}

	return parsed.DisplayName, nil
}
