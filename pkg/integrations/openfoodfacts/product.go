package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://world.openfoodfacts.org"

const requestTimeout = 12 * time.Second

// Product is the subset of an Open Food Facts record the barcode flow
// needs: a display name and a category seed for implicit creation.
type Product struct {
	Barcode  string `json:"barcode"`
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
	Quantity string `json:"quantity,omitempty"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

type offResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName string `json:"product_name"`
		Brands      string `json:"brands"`
		Categories  string `json:"categories"`
		Quantity    string `json:"quantity"`
	} `json:"product"`
}

// LookupBarcode resolves a scanned barcode to product details.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/v2/product/%s.json", base, barcode), nil)
	if err != nil {
		return Product{}, fmt.Errorf("create openfoodfacts request: %w", err)
	}

	request.Header.Set("User-Agent", "SipGargoyle/1.0")

	response, err := httpClient.Do(request)
	if err != nil {
		return Product{}, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer response.Body.Close() //nolint:errcheck // nothing useful to do with a close error here

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return Product{}, fmt.Errorf("read openfoodfacts response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return Product{}, fmt.Errorf("openfoodfacts request failed with status %d", response.StatusCode)
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Product{}, fmt.Errorf("decode openfoodfacts response: %w", err)
	}

	if parsed.Status != 1 || parsed.Product.ProductName == "" {
		return Product{}, fmt.Errorf("no openfoodfacts product found for barcode %q", barcode)
	}

	return Product{
		Barcode:  barcode,
		Name:     parsed.Product.ProductName,
		Brand:    parsed.Product.Brands,
		Category: parsed.Product.Categories,
		Quantity: parsed.Product.Quantity,
	}, nil
}
