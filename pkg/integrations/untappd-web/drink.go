package untappdweb

import (
	"strconv"
	"strings"

	"github.com/gocolly/colly/v2"
	"go.openly.dev/pointy"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const IntegrationName = "untappd_web"

// DrinkInfo is one search result with the fields useful for pre-filling
// a drink entry.
type DrinkInfo struct {
	Name  string   `json:"name"`
	Style string   `json:"style,omitempty"`
	Brand string   `json:"brand,omitempty"`
	ABV   *float64 `json:"abv,omitempty"`
}

type UntappedWebIntegration struct {
	logger *zap.Logger
}

func NewUntappedWebIntegration(logger *zap.Logger) *UntappedWebIntegration {
	return &UntappedWebIntegration{logger: logger}
}

type drinkScraped struct {
	Name  string `selector:".name > a"`
	Brand string `selector:".brewery > a"`
	Style string `selector:".style"`
	ABV   string `selector:".abv"`
}

// FindDrink scrapes the search results page for drinks matching the
// name, mainly to recover the alcohol content the user did not type in.
func (u *UntappedWebIntegration) FindDrink(name string) ([]DrinkInfo, error) {
	collector := colly.NewCollector(
		colly.AllowedDomains("untappd.com"),
		colly.UserAgent("Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:15.0) Gecko/20100101 Firefox/15.0.1"),
	)

	var (
		errs    error
		results []DrinkInfo
	)

	collector.OnHTML(".beer-item", func(element *colly.HTMLElement) {
		scraped := drinkScraped{}

		err := element.Unmarshal(&scraped)
		if multierr.AppendInto(&errs, err) {
			u.logger.Error("failed to unmarshal scraped drink", zap.Error(err))

			return
		}

		u.logger.Info("scraped item from results", zap.String("name", scraped.Name), zap.String("abv", scraped.ABV))

		results = append(results, DrinkInfo{
			Name:  scraped.Name,
			Brand: scraped.Brand,
			Style: scraped.Style,
			ABV:   extractABV(scraped.ABV),
		})
	})

	collector.OnError(func(response *colly.Response, err error) {
		u.logger.Error("error while scraping drink search results", zap.String("url", response.Request.URL.String()), zap.Error(err))
	})

	u.logger.Info("scraping query results", zap.String("query", name))
	multierr.AppendInto(&errs, collector.Visit("https://untappd.com/search?q=/"+name))

	return results, errs
}

func extractABV(raw string) *float64 {
	if strings.Contains(raw, "%") {
		abv, _ := strconv.ParseFloat(raw[:strings.Index(raw, "%")], 64) //nolint: gocritic // We know we won't get -1

		return pointy.Float64(abv)
	}

	return nil
}
