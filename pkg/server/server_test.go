package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"droscher.com/SipGargoyle/configs"
	"droscher.com/SipGargoyle/pkg/integrations/openfoodfacts"
	"droscher.com/SipGargoyle/pkg/model"
	"droscher.com/SipGargoyle/pkg/repository"
	"droscher.com/SipGargoyle/pkg/server"
	"droscher.com/SipGargoyle/pkg/stats"
)

// stubStore is an in-memory stand-in for the database repository.
type stubStore struct {
	entries    []model.DrinkEntry
	categories []*model.Category
	settings   map[string]string

	addressPatched chan string
	failWith       error
}

func newStubStore() *stubStore {
	return &stubStore{
		settings:       make(map[string]string),
		addressPatched: make(chan string, 1),
	}
}

func (s *stubStore) AddDrink(_ context.Context, entry model.DrinkEntry) (*model.DrinkEntry, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}

	entry.ID = uint(len(s.entries) + 1)
	s.entries = append(s.entries, entry)

	return &entry, nil
}

func (s *stubStore) GetDrinkByUUID(_ context.Context, id uuid.UUID) (*model.DrinkEntry, error) {
	for index := range s.entries {
		if s.entries[index].UUID == id {
			entry := s.entries[index]

			return &entry, nil
		}
	}

	return nil, repository.ErrDrinkNotFound
}

func (s *stubStore) GetDrinksInRange(_ context.Context, start time.Time, end time.Time) ([]model.DrinkEntry, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}

	from, to := start.Format(model.DateLayout), end.Format(model.DateLayout)

	var matched []model.DrinkEntry

	for _, entry := range s.entries {
		if entry.Date >= from && entry.Date <= to {
			matched = append(matched, entry)
		}
	}

	return matched, nil
}

func (s *stubStore) GetAllDrinks(_ context.Context) ([]model.DrinkEntry, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}

	return s.entries, nil
}

func (s *stubStore) UpdateDrink(_ context.Context, entry *model.DrinkEntry) (*model.DrinkEntry, error) {
	for index := range s.entries {
		if s.entries[index].UUID == entry.UUID {
			s.entries[index] = *entry
		}
	}

	return entry, nil
}

func (s *stubStore) UpdateDrinkAddress(_ context.Context, id uuid.UUID, address string) error {
	for index := range s.entries {
		if s.entries[index].UUID == id {
			s.entries[index].Address = &address
			s.addressPatched <- address

			return nil
		}
	}

	return repository.ErrDrinkNotFound
}

func (s *stubStore) DeleteDrink(_ context.Context, id uuid.UUID) error {
	for index := range s.entries {
		if s.entries[index].UUID == id {
			s.entries = append(s.entries[:index], s.entries[index+1:]...)

			return nil
		}
	}

	return repository.ErrDrinkNotFound
}

func (s *stubStore) GetCategories(_ context.Context) ([]*model.Category, error) {
	return s.categories, nil
}

func (s *stubStore) AddCategory(_ context.Context, name string) (*model.Category, error) {
	for _, category := range s.categories {
		if category.Name == name {
			return category, nil
		}
	}

	category := &model.Category{Model: gorm.Model{ID: uint(len(s.categories) + 1)}, Name: name}
	s.categories = append(s.categories, category)

	return category, nil
}

func (s *stubStore) DeleteCategory(_ context.Context, categoryID uint) error {
	for _, entry := range s.entries {
		if entry.CategoryID == categoryID {
			return repository.ErrCategoryInUse
		}
	}

	for index, category := range s.categories {
		if category.ID == categoryID {
			s.categories = append(s.categories[:index], s.categories[index+1:]...)

			return nil
		}
	}

	return nil
}

func (s *stubStore) GetSetting(_ context.Context, key string) (*string, error) {
	value, found := s.settings[key]
	if !found {
		return nil, nil
	}

	return &value, nil
}

func (s *stubStore) SetSetting(_ context.Context, key string, value string) error {
	s.settings[key] = value

	return nil
}

type stubGeocoder struct {
	address string
	err     error
}

func (g *stubGeocoder) Reverse(_ context.Context, _ float64, _ float64) (string, error) {
	return g.address, g.err
}

type stubBarcodes struct {
	product openfoodfacts.Product
	err     error
}

func (b *stubBarcodes) LookupBarcode(_ context.Context, _ string) (openfoodfacts.Product, error) {
	return b.product, b.err
}

func testConfig() *configs.Config {
	return &configs.Config{
		Stats: configs.Stats{
			SessionGapHours:  4,
			ClusterPrecision: 4,
			LookbackHours:    24,
			LegalLimitMgL:    500,
			CacheTTLMinutes:  5,
		},
	}
}

type fixture struct {
	store  *stubStore
	router http.Handler
}

func newFixture(t *testing.T, store *stubStore, geocoder server.Geocoder, barcodes server.BarcodeLookup) fixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	conf := testConfig()
	cache := stats.NewCache(time.Duration(conf.Stats.CacheTTLMinutes) * time.Minute)

	drinks := server.NewDrinkServer(store, store, store, geocoder, barcodes, cache, conf, logger)
	statistics := server.NewStatsServer(store, store, cache, conf, logger)

	return fixture{store: store, router: server.NewRouter(drinks, statistics)}
}

func (f fixture) request(t *testing.T, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	request := httptest.NewRequest(method, target, reader)
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)

	return recorder
}

func storedDrink(store *stubStore, day string, clock string, name string, categoryID uint, category string) model.DrinkEntry {
	entry := model.DrinkEntry{
		UUID:       uuid.New(),
		Name:       name,
		CategoryID: categoryID,
		Quantity:   25,
		Unit:       model.UnitCentiliters,
		Date:       day,
		Time:       clock,
		Category:   model.Category{Model: gorm.Model{ID: categoryID}, Name: category},
	}
	abv := 5.0
	entry.AlcoholContent = &abv

	store.entries = append(store.entries, entry)

	return entry
}

func beerCategory() *model.Category {
	return &model.Category{Model: gorm.Model{ID: 1}, Name: "Beer", DrinkCount: 3}
}

func requireStatus(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	require.Equal(t, expected, recorder.Code, "body: %s", recorder.Body.String())
}
