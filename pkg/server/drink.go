package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"droscher.com/SipGargoyle/configs"
	"droscher.com/SipGargoyle/pkg/integrations"
	"droscher.com/SipGargoyle/pkg/integrations/openfoodfacts"
	"droscher.com/SipGargoyle/pkg/model"
	"droscher.com/SipGargoyle/pkg/repository"
	"droscher.com/SipGargoyle/pkg/stats"
)

var ErrInvalidInput = errors.New("bad request")

const enrichTimeout = 15 * time.Second

// Geocoder resolves coordinates to an address. Failures never block or
// fail a request; the address stays absent until a later attempt.
type Geocoder interface {
	Reverse(ctx context.Context, lat float64, lon float64) (string, error)
}

// BarcodeLookup resolves a scanned barcode to product details.
type BarcodeLookup interface {
	LookupBarcode(ctx context.Context, barcode string) (openfoodfacts.Product, error)
}

type DrinkServer struct {
	drinks     repository.DrinkRepository
	categories repository.CategoryRepository
	settings   repository.SettingsRepository
	geocoder   Geocoder
	barcodes   BarcodeLookup
	cache      *stats.Cache
	config     *configs.Config
	logger     *zap.Logger
}

func NewDrinkServer(drinks repository.DrinkRepository, categories repository.CategoryRepository, settings repository.SettingsRepository, geocoder Geocoder, barcodes BarcodeLookup, cache *stats.Cache, config *configs.Config, logger *zap.Logger) *DrinkServer {
	return &DrinkServer{
		drinks:     drinks,
		categories: categories,
		settings:   settings,
		geocoder:   geocoder,
		barcodes:   barcodes,
		cache:      cache,
		config:     config,
		logger:     logger,
	}
}

type locationPayload struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Address   *string  `json:"address,omitempty"`
}

type drinkRequest struct {
	Name           string           `json:"name"`
	Category       string           `json:"category"`
	Quantity       float64          `json:"quantity"`
	Unit           string           `json:"unit"`
	AlcoholContent *float64         `json:"alcoholContent,omitempty"`
	Date           string           `json:"date"`
	Time           string           `json:"time"`
	Location       *locationPayload `json:"location,omitempty"`
	Barcode        *string          `json:"barcode,omitempty"`
}

type drinkResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Category       string           `json:"category"`
	Quantity       float64          `json:"quantity"`
	Unit           string           `json:"unit"`
	AlcoholContent *float64         `json:"alcoholContent,omitempty"`
	Date           string           `json:"date"`
	Time           string           `json:"time"`
	Location       *locationPayload `json:"location,omitempty"`
	Barcode        *string          `json:"barcode,omitempty"`
}

func drinkFromModel(entry *model.DrinkEntry) drinkResponse {
	response := drinkResponse{
		ID:             entry.UUID.String(),
		Name:           entry.Name,
		Category:       entry.Category.Name,
		Quantity:       entry.Quantity,
		Unit:           string(entry.Unit),
		AlcoholContent: entry.AlcoholContent,
		Date:           entry.Date,
		Time:           entry.Time,
		Barcode:        entry.Barcode,
	}

	if entry.HasCoordinates() {
		response.Location = &locationPayload{
			Latitude:  *entry.Latitude,
			Longitude: *entry.Longitude,
			Accuracy:  entry.Accuracy,
			Address:   entry.Address,
		}
	}

	return response
}

func (s *DrinkServer) ListDrinks(w http.ResponseWriter, r *http.Request) {
	entries, err := s.fetchDrinks(r)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())

		return
	}

	responses := make([]drinkResponse, 0, len(entries))
	for index := range entries {
		responses = append(responses, drinkFromModel(&entries[index]))
	}

	writeJSON(w, s.logger, http.StatusOK, responses)
}

func (s *DrinkServer) fetchDrinks(r *http.Request) ([]model.DrinkEntry, error) {
	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")

	if startParam == "" && endParam == "" {
		return s.drinks.GetAllDrinks(r.Context())
	}

	start, err := time.ParseInLocation(model.DateLayout, startParam, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	end, err := time.ParseInLocation(model.DateLayout, endParam, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	return s.drinks.GetDrinksInRange(r.Context(), start, end)
}

func (s *DrinkServer) AddDrink(w http.ResponseWriter, r *http.Request) {
	var request drinkRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid drink payload")

		return
	}

	if err := validateDrinkRequest(&request); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())

		return
	}

	category, err := s.categories.AddCategory(r.Context(), request.Category)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error resolving category")

		return
	}

	entry := model.DrinkEntry{
		UUID:           uuid.New(),
		Name:           request.Name,
		CategoryID:     category.ID,
		Quantity:       request.Quantity,
		Unit:           model.Unit(request.Unit),
		AlcoholContent: request.AlcoholContent,
		Date:           request.Date,
		Time:           request.Time,
		Barcode:        request.Barcode,
	}

	if request.Location != nil {
		entry.Latitude = &request.Location.Latitude
		entry.Longitude = &request.Location.Longitude
		entry.Accuracy = request.Location.Accuracy
		entry.Address = request.Location.Address
	}

	saved, err := s.drinks.AddDrink(r.Context(), entry)
	if err != nil {
		s.logger.Error("error saving drink", zap.String("name", entry.Name), zap.Error(err))
		writeError(w, s.logger, http.StatusInternalServerError, "error saving drink")

		return
	}

	s.cache.Invalidate()

	saved.Category = *category

	if saved.HasCoordinates() && saved.Address == nil {
		go s.enrichAddress(saved.UUID, *saved.Latitude, *saved.Longitude)
	}

	writeJSON(w, s.logger, http.StatusCreated, drinkFromModel(saved))
}

// enrichAddress patches the address after the response has been sent.
// Errors are logged and dropped; the entry simply keeps a nil address.
func (s *DrinkServer) enrichAddress(id uuid.UUID, lat float64, lon float64) {
	if s.geocoder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()

	address, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("reverse geocoding failed", zap.String("drink", id.String()), zap.Error(err))

		return
	}

	if err := s.drinks.UpdateDrinkAddress(ctx, id, address); err != nil {
		s.logger.Error("error patching drink address", zap.String("drink", id.String()), zap.Error(err))

		return
	}

	s.cache.Invalidate()
}

func (s *DrinkServer) GetDrink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid drink id")

		return
	}

	entry, err := s.drinks.GetDrinkByUUID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDrinkNotFound) {
			writeError(w, s.logger, http.StatusNotFound, "drink not found")

			return
		}

		writeError(w, s.logger, http.StatusInternalServerError, "error loading drink")

		return
	}

	writeJSON(w, s.logger, http.StatusOK, drinkFromModel(entry))
}

type drinkPatch struct {
	Name           *string          `json:"name,omitempty"`
	Category       *string          `json:"category,omitempty"`
	Quantity       *float64         `json:"quantity,omitempty"`
	Unit           *string          `json:"unit,omitempty"`
	AlcoholContent *float64         `json:"alcoholContent,omitempty"`
	Date           *string          `json:"date,omitempty"`
	Time           *string          `json:"time,omitempty"`
	Location       *locationPayload `json:"location,omitempty"`
}

func (s *DrinkServer) UpdateDrink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid drink id")

		return
	}

	var patch drinkPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid drink payload")

		return
	}

	entry, err := s.drinks.GetDrinkByUUID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDrinkNotFound) {
			writeError(w, s.logger, http.StatusNotFound, "drink not found")

			return
		}

		writeError(w, s.logger, http.StatusInternalServerError, "error loading drink")

		return
	}

	if err := s.applyPatch(r.Context(), entry, &patch); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())

		return
	}

	updated, err := s.drinks.UpdateDrink(r.Context(), entry)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error updating drink")

		return
	}

	s.cache.Invalidate()

	writeJSON(w, s.logger, http.StatusOK, drinkFromModel(updated))
}

func (s *DrinkServer) applyPatch(ctx context.Context, entry *model.DrinkEntry, patch *drinkPatch) error {
	if patch.Name != nil {
		if *patch.Name == "" {
			return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}

		entry.Name = *patch.Name
	}

	if patch.Category != nil {
		category, err := s.categories.AddCategory(ctx, *patch.Category)
		if err != nil {
			return err
		}

		entry.CategoryID = category.ID
		entry.Category = *category
	}

	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}

		entry.Quantity = *patch.Quantity
	}

	if patch.Unit != nil {
		if !validUnit(*patch.Unit) {
			return fmt.Errorf("%w: unknown unit", ErrInvalidInput)
		}

		entry.Unit = model.Unit(*patch.Unit)
	}

	if patch.AlcoholContent != nil {
		if *patch.AlcoholContent < 0 || *patch.AlcoholContent > 100 {
			return fmt.Errorf("%w: alcohol content must be within 0..100", ErrInvalidInput)
		}

		entry.AlcoholContent = patch.AlcoholContent
	}

	if patch.Date != nil {
		entry.Date = *patch.Date
	}

	if patch.Time != nil {
		entry.Time = *patch.Time
	}

	if patch.Location != nil {
		entry.Latitude = &patch.Location.Latitude
		entry.Longitude = &patch.Location.Longitude
		entry.Accuracy = patch.Location.Accuracy
		entry.Address = patch.Location.Address
	}

	return nil
}

func (s *DrinkServer) DeleteDrink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid drink id")

		return
	}

	if err := s.drinks.DeleteDrink(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrDrinkNotFound) {
			writeError(w, s.logger, http.StatusNotFound, "drink not found")

			return
		}

		writeError(w, s.logger, http.StatusInternalServerError, "error deleting drink")

		return
	}

	s.cache.Invalidate()

	writeJSON(w, s.logger, http.StatusNoContent, nil)
}

func validateDrinkRequest(request *drinkRequest) error {
	switch {
	case request.Name == "":
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	case request.Category == "":
		return fmt.Errorf("%w: category must not be empty", ErrInvalidInput)
	case request.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	case !validUnit(request.Unit):
		return fmt.Errorf("%w: unknown unit", ErrInvalidInput)
	case request.AlcoholContent != nil && (*request.AlcoholContent < 0 || *request.AlcoholContent > 100):
		return fmt.Errorf("%w: alcohol content must be within 0..100", ErrInvalidInput)
	}

	if _, err := time.ParseInLocation(model.DateLayout, request.Date, time.Local); err != nil {
		return fmt.Errorf("%w: date must be formatted as 2006-01-02", ErrInvalidInput)
	}

	if _, err := time.ParseInLocation(model.TimeLayout, request.Time, time.Local); err != nil {
		return fmt.Errorf("%w: time must be formatted as 15:04", ErrInvalidInput)
	}

	return nil
}

func validUnit(unit string) bool {
	switch model.Unit(unit) {
	case model.UnitCentiliters, model.UnitLiters, model.UnitCup:
		return true
	}

	return false
}

type categoryResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	DrinkCount int64  `json:"drinkCount"`
}

func (s *DrinkServer) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.GetCategories(r.Context())
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error loading categories")

		return
	}

	responses := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, categoryResponse{ID: category.ID, Name: category.Name, DrinkCount: category.DrinkCount})
	}

	writeJSON(w, s.logger, http.StatusOK, responses)
}

func (s *DrinkServer) AddCategory(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Name == "" {
		writeError(w, s.logger, http.StatusBadRequest, "category name must not be empty")

		return
	}

	category, err := s.categories.AddCategory(r.Context(), request.Name)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error saving category")

		return
	}

	writeJSON(w, s.logger, http.StatusCreated, categoryResponse{ID: category.ID, Name: category.Name})
}

func (s *DrinkServer) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid category id")

		return
	}

	if err := s.categories.DeleteCategory(r.Context(), uint(id)); err != nil {
		if errors.Is(err, repository.ErrCategoryInUse) {
			writeError(w, s.logger, http.StatusConflict, "category still referenced by drinks")

			return
		}

		writeError(w, s.logger, http.StatusInternalServerError, "error deleting category")

		return
	}

	writeJSON(w, s.logger, http.StatusNoContent, nil)
}

func (s *DrinkServer) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings := make(map[string]*string)

	for _, key := range []string{model.SettingUserWeight, model.SettingUserGender} {
		value, err := s.settings.GetSetting(r.Context(), key)
		if err != nil {
			writeError(w, s.logger, http.StatusInternalServerError, "error loading settings")

			return
		}

		settings[key] = value
	}

	writeJSON(w, s.logger, http.StatusOK, settings)
}

func (s *DrinkServer) PutSetting(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Key == "" {
		writeError(w, s.logger, http.StatusBadRequest, "setting key must not be empty")

		return
	}

	if err := s.settings.SetSetting(r.Context(), request.Key, request.Value); err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error saving setting")

		return
	}

	writeJSON(w, s.logger, http.StatusNoContent, nil)
}

func (s *DrinkServer) LookupBarcode(w http.ResponseWriter, r *http.Request) {
	if s.barcodes == nil {
		writeError(w, s.logger, http.StatusServiceUnavailable, "barcode lookup not configured")

		return
	}

	product, err := s.barcodes.LookupBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.logger.Warn("barcode lookup failed", zap.String("barcode", chi.URLParam(r, "code")), zap.Error(err))
		writeError(w, s.logger, http.StatusNotFound, "no product found")

		return
	}

	writeJSON(w, s.logger, http.StatusOK, product)
}

func (s *DrinkServer) FindDrink(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, s.logger, http.StatusBadRequest, "query must not be empty")

		return
	}

	var results []integrations.DrinkInfo

	for _, name := range s.config.Integrations.Drink {
		integration := integrations.GetIntegration(name, s.logger)
		if integration == nil {
			continue
		}

		found, err := integration.FindDrink(query)
		if err != nil {
			s.logger.Error("failed drink search", zap.String("integration", name), zap.Error(err))

			continue
		}

		results = append(results, found...)
	}

	writeJSON(w, s.logger, http.StatusOK, results)
}
