package server_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droscher.com/SipGargoyle/pkg/integrations/openfoodfacts"
)

func TestAddDrink_CreatesDrink(t *testing.T) {
	f := newFixture(t, newStubStore(), nil, nil)

	recorder := f.request(t, http.MethodPost, "/api/v1/drinks", `{
		"name": "Chouffe",
		"category": "Beer",
		"quantity": 33,
		"unit": "cl",
		"alcoholContent": 8.0,
		"date": "2025-06-11",
		"time": "19:30"
	}`)

	requireStatus(t, recorder, http.StatusCreated)

	var response map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "Chouffe", response["name"])
	assert.Equal(t, "Beer", response["category"])
	assert.NotEmpty(t, response["id"])

	require.Len(t, f.store.entries, 1)
	require.Len(t, f.store.categories, 1)
	assert.Equal(t, "Beer", f.store.categories[0].Name)
}

func TestAddDrink_ReusesExistingCategory(t *testing.T) {
	store := newStubStore()
	f := newFixture(t, store, nil, nil)

	for range 2 {
		recorder := f.request(t, http.MethodPost, "/api/v1/drinks", `{
			"name": "Chouffe", "category": "Beer", "quantity": 33, "unit": "cl",
			"date": "2025-06-11", "time": "19:30"
		}`)
		requireStatus(t, recorder, http.StatusCreated)
	}

	assert.Len(t, store.categories, 1)
	assert.Len(t, store.entries, 2)
}

func TestAddDrink_RejectsInvalidPayloads(t *testing.T) {
	f := newFixture(t, newStubStore(), nil, nil)

	payloads := map[string]string{
		"missing name":     `{"category": "Beer", "quantity": 33, "unit": "cl", "date": "2025-06-11", "time": "19:30"}`,
		"missing category": `{"name": "Chouffe", "quantity": 33, "unit": "cl", "date": "2025-06-11", "time": "19:30"}`,
		"zero quantity":    `{"name": "Chouffe", "category": "Beer", "quantity": 0, "unit": "cl", "date": "2025-06-11", "time": "19:30"}`,
		"unknown unit":     `{"name": "Chouffe", "category": "Beer", "quantity": 1, "unit": "pint", "date": "2025-06-11", "time": "19:30"}`,
		"bad date":         `{"name": "Chouffe", "category": "Beer", "quantity": 33, "unit": "cl", "date": "11/06/2025", "time": "19:30"}`,
		"bad time":         `{"name": "Chouffe", "category": "Beer", "quantity": 33, "unit": "cl", "date": "2025-06-11", "time": "7pm"}`,
		"excessive abv":    `{"name": "Chouffe", "category": "Beer", "quantity": 33, "unit": "cl", "alcoholContent": 120, "date": "2025-06-11", "time": "19:30"}`,
		"not json":         `not json`,
	}

	for name, payload := range payloads {
		recorder := f.request(t, http.MethodPost, "/api/v1/drinks", payload)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, name)
	}

	assert.Empty(t, f.store.entries)
}

func TestAddDrink_EnrichesAddressAsynchronously(t *testing.T) {
	store := newStubStore()
	f := newFixture(t, store, &stubGeocoder{address: "Hôtel de Ville, Paris"}, nil)

	recorder := f.request(t, http.MethodPost, "/api/v1/drinks", `{
		"name": "Chouffe", "category": "Beer", "quantity": 33, "unit": "cl",
		"date": "2025-06-11", "time": "19:30",
		"location": {"latitude": 48.8566, "longitude": 2.3522}
	}`)
	requireStatus(t, recorder, http.StatusCreated)

	select {
	case address := <-store.addressPatched:
		assert.Equal(t, "Hôtel de Ville, Paris", address)
	case <-time.After(2 * time.Second):
		t.Fatal("address was never patched")
	}
}

func TestAddDrink_KeepsProvidedAddress(t *testing.T) {
	store := newStubStore()
	f := newFixture(t, store, &stubGeocoder{address: "should not be used"}, nil)

	recorder := f.request(t, http.MethodPost, "/api/v1/drinks", `{
		"name": "Chouffe", "category": "Beer", "quantity": 33, "unit": "cl",
		"date": "2025-06-11", "time": "19:30",
		"location": {"latitude": 48.8566, "longitude": 2.3522, "address": "12 Rue de la Soif"}
	}`)
	requireStatus(t, recorder, http.StatusCreated)

	require.Len(t, store.entries, 1)
	require.NotNil(t, store.entries[0].Address)
	assert.Equal(t, "12 Rue de la Soif", *store.entries[0].Address)

	select {
	case <-store.addressPatched:
		t.Fatal("geocoder should not run when an address was supplied")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGetDrink(t *testing.T) {
	store := newStubStore()
	entry := storedDrink(store, "2025-06-11", "19:30", "Chouffe", 1, "Beer")
	f := newFixture(t, store, nil, nil)

	recorder := f.request(t, http.MethodGet, "/api/v1/drinks/"+entry.UUID.String(), "")
	requireStatus(t, recorder, http.StatusOK)

	var response map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "Chouffe", response["name"])
	assert.Equal(t, entry.UUID.String(), response["id"])
}

func TestGetDrink_NotFound(t *testing.T) {
	f := newFixture(t, newStubStore(), nil, nil)

	recorder := f.request(t, http.MethodGet, "/api/v1/drinks/a63ab1f1-94b8-44bc-9f62-e63bbba63d45", "")
	requireStatus(t, recorder, http.StatusNotFound)
}

func TestGetDrink_InvalidID(t *testing.T) {
	f := newFixture(t, newStubStore(), nil, nil)

	recorder := f.request(t, http.MethodGet, "/api/v1/drinks/not-a-uuid", "")
	requireStatus(t, recorder, http.StatusBadRequest)
}

func TestListDrinks_All(t *testing.T) {
	store := newStubStore()
	storedDrink(store, "2025-06-10", "19:30", "Chouffe", 1, "Beer")
	storedDrink(store, "2025-06-11", "20:00", "Merlot", 2, "Wine")
	f := newFixture(t, store, nil, nil)

	recorder := f.request(t, http.MethodGet, "/api/v1/drinks", "")
	requireStatus(t, recorder, http.StatusOK)

	var response []map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Len(t, response, 2)
}

func TestListDrinks_FiltersByRange(t *testing.T) {
	store := newStubStore()
	storedDrink(store, "2025-05-31", "19:30", "Chouffe", 1, "Beer")
	storedDrink(store, "2025-06-11", "20:00", "Merlot", 2, "Wine")
	f := newFixture(t, store, nil, nil)

	recorder := f.request(t, http.MethodGet, "/api/v1/drinks?start=2025-06-01&end=2025-06-30", "")
	requireStatus(t, recorder, http.StatusOK)

	var response []map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "Merlot", response[0]["name"])
}

func TestListDrinks_RejectsMalformedRange(t *testing.T) {
	f := newFixture(t, newStubStore(), nil, nil)

	recorder := f.request(t, http.MethodGet, "/api/v1/drinks?start=junk&end=2025-06-30", "")
	requireStatus(t, recorder, http.StatusBadRequest)
}

func TestUpdateDrink_AppliesPatch(t *testing.T) {
	store := newStubStore()
	entry := storedDrink(store, "2025-06-11", "19:30", "Chouffe", 1, "Beer")
	f := newFixture(t, store, nil, nil)

	recorder := f.request(t, http.MethodPatch, "/api/v1/drinks/"+entry.UUID.String(), `{"name": "La Chouffe", "quantity": 50}`)
	requireStatus(t, recorder, http.StatusOK)

	assert.Equal(t, "La Chouffe", store.entries[0].Name)
	assert.InDelta(t, 50.0, store.entries[0].Quantity, 0.001)
	// untouched fields survive
	assert.Equal(t, "2025-06-11", store.entries[0].Date)
}

func TestUpdateDrink_RejectsInvalidPatch(t *testing.T) {
	store := newStubStore()
	entry := storedDrink(store, "2025-06-11", "19:30", "Chouffe", 1, "Beer")
	f := newFixture(t, store, nil, nil)

	for name, payload := range map[string]string{
		"empty name":    `{"name": ""}`,
		"zero quantity": `{"quantity": 0}`,
		"unknown unit":  `{"unit": "keg"}`,
		"excessive abv": `{"alcoholContent": 250}`,
	} {
		recorder := f.request(t, http.MethodPatch, "/api/v1/drinks/"+entry.UUID.String(), payload)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, name)
	}

	assert.Equal(t, "Chouffe", store.entries[0].Name)
}

func TestDeleteDrink(t *testing.T) {
	store := newStubStore()
	entry := storedDrink(store, "2025-06-11", "19:30", "Chouffe", 1, "Beer")
	f := newFixture(t, store, nil, nil)

	recorder := f.request(t, http.MethodDelete, "/api/v1/drinks/"+entry.UUID.String(), "")
	requireStatus(t, recorder, http.StatusNoContent)
	assert.Empty(t, store.entries)

	recorder = f.request(t, http.MethodDelete, "/api/v1/drinks/"+entry.UUID.String(), "")
	requireStatus(t, recorder, http.StatusNotFound)
}

func TestListCategories(t *testing.T) {
	store := newStubStore()
	store.categories = append(store.categories, beerCategory())
	f := newFixture(t, store, nil, nil)

	recorder := f.request(t, http.MethodGet, "/api/v1/categories", "")
	requireStatus(t, recorder, http.StatusOK)

	var response []map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "Beer", response[0]["name"])
}

func TestDeleteCategory_RefusedWhileInUse(t *testing.T) {
	store := newStubStore()
	store.categories = append(store.categories, beerCategory())
	storedDrink(store, "2025-06-11", "19:30", "Chouffe", 1, "Beer")
	f := newFixture(t, store, nil, nil)

	recorder := f.request(t, http.MethodDelete, "/api/v1/categories/1", "")
	requireStatus(t, recorder, http.StatusConflict)
}

func TestSettings_RoundTrip(t *testing.T) {
	f := newFixture(t, newStubStore(), nil, nil)

	recorder := f.request(t, http.MethodPut, "/api/v1/settings", `{"key": "userWeight", "value": "72.5"}`)
	requireStatus(t, recorder, http.StatusNoContent)

	recorder = f.request(t, http.MethodGet, "/api/v1/settings", "")
	requireStatus(t, recorder, http.StatusOK)

	var response map[string]*string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.NotNil(t, response["userWeight"])
	assert.Equal(t, "72.5", *response["userWeight"])
	assert.Nil(t, response["userGender"])
}

func TestPutSetting_RejectsEmptyKey(t *testing.T) {
	f := newFixture(t, newStubStore(), nil, nil)

	recorder := f.request(t, http.MethodPut, "/api/v1/settings", `{"value": "72.5"}`)
	requireStatus(t, recorder, http.StatusBadRequest)
}

func TestLookupBarcode(t *testing.T) {
	barcodes := &stubBarcodes{product: openfoodfacts.Product{
		Barcode:  "3263850010504",
		Name:     "Cidre Brut",
		Category: "Ciders",
	}}
	f := newFixture(t, newStubStore(), nil, barcodes)

	recorder := f.request(t, http.MethodGet, "/api/v1/lookup/barcode/3263850010504", "")
	requireStatus(t, recorder, http.StatusOK)

	var response map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "Cidre Brut", response["name"])
}

func TestLookupBarcode_NotConfigured(t *testing.T) {
	f := newFixture(t, newStubStore(), nil, nil)

	recorder := f.request(t, http.MethodGet, "/api/v1/lookup/barcode/3263850010504", "")
	requireStatus(t, recorder, http.StatusServiceUnavailable)
}
