package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/forecast"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDrugRepo struct {
	drugs []domain.Drug
}

func (f *fakeDrugRepo) GetDrugs(_ context.Context) ([]domain.Drug, error) {
	return f.drugs, nil
}

func (f *fakeDrugRepo) GetDrug(_ context.Context, drugID int64) (*domain.Drug, error) {
	for _, d := range f.drugs {
		if d.ID == drugID {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("drug %d not found", drugID)
}

type fakeUsageRepo struct {
	usage map[int64][]domain.UsageRecord
	stock map[int64]float64
}

func (f *fakeUsageRepo) GetRecentUsage(_ context.Context, drugID int64, _ int) ([]domain.UsageRecord, error) {
	return f.usage[drugID], nil
}

func (f *fakeUsageRepo) GetRecentUsageAll(_ context.Context, _ int) ([]domain.UsageRecord, error) {
	var all []domain.UsageRecord
	for _, records := range f.usage {
		all = append(all, records...)
	}
	return all, nil
}

func (f *fakeUsageRepo) GetCurrentStock(_ context.Context, drugID int64) (float64, error) {
	return f.stock[drugID], nil
}

func (f *fakeUsageRepo) GetAllCurrentStock(_ context.Context) (map[int64]float64, error) {
	return f.stock, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	payload := `{"drug_id":1,"drug_name":"paracetamol","algorithm":"linear","intercept":0,"weights":{"usage_mean_7d":1}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model_1_paracetamol.json"), []byte(payload), 0644))

	drugs := &fakeDrugRepo{drugs: []domain.Drug{
		{ID: 1, Name: "Paracetamol 500mg", Unit: "tablets", ReorderLevel: 50},
	}}

	records := make([]domain.UsageRecord, 30)
	base := time.Now()
	for i := range records {
		records[i] = domain.UsageRecord{DrugID: 1, Date: base.AddDate(0, 0, -i-1), QuantityUsed: 10}
	}
	usage := &fakeUsageRepo{
		usage: map[int64][]domain.UsageRecord{1: records},
		stock: map[int64]float64{1: 200},
	}

	registry := forecast.NewRegistry(forecast.NewDirArtifactStore(dir), drugs)
	_, err := registry.Load(context.Background())
	require.NoError(t, err)

	seasonal := forecast.NewSeasonalAdjuster()
	engine := forecast.NewEngine(registry, seasonal)
	svc := service.NewForecastService(drugs, usage, registry, engine, seasonal, nil)

	handler := NewForecastHandler(svc)

	router := gin.New()
	router.GET("/models", handler.ListModels)
	router.POST("/models/reload", handler.ReloadModels)
	router.POST("/forecast/all", handler.ForecastAll)
	router.POST("/forecast/:drug_id", handler.Forecast)
	router.POST("/forecast/:drug_id/detailed", handler.ForecastDetailed)

	return router
}

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestForecastEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/forecast/1", forecastRequest{Days: 7})
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.DrugForecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(1), result.DrugID)
	assert.Equal(t, "Paracetamol 500mg", result.DrugName)
	assert.Len(t, result.Forecasts, 7)
	assert.NotEmpty(t, result.Recommendation.Status)
}

func TestForecastEndpointDefaultsHorizon(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/forecast/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.DrugForecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.Forecasts, forecast.DefaultHorizonDays)
}

func TestForecastEndpointClampsHorizon(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/forecast/1", forecastRequest{Days: 500})
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.DrugForecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.Forecasts, maxHorizonDays)
}

func TestForecastEndpointUnknownDrug(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/forecast/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no model found")
}

func TestForecastEndpointBadDrugID(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/forecast/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForecastDetailedEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/forecast/1/detailed", forecastRequest{Days: 3})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		DrugID      int64                          `json:"drug_id"`
		Predictions []domain.AdaptiveForecastPoint `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.DrugID)
	require.Len(t, body.Predictions, 3)
	assert.NotZero(t, body.Predictions[0].TrendFactor)
}

func TestForecastAllEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/forecast/all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Forecasts []domain.DrugForecast `json:"forecasts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Forecasts, 1)
	assert.Equal(t, int64(1), body.Forecasts[0].DrugID)
}

func TestListModelsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var infos []domain.ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "Paracetamol 500mg", infos[0].DrugName)
}

func TestReloadModelsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/models/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "models_loaded")
}
