package aiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cancer-ai-portal/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(domain.BackendConfig{
		BaseURL:   server.URL + "/",
		Timeout:   5 * time.Second,
		RateLimit: 1000,
	}, testLogger())
	return client, server
}

func TestClient_ListCancers(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cancers/", r.URL.Path)
		assert.Equal(t, "diagnosis", r.URL.Query().Get("ai_feature"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"name":"Breast Cancer","slug":"breast-cancer"},{"name":"Lung Cancer","slug":"lung-cancer"}]`)
	})

	cancers, err := client.ListCancers(context.Background(), domain.FeatureDiagnosis)
	require.NoError(t, err)
	require.Len(t, cancers, 2)
	assert.Equal(t, "breast-cancer", cancers[0].Slug)
	assert.Equal(t, "Lung Cancer", cancers[1].Name)
}

func TestClient_ListFeatureOptions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cancers/breast-cancer/feature-options", r.URL.Path)
		assert.Equal(t, "prognosis", r.URL.Query().Get("ai_feature"))
		_, _ = io.WriteString(w, `[{"ai_data_type":"image","key":"k1","label":"L1"},{"ai_data_type":"gene","key":"k2","label":"L2"}]`)
	})

	rows, err := client.ListFeatureOptions(context.Background(), "breast-cancer", domain.FeaturePrognosis)
	require.NoError(t, err)
	assert.Equal(t, []domain.FeatureOption{
		{AIDataType: "image", Key: "k1", Label: "L1"},
		{AIDataType: "gene", Key: "k2", Label: "L2"},
	}, rows)
}

func TestClient_GetCancer_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such cancer", http.StatusNotFound)
	})

	_, err := client.GetCancer(context.Background(), "unknown", domain.FeatureDiagnosis)
	require.Error(t, err)

	var be *domain.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusNotFound, be.StatusCode)
	assert.Equal(t, "no such cancer", be.Body)
}

func TestClient_DecodeFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})

	_, err := client.ListCancers(context.Background(), domain.FeatureTreatment)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestClient_Predict_MultipartFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cancers/breast-cancer/predict", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "diagnosis", r.FormValue("ai_feature"))
		assert.Equal(t, "gene37", r.FormValue("feature_key"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "data.csv", header.Filename)
		assert.Equal(t, "text/csv", header.Header.Get("Content-Type"))
		content, _ := io.ReadAll(file)
		assert.Equal(t, "a,b\n1,2\n", string(content))

		_, _ = io.WriteString(w, `{"prediction":1,"probability":0.87}`)
	})

	resp, err := client.Predict(context.Background(), domain.PredictRequest{
		CancerSlug:  "breast-cancer",
		Feature:     domain.FeatureDiagnosis,
		DatasetKey:  "gene37",
		FileName:    "data.csv",
		ContentType: "text/csv",
		Content:     strings.NewReader("a,b\n1,2\n"),
	})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"prediction":1,"probability":0.87}`, string(resp.Body))
}

func TestClient_Predict_ServerErrorIsResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Invalid CSV header")
	})

	resp, err := client.Predict(context.Background(), domain.PredictRequest{
		CancerSlug: "breast-cancer",
		Feature:    domain.FeatureDiagnosis,
		DatasetKey: "gene37",
		FileName:   "data.csv",
		Content:    strings.NewReader("x"),
	})
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Invalid CSV header", string(resp.Body))
}

func TestClient_Predict_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(domain.BackendConfig{BaseURL: url, RateLimit: 1000}, testLogger())
	_, err := client.Predict(context.Background(), domain.PredictRequest{
		CancerSlug: "breast-cancer",
		DatasetKey: "k",
		Content:    strings.NewReader("x"),
	})
	require.Error(t, err)
}

func TestClient_NewsImageFormats(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":1,"title":"A","image_url":"/uploads/a.png","category":"Research"},
			{"id":2,"title":"B","image_url":{"type":"Buffer","data":[104,105]},"category":"Events"},
			{"id":3,"title":"C","image_url":null,"category":"Events"}
		]`)
	})

	items, err := client.ListNews(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "/uploads/a.png", items[0].ImageURL)
	assert.Equal(t, []byte("hi"), items[1].ImageData)
	assert.Empty(t, items[1].ImageURL)
	assert.Empty(t, items[2].ImageURL)
	assert.Nil(t, items[2].ImageData)
}

func TestClient_Status(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/status", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"ok","models_loaded":1,"models_total":2,"models":[{"model_name":"brca_gene","loaded":true,"model_type":"xgboost","scaler":"standard","num_features":37,"cancer_type":"breast-cancer"}]}`)
	})

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 2, status.ModelsTotal)
	require.Len(t, status.Models, 1)
	assert.Equal(t, 37, status.Models[0].NumFeatures)
}
