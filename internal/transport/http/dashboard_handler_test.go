package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/config"
	"salesdash/internal/dashboard"
	apierrors "salesdash/internal/errors"
	"salesdash/internal/services"
)

type fakeDashboardService struct {
	lastRequest services.RenderRequest
	payload     *dashboard.Payload
	err         error
}

func (f *fakeDashboardService) Render(ctx context.Context, req services.RenderRequest) (*dashboard.Payload, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	if f.payload != nil {
		return f.payload, nil
	}
	return &dashboard.Payload{Target: req.Target}, nil
}

func newTestHandler(service DashboardServiceInterface) *DashboardHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDashboardHandler(service, config.DashboardConfig{
		DefaultTarget: 20000000,
		MinTarget:     0,
		TargetStep:    100000,
	}, 1<<20, logger, apierrors.NewErrorHandler(logger, false))
}

func multipartBody(t *testing.T, filename string, content []byte, target string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if target != "" {
		require.NoError(t, writer.WriteField("target", target))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestDashboardHandler_RenderUpload(t *testing.T) {
	service := &fakeDashboardService{}
	handler := newTestHandler(service)

	body, contentType := multipartBody(t, "sales.csv", []byte("월,매출액\n2024-01,100\n"), "5000000")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Render(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.FormatCSV, service.lastRequest.Format)
	assert.Equal(t, float64(5000000), service.lastRequest.Target)
	assert.False(t, service.lastRequest.UseSample)
	assert.NotEmpty(t, service.lastRequest.Content)
}

func TestDashboardHandler_RenderExcelExtension(t *testing.T) {
	service := &fakeDashboardService{}
	handler := newTestHandler(service)

	body, contentType := multipartBody(t, "sales.xlsx", []byte{0x50, 0x4b}, "")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Render(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.FormatExcel, service.lastRequest.Format)
}

func TestDashboardHandler_RenderNoFileUsesSample(t *testing.T) {
	service := &fakeDashboardService{}
	handler := newTestHandler(service)

	body, contentType := multipartBody(t, "", nil, "")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Render(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, service.lastRequest.UseSample)
	assert.Equal(t, float64(20000000), service.lastRequest.Target, "absent target falls back to configured default")
}

func TestDashboardHandler_RenderUnsupportedExtension(t *testing.T) {
	handler := newTestHandler(&fakeDashboardService{})

	body, contentType := multipartBody(t, "sales.pdf", []byte("%PDF"), "")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Render(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestDashboardHandler_RenderInvalidTarget(t *testing.T) {
	handler := newTestHandler(&fakeDashboardService{})

	body, contentType := multipartBody(t, "", nil, "not-a-number")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Render(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandler_RenderServiceError(t *testing.T) {
	handler := newTestHandler(&fakeDashboardService{err: apierrors.ErrParseFailed})

	body, contentType := multipartBody(t, "sales.csv", []byte("broken"), "")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Render(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "PARSE_FAILED")
}

func TestDashboardHandler_RenderSample(t *testing.T) {
	service := &fakeDashboardService{}
	handler := newTestHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/sample?target=30000000", nil)
	rec := httptest.NewRecorder()

	handler.RenderSample(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, service.lastRequest.UseSample)
	assert.Equal(t, float64(30000000), service.lastRequest.Target)

	var payload dashboard.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, float64(30000000), payload.Target)
}

func TestDashboardHandler_TargetWithThousandsSeparators(t *testing.T) {
	service := &fakeDashboardService{}
	handler := newTestHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/sample?target=20,000,000", nil)
	rec := httptest.NewRecorder()

	handler.RenderSample(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(20000000), service.lastRequest.Target)
}

func TestConfigHandler_Get(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewConfigHandler(config.DashboardConfig{
		DefaultTarget: 20000000,
		MinTarget:     0,
		TargetStep:    100000,
	}, logger)

	rec := httptest.NewRecorder()
	handler.Get(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(20000000), got["default_target"])
	assert.Equal(t, float64(100000), got["target_step"])
}

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHealthHandler(logger)

	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = httptest.NewRecorder()
	handler.Version(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "salesdash")
}
