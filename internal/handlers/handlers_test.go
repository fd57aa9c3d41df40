package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrimony-match-engine/internal/services/importer"
	s3service "matrimony-match-engine/internal/services/s3"
)

func TestHealthHandler_Healthy(t *testing.T) {
	h := NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    nil,
	})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "connected", body.Components["database"])
	assert.Equal(t, "not configured", body.Components["redis"])
}

func TestHealthHandler_Degraded(t *testing.T) {
	h := NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, resp.Body, `"disconnected"`)
}

type fakePresigner struct {
	key string
	err error
}

func (f *fakePresigner) GeneratePresignedUploadURL(_ context.Context, key, _ string, expiry int) (*s3service.PresignedURLResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key = key
	return &s3service.PresignedURLResult{
		URL:       "https://bucket.s3.amazonaws.com/" + key + "?sig=abc",
		Key:       key,
		ExpiresAt: time.Now().Add(time.Duration(expiry) * time.Minute),
	}, nil
}

func TestPresignedURLHandler(t *testing.T) {
	presigner := &fakePresigner{}
	h := NewPresignedURLHandler(presigner)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		QueryStringParameters: map[string]string{"filename": "batch 7.csv"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body UploadURLResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.True(t, strings.HasPrefix(body.S3Key, importer.IncomingPrefix))
	assert.True(t, strings.HasSuffix(body.S3Key, "_batch_7.csv"))
	assert.Equal(t, presigner.key, body.S3Key)
	assert.Equal(t, 3600, body.ExpiresIn)
}

func TestPresignedURLHandler_Errors(t *testing.T) {
	h := NewPresignedURLHandler(&fakePresigner{})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		QueryStringParameters: map[string]string{"filename": "photo.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	h = NewPresignedURLHandler(&fakePresigner{err: errors.New("no credentials")})
	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestPresignedURLHandler_Preflight(t *testing.T) {
	h := NewPresignedURLHandler(&fakePresigner{})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.Contains(t, resp.Headers["Access-Control-Allow-Headers"], "X-User-ID")
}

type fakeImporter struct {
	keys []string
	err  error
}

func (f *fakeImporter) ImportObject(_ context.Context, key string) (*importer.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, key)
	return &importer.Result{Source: key, Imported: 3, Failed: 1}, nil
}

func s3Record(bucket, key string) events.S3EventRecord {
	var r events.S3EventRecord
	r.S3.Bucket.Name = bucket
	r.S3.Object.Key = key
	return r
}

func TestProfileImportHandler(t *testing.T) {
	imp := &fakeImporter{}
	h := NewProfileImportHandler(imp, "imports-bucket")

	summary, err := h.Handle(context.Background(), events.S3Event{Records: []events.S3EventRecord{
		s3Record("imports-bucket", "imports/incoming/20240701T093000_ab12cd34_my+file.csv"),
		s3Record("imports-bucket", "imports/processed/old.csv"),
		s3Record("other-bucket", "imports/incoming/x.csv"),
	}})

	require.NoError(t, err)
	assert.Equal(t, []string{"imports/incoming/20240701T093000_ab12cd34_my file.csv"}, imp.keys)
	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.Skipped, 2)
}

func TestProfileImportHandler_NoRecords(t *testing.T) {
	h := NewProfileImportHandler(&fakeImporter{}, "")

	summary, err := h.Handle(context.Background(), events.S3Event{})
	require.NoError(t, err)
	assert.Equal(t, "No records to process", summary.Message)
}

func TestProfileImportHandler_ImportError(t *testing.T) {
	h := NewProfileImportHandler(&fakeImporter{err: errors.New("database unavailable")}, "")

	_, err := h.Handle(context.Background(), events.S3Event{Records: []events.S3EventRecord{
		s3Record("any", "imports/incoming/a.csv"),
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unavailable")
}
