package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"matrimony-match-engine/internal/services/importer"
	s3service "matrimony-match-engine/internal/services/s3"
	"matrimony-match-engine/internal/utils"
)

// UploadURLExpiryMinutes is the lifetime of an issued upload URL.
const UploadURLExpiryMinutes = 60

// ErrNotCSV is returned for upload requests of other file types.
var ErrNotCSV = errors.New("only CSV files are allowed")

// Presigner issues upload URLs for the import bucket.
type Presigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, expiryMinutes int) (*s3service.PresignedURLResult, error)
}

// UploadURLResponse is returned to clients requesting an upload URL.
type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	S3Key     string `json:"s3_key"`
	ExpiresIn int    `json:"expires_in"`
}

// IssueUploadURL validates the file name and presigns an incoming key for it.
func IssueUploadURL(ctx context.Context, presigner Presigner, filename string) (*UploadURLResponse, error) {
	if filename == "" {
		filename = "profiles.csv"
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, ErrNotCSV
	}

	key := importer.IncomingKey(filename, time.Now())
	result, err := presigner.GeneratePresignedUploadURL(ctx, key, "text/csv", UploadURLExpiryMinutes)
	if err != nil {
		return nil, err
	}

	return &UploadURLResponse{
		UploadURL: result.URL,
		S3Key:     result.Key,
		ExpiresIn: UploadURLExpiryMinutes * 60,
	}, nil
}

// PresignedURLHandler handles requests for generating presigned S3 URLs.
type PresignedURLHandler struct {
	presigner Presigner
}

// NewPresignedURLHandler creates a new presigned URL handler.
func NewPresignedURLHandler(presigner Presigner) *PresignedURLHandler {
	return &PresignedURLHandler{presigner: presigner}
}

// Handle processes the API Gateway request for generating presigned URLs.
func (h *PresignedURLHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()
	headers := corsHeaders("GET,OPTIONS")

	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	response, err := IssueUploadURL(ctx, h.presigner, request.QueryStringParameters["filename"])
	if errors.Is(err, ErrNotCSV) {
		return errorResponse(headers, http.StatusBadRequest, "Only CSV files are allowed")
	}
	if err != nil {
		logger.Error("Failed to generate presigned URL", utils.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to generate upload URL")
	}

	body, _ := json.Marshal(response)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// errorResponse creates an error response.
func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"error":   http.StatusText(statusCode),
		"message": message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
