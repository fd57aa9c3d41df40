// Package handlers provides the Lambda handlers of the match engine.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler creates a health handler over the named checks.
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Stage      string            `json:"stage"`
	Components map[string]string `json:"components"`
}

// Check runs every registered check. A failing one marks the service degraded.
func (h *HealthHandler) Check(ctx context.Context) HealthResponse {
	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Service:    "matrimony-match-engine",
		Version:    getEnvOrDefault("SERVICE_VERSION", "1.0.0"),
		Stage:      getEnvOrDefault("STAGE", "unknown"),
		Components: make(map[string]string, len(h.checks)),
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	for name, check := range h.checks {
		if check == nil {
			response.Components[name] = "not configured"
			continue
		}
		if err := check(ctx); err != nil {
			response.Components[name] = "disconnected"
			response.Status = "degraded"
			continue
		}
		response.Components[name] = "connected"
	}

	return response
}

// StatusCode maps the health status to an HTTP status.
func (r HealthResponse) StatusCode() int {
	if r.Status != "healthy" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Handle processes API Gateway health check requests.
func (h *HealthHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	response := h.Check(ctx)
	body, _ := json.Marshal(response)

	return events.APIGatewayProxyResponse{
		StatusCode: response.StatusCode(),
		Headers:    corsHeaders("GET,OPTIONS"),
		Body:       string(body),
	}, nil
}

func corsHeaders(methods string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization,X-User-ID",
		"Access-Control-Allow-Methods": methods,
		"Content-Type":                 "application/json",
	}
}

// getEnvOrDefault returns environment variable or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
