package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"matrimony-match-engine/internal/services/importer"
	"matrimony-match-engine/internal/utils"
)

// ObjectImporter imports a profile CSV stored in the bucket.
type ObjectImporter interface {
	ImportObject(ctx context.Context, key string) (*importer.Result, error)
}

// ProfileImportHandler handles S3 events for uploaded profile files.
type ProfileImportHandler struct {
	importer ObjectImporter
	bucket   string
}

// NewProfileImportHandler creates a handler for objects of bucket.
func NewProfileImportHandler(imp ObjectImporter, bucket string) *ProfileImportHandler {
	return &ProfileImportHandler{importer: imp, bucket: bucket}
}

// ImportSummary is the result of one S3 event.
type ImportSummary struct {
	Message  string             `json:"message"`
	Imported int                `json:"imported"`
	Failed   int                `json:"failed"`
	Files    []*importer.Result `json:"files"`
	Skipped  []string           `json:"skipped,omitempty"`
}

// Handle imports every incoming object referenced by the event. Objects
// outside the incoming prefix are skipped so archived files never re-trigger.
func (h *ProfileImportHandler) Handle(ctx context.Context, s3Event events.S3Event) (ImportSummary, error) {
	logger := utils.GetLogger().Named("profile_import")
	summary := ImportSummary{Files: []*importer.Result{}}

	if len(s3Event.Records) == 0 {
		summary.Message = "No records to process"
		return summary, nil
	}

	for _, record := range s3Event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return summary, fmt.Errorf("failed to decode S3 key: %w", err)
		}

		if h.bucket != "" && record.S3.Bucket.Name != h.bucket {
			summary.Skipped = append(summary.Skipped, key)
			continue
		}
		if !strings.HasPrefix(key, importer.IncomingPrefix) {
			summary.Skipped = append(summary.Skipped, key)
			continue
		}

		logger.Info("Processing profile import",
			utils.String("bucket", record.S3.Bucket.Name),
			utils.String("key", key))

		result, err := h.importer.ImportObject(ctx, key)
		if err != nil {
			logger.Error("Profile import failed", utils.String("key", key), utils.Error(err))
			return summary, fmt.Errorf("failed to import %s: %w", key, err)
		}

		summary.Files = append(summary.Files, result)
		summary.Imported += result.Imported
		summary.Failed += result.Failed
	}

	summary.Message = fmt.Sprintf("Processed %d file(s)", len(summary.Files))
	return summary, nil
}
