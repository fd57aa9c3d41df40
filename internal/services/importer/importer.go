package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/utils"
)

// Object key layout of the import bucket.
const (
	IncomingPrefix  = "imports/incoming/"
	ProcessedPrefix = "imports/processed/"
	FailedPrefix    = "imports/failed/"
)

// MaxReportedErrors caps the row errors returned to callers.
const MaxReportedErrors = 20

var rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "matrimony_import_rows_total",
	Help: "Profile import rows by result",
}, []string{"result"})

// ProfileWriter persists imported profiles.
type ProfileWriter interface {
	BulkUpsert(ctx context.Context, profiles []*models.Profile, batchID string) (*models.BulkInsertResult, error)
}

// ObjectStore holds uploaded import files.
type ObjectStore interface {
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	UploadFile(ctx context.Context, key string, data []byte, contentType string) error
	MoveFile(ctx context.Context, sourceKey, destKey string) error
}

// Result summarizes one import.
type Result struct {
	Message   string   `json:"message"`
	BatchID   string   `json:"batch_id"`
	Source    string   `json:"source"`
	TotalRows int      `json:"total_rows"`
	Imported  int      `json:"imported"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// Service imports profile CSV files.
type Service struct {
	profiles ProfileWriter
	objects  ObjectStore
	logger   *zap.Logger
}

// NewService creates an import service. objects may be nil, in which case
// only direct imports are available and nothing is archived.
func NewService(profiles ProfileWriter, objects ObjectStore) *Service {
	return &Service{
		profiles: profiles,
		objects:  objects,
		logger:   utils.GetLogger().Named("importer"),
	}
}

// Import parses r and upserts every valid row. Invalid rows are reported in
// the result; an error is returned only when the store fails.
func (s *Service) Import(ctx context.Context, r io.Reader, source string) (*Result, error) {
	batchID := NewBatchID(source)
	result := &Result{BatchID: batchID, Source: source}

	profiles, parseErrors := NewParser().ParseProfiles(r)
	result.TotalRows = len(profiles) + countRowErrors(parseErrors)

	errMsgs := make([]string, 0, len(parseErrors))
	for _, e := range parseErrors {
		errMsgs = append(errMsgs, e.Error())
	}

	if len(profiles) == 0 {
		result.Message = "No valid profiles found in CSV"
		result.Failed = countRowErrors(parseErrors)
		result.Errors = truncate(errMsgs)
		rowsTotal.WithLabelValues("rejected").Add(float64(result.Failed))
		return result, nil
	}

	s.logger.Info("Parsed import file",
		utils.String("batchID", batchID),
		utils.String("source", source),
		utils.Int("validProfiles", len(profiles)),
		utils.Int("parseErrors", len(parseErrors)))

	inserted, err := s.profiles.BulkUpsert(ctx, profiles, batchID)
	if err != nil {
		s.logger.Error("Failed to upsert profiles", utils.String("batchID", batchID), utils.Error(err))
		return nil, fmt.Errorf("failed to upsert profiles: %w", err)
	}

	result.Message = "CSV processed successfully"
	result.Imported = inserted.InsertedCount
	result.Failed = inserted.FailedCount + len(parseErrors)
	result.Errors = truncate(append(errMsgs, inserted.Errors...))

	rowsTotal.WithLabelValues("imported").Add(float64(inserted.InsertedCount))
	rowsTotal.WithLabelValues("rejected").Add(float64(len(parseErrors)))
	rowsTotal.WithLabelValues("failed").Add(float64(inserted.FailedCount))

	s.logger.Info("Imported profiles",
		utils.String("batchID", batchID),
		utils.Int("imported", result.Imported),
		utils.Int("failed", result.Failed))

	return result, nil
}

// ImportObject imports an uploaded object and archives it under the
// processed or failed prefix.
func (s *Service) ImportObject(ctx context.Context, key string) (*Result, error) {
	if s.objects == nil {
		return nil, fmt.Errorf("object store is not configured")
	}

	data, err := s.objects.DownloadFile(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download import file: %w", err)
	}

	result, importErr := s.Import(ctx, bytes.NewReader(data), key)

	failed := importErr != nil || result.Imported == 0
	if err := s.objects.MoveFile(ctx, key, ArchiveKey(key, failed)); err != nil {
		s.logger.Warn("Failed to archive import file", utils.String("key", key), utils.Error(err))
	}

	return result, importErr
}

// ImportUpload imports a file posted directly to the API and keeps a copy in
// the processed archive when an object store is configured.
func (s *Service) ImportUpload(ctx context.Context, filename string, data []byte) (*Result, error) {
	result, err := s.Import(ctx, bytes.NewReader(data), filename)
	if err != nil {
		return nil, err
	}

	if s.objects != nil {
		key := ProcessedPrefix + result.BatchID + "_" + sanitizeFilename(filename)
		if err := s.objects.UploadFile(ctx, key, data, "text/csv"); err != nil {
			s.logger.Warn("Failed to archive uploaded file", utils.String("key", key), utils.Error(err))
		}
	}

	return result, nil
}

// IncomingKey builds the object key an upload URL is issued for.
func IncomingKey(filename string, now time.Time) string {
	return fmt.Sprintf("%s%s_%s_%s",
		IncomingPrefix,
		now.UTC().Format("20060102T150405"),
		uuid.NewString()[:8],
		sanitizeFilename(filename))
}

// ArchiveKey maps an incoming key to its archive location.
func ArchiveKey(key string, failed bool) string {
	prefix := ProcessedPrefix
	if failed {
		prefix = FailedPrefix
	}
	return prefix + strings.TrimPrefix(key, IncomingPrefix)
}

// NewBatchID derives a short unique ID for one import run.
func NewBatchID(source string) string {
	hash := sha256.Sum256([]byte(source + time.Now().UTC().Format(time.RFC3339Nano) + uuid.NewString()))
	return hex.EncodeToString(hash[:])[:16]
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "profiles.csv"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := b.String()
	if !strings.HasSuffix(strings.ToLower(out), ".csv") {
		out += ".csv"
	}
	return out
}

func countRowErrors(errs []error) int {
	n := 0
	for _, e := range errs {
		if _, ok := e.(*RowError); ok {
			n++
		}
	}
	return n
}

func truncate(msgs []string) []string {
	if len(msgs) > MaxReportedErrors {
		return msgs[:MaxReportedErrors]
	}
	return msgs
}
