package importer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrimony-match-engine/internal/models"
)

func parse(t *testing.T, content string) ([]*models.Profile, []error) {
	t.Helper()
	return NewParser().ParseProfiles(strings.NewReader(content))
}

func TestParser_ValidFile(t *testing.T) {
	csvContent := `email,first_name,last_name,gender,date_of_birth,height,district,religion,caste,education
nimali@example.com,Nimali,Perera,female,1995-03-14,162.5,Colombo,Buddhist,Govigama,Degree
kasun@example.com,Kasun,Silva,male,1990-11-02,175,Kandy,,,`

	profiles, errs := parse(t, csvContent)

	require.Empty(t, errs)
	require.Len(t, profiles, 2)

	p := profiles[0]
	assert.Equal(t, "nimali@example.com", p.Email)
	assert.Equal(t, "Nimali", p.FirstName)
	assert.Equal(t, "Perera", p.LastName)
	assert.Equal(t, models.GenderFemale, p.Gender)
	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, time.Date(1995, 3, 14, 0, 0, 0, 0, time.UTC), *p.DateOfBirth)
	require.NotNil(t, p.Height)
	assert.Equal(t, 162.5, *p.Height)
	require.NotNil(t, p.District)
	assert.Equal(t, "Colombo", *p.District)
	assert.True(t, p.IsActive)

	_, err := uuid.Parse(p.ID)
	assert.NoError(t, err, "generated ID should be a UUID")

	assert.Nil(t, profiles[1].Religion)
	assert.Nil(t, profiles[1].Caste)
	assert.Nil(t, profiles[1].Education)
}

func TestParser_ColumnAliases(t *testing.T) {
	csvContent := `Email_Address,FirstName,Surname,Sex,DOB,Height_cm,City,Faith,Community,Qualification
nimali@example.com,Nimali,Perera,F,1995-03-14,162cm,Colombo,Buddhist,Govigama,Degree`

	profiles, errs := parse(t, csvContent)

	require.Empty(t, errs)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, "Perera", p.LastName)
	assert.Equal(t, models.GenderFemale, p.Gender)
	assert.Equal(t, 162.0, *p.Height)
	assert.Equal(t, "Colombo", *p.District)
	assert.Equal(t, "Buddhist", *p.Religion)
	assert.Equal(t, "Govigama", *p.Caste)
	assert.Equal(t, "Degree", *p.Education)
}

func TestParser_ExternalID(t *testing.T) {
	id := "4f8e3c1a-2b7d-4c6e-9a1f-5d3b2e7c8a90"
	csvContent := "external_id,email,first_name,last_name\n" + id + ",a@example.com,Amaya,Fernando\nnot-a-uuid,b@example.com,Bimal,Fernando"

	profiles, errs := parse(t, csvContent)

	require.Len(t, profiles, 1)
	assert.Equal(t, id, profiles[0].ID)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "line 3")
	assert.Contains(t, errs[0].Error(), "must be a UUID")
}

func TestParser_MissingRequiredColumns(t *testing.T) {
	csvContent := `email,first_name
a@example.com,Amaya`

	profiles, errs := parse(t, csvContent)

	assert.Empty(t, profiles)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrMissingColumns))
	assert.Contains(t, errs[0].Error(), "last_name")
}

func TestParser_EmptyFile(t *testing.T) {
	profiles, errs := parse(t, "")

	assert.Empty(t, profiles)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrEmptyCSV)
}

func TestParser_HeaderOnly(t *testing.T) {
	profiles, errs := parse(t, "email,first_name,last_name\n")

	assert.Empty(t, profiles)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], ErrNoDataRows)
}

func TestParser_InvalidRowsReportLineNumbers(t *testing.T) {
	csvContent := `email,first_name,last_name,gender,date_of_birth,height
good@example.com,Good,Row,male,1990-01-01,170
not-an-email,Bad,Email,male,1990-01-01,170
bad-dob@example.com,Bad,Dob,male,1990-13-01,170
bad-height@example.com,Bad,Height,male,1990-01-01,tall
bad-gender@example.com,Bad,Gender,other,1990-01-01,170
,Missing,Email,male,1990-01-01,170`

	profiles, errs := parse(t, csvContent)

	require.Len(t, profiles, 1)
	assert.Equal(t, "good@example.com", profiles[0].Email)

	require.Len(t, errs, 5)
	for i, line := range []int{3, 4, 5, 6, 7} {
		var rowErr *RowError
		require.True(t, errors.As(errs[i], &rowErr))
		assert.Equal(t, line, rowErr.Line)
	}

	assert.Contains(t, errs[0].Error(), "email must be a valid email")
	assert.Contains(t, errs[1].Error(), "date_of_birth must match the layout")
	assert.Contains(t, errs[2].Error(), "invalid height")
	assert.Contains(t, errs[3].Error(), "gender must be one of [male female]")
	assert.Contains(t, errs[4].Error(), "email is required")
}

func TestParser_DuplicateEmail(t *testing.T) {
	csvContent := `email,first_name,last_name
a@example.com,Amaya,Fernando
A@example.com,Amaya,Fernando`

	profiles, errs := parse(t, csvContent)

	require.Len(t, profiles, 1)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "duplicate email")
	assert.Contains(t, errs[0].Error(), "line 2")
}

func TestParser_SkipsBlankLinesAndBOM(t *testing.T) {
	csvContent := "\ufeffemail,first_name,last_name\na@example.com,Amaya,Fernando\n,,\nb@example.com,Bimal,Silva\n"

	profiles, errs := parse(t, csvContent)

	require.Empty(t, errs)
	assert.Len(t, profiles, 2)
}

type fakeWriter struct {
	batchID  string
	received []*models.Profile
	result   *models.BulkInsertResult
	err      error
}

func (f *fakeWriter) BulkUpsert(_ context.Context, profiles []*models.Profile, batchID string) (*models.BulkInsertResult, error) {
	f.batchID = batchID
	f.received = profiles
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &models.BulkInsertResult{InsertedCount: len(profiles), Errors: []string{}}, nil
}

type fakeObjects struct {
	files    map[string][]byte
	moved    map[string]string
	uploaded map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{
		files:    map[string][]byte{},
		moved:    map[string]string{},
		uploaded: map[string][]byte{},
	}
}

func (f *fakeObjects) DownloadFile(_ context.Context, key string) ([]byte, error) {
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (f *fakeObjects) UploadFile(_ context.Context, key string, data []byte, _ string) error {
	f.uploaded[key] = data
	return nil
}

func (f *fakeObjects) MoveFile(_ context.Context, src, dst string) error {
	f.moved[src] = dst
	return nil
}

const sampleCSV = `email,first_name,last_name,gender
a@example.com,Amaya,Fernando,female
bad,Bad,Row,female
b@example.com,Bimal,Silva,male`

func TestService_Import(t *testing.T) {
	writer := &fakeWriter{}
	svc := NewService(writer, nil)

	result, err := svc.Import(context.Background(), strings.NewReader(sampleCSV), "upload.csv")

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "line 3")
	assert.Equal(t, result.BatchID, writer.batchID)
	assert.Len(t, result.BatchID, 16)
	assert.Len(t, writer.received, 2)
}

func TestService_Import_StoreRowFailures(t *testing.T) {
	writer := &fakeWriter{result: &models.BulkInsertResult{
		InsertedCount: 1,
		FailedCount:   1,
		Errors:        []string{"profile b@example.com: constraint violation"},
	}}
	svc := NewService(writer, nil)

	result, err := svc.Import(context.Background(), strings.NewReader(sampleCSV), "upload.csv")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, result.Errors, 2)
}

func TestService_Import_NoValidRows(t *testing.T) {
	writer := &fakeWriter{}
	svc := NewService(writer, nil)

	result, err := svc.Import(context.Background(), strings.NewReader("email,first_name,last_name\nbad,X,Y\n"), "upload.csv")

	require.NoError(t, err)
	assert.Equal(t, "No valid profiles found in CSV", result.Message)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Failed)
	assert.Nil(t, writer.received, "store must not be called")
}

func TestService_Import_StoreError(t *testing.T) {
	svc := NewService(&fakeWriter{err: errors.New("connection refused")}, nil)

	_, err := svc.Import(context.Background(), strings.NewReader(sampleCSV), "upload.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestService_ImportObject_ArchivesFile(t *testing.T) {
	objects := newFakeObjects()
	okKey := IncomingPrefix + "ok.csv"
	badKey := IncomingPrefix + "bad.csv"
	objects.files[okKey] = []byte(sampleCSV)
	objects.files[badKey] = []byte("nothing,useful\n1,2\n")

	svc := NewService(&fakeWriter{}, objects)

	result, err := svc.ImportObject(context.Background(), okKey)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, ProcessedPrefix+"ok.csv", objects.moved[okKey])

	result, err = svc.ImportObject(context.Background(), badKey)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, FailedPrefix+"bad.csv", objects.moved[badKey])
}

func TestService_ImportObject_WithoutStore(t *testing.T) {
	svc := NewService(&fakeWriter{}, nil)

	_, err := svc.ImportObject(context.Background(), IncomingPrefix+"x.csv")
	require.Error(t, err)
}

func TestService_ImportUpload_KeepsCopy(t *testing.T) {
	objects := newFakeObjects()
	svc := NewService(&fakeWriter{}, objects)

	result, err := svc.ImportUpload(context.Background(), "../../My Profiles.csv", []byte(sampleCSV))
	require.NoError(t, err)

	key := ProcessedPrefix + result.BatchID + "_My_Profiles.csv"
	require.Contains(t, objects.uploaded, key)
	assert.True(t, bytes.Equal([]byte(sampleCSV), objects.uploaded[key]))
}

func TestIncomingKey(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)

	key := IncomingKey("profiles", now)

	assert.True(t, strings.HasPrefix(key, IncomingPrefix+"20240701T093000_"))
	assert.True(t, strings.HasSuffix(key, "_profiles.csv"))
	assert.Equal(t, ProcessedPrefix+strings.TrimPrefix(key, IncomingPrefix), ArchiveKey(key, false))
}
