package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"matrimony-match-engine/internal/handlers"
	"matrimony-match-engine/internal/utils"
)

const maxUploadSize = 10 << 20

func (s *Server) uploadURL(w http.ResponseWriter, r *http.Request) {
	if s.deps.Presigner == nil {
		writeError(w, http.StatusServiceUnavailable, "Import bucket is not configured")
		return
	}

	resp, err := handlers.IssueUploadURL(r.Context(), s.deps.Presigner, r.URL.Query().Get("filename"))
	if errors.Is(err, handlers.ErrNotCSV) {
		writeError(w, http.StatusBadRequest, "Only CSV files are allowed")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, resp)
}

// importProfiles imports a CSV posted as the "file" multipart field.
func (s *Server) importProfiles(w http.ResponseWriter, r *http.Request) {
	if s.deps.Importer == nil {
		writeError(w, http.StatusServiceUnavailable, "Profile import is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "Only CSV files are allowed")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	utils.GetLogger().Info("Importing uploaded profiles",
		utils.String("filename", header.Filename),
		utils.Int64("size", header.Size),
		utils.String("userID", UserIDFromContext(r.Context())))

	result, err := s.deps.Importer.ImportUpload(r.Context(), header.Filename, content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: result.Message,
		Data:    result,
	})
}
