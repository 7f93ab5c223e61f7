package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/official-eswaran/DataWhisper/internal/ingestion"
)

// UploadResponse describes a freshly loaded session dataset.
type UploadResponse struct {
	SessionID string              `json:"session_id"`
	Table     string              `json:"table"`
	Columns   []uploadColumn      `json:"columns"`
	RowCount  int                 `json:"row_count"`
	Anomalies []ingestion.Anomaly `json:"anomalies"`
}

type uploadColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Upload handles POST /api/upload: parses a data file, cleans its schema,
// and loads it into a new private session dataset.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !ingestion.AllowedExtensions[ext] {
		Error(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s", ext))
		return
	}

	// Content must look like text; a binary blob with a .csv name is
	// rejected before parsing.
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	if !ingestion.SniffText(head[:n]) {
		Error(w, http.StatusBadRequest, "File content does not match the declared extension")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		Error(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	sessionID := uuid.NewString()

	// Keep the original bytes on disk alongside the session dataset.
	if err := h.saveUpload(file, sessionID+ext); err != nil {
		slog.Error("failed to save upload", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save upload")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		Error(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	table, err := ingestion.Parse(file, ext)
	if err != nil {
		Error(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse file: %v", err))
		return
	}

	tableName := ingestion.TableNameFromFilename(header.Filename)
	eng, err := h.datasets.Open(sessionID)
	if err != nil {
		slog.Error("failed to open session dataset", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create session dataset")
		return
	}
	defer func() { _ = eng.Close() }()

	if err := ingestion.Load(r.Context(), eng, tableName, table); err != nil {
		slog.Error("failed to load dataset", "session_id", sessionID, "table", tableName, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load data into session dataset")
		return
	}

	anomalies := ingestion.DetectAnomalies(table, tableName)
	slog.Info("dataset loaded",
		"session_id", sessionID, "table", tableName,
		"rows", table.RowCount(), "columns", len(table.Columns), "anomalies", len(anomalies))

	cols := make([]uploadColumn, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = uploadColumn{Name: c.Name, Type: c.Type}
	}
	JSON(w, http.StatusOK, UploadResponse{
		SessionID: sessionID,
		Table:     tableName,
		Columns:   cols,
		RowCount:  table.RowCount(),
		Anomalies: anomalies,
	})
}

func (h *Handler) saveUpload(file io.Reader, name string) error {
	if err := os.MkdirAll(h.cfg.UploadDir, 0755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}
	dst, err := os.Create(filepath.Join(h.cfg.UploadDir, name))
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer func() { _ = dst.Close() }()
	if _, err := io.Copy(dst, file); err != nil {
		return fmt.Errorf("write upload file: %w", err)
	}
	return nil
}
