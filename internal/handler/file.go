package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/packvault/packvault/internal/ctxkeys"
	"github.com/packvault/packvault/internal/formdata"
	"github.com/packvault/packvault/internal/model"
	"github.com/packvault/packvault/internal/service"
)

// Parts in an upload body besides the file: four fields and the file headers
const uploadParts = 5

type FileHandler struct {
	fileService *service.FileService
	uploadOpts  formdata.Options
	maxBody     int64
}

func NewFileHandler(fileService *service.FileService, uploadOpts formdata.Options) *FileHandler {
	maxFile := uploadOpts.MaxFileSize
	if maxFile <= 0 {
		maxFile = formdata.DefaultMaxFileSize
	}
	window := uploadOpts.Window
	if window <= 0 {
		window = formdata.DefaultWindow
	}

	return &FileHandler{
		fileService: fileService,
		uploadOpts:  uploadOpts,
		maxBody:     maxFile + int64(uploadParts*window),
	}
}

type fileResponse struct {
	*model.File
	DownloadURL string `json:"download_url,omitempty"`
}

type filesResponse struct {
	Files []*model.File `json:"files"`
}

// Upload handles POST /resources/{resource_uuid}/files
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	resourceID := r.PathValue("resource_uuid")

	boundary, err := formdata.Boundary(r.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	cur, err := formdata.NewCursor(body, boundary, h.uploadOpts)
	if err != nil {
		respondError(w, r, err)
		return
	}

	file, err := h.fileService.Upload(r.Context(), userID, resourceID, cur)
	if err != nil {
		respondError(w, r, err, "resource_uuid", resourceID, "user_id", userID)
		return
	}

	w.Header().Set("Location", "/resources/"+file.ResourceID+"/files/"+file.ID)
	writeJSON(w, http.StatusCreated, fileResponse{File: file})
}

// List handles GET /resources/{resource_uuid}/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	resourceID := r.PathValue("resource_uuid")

	files, err := h.fileService.Files(r.Context(), userID, resourceID)
	if err != nil {
		respondError(w, r, err, "resource_uuid", resourceID)
		return
	}

	writeJSON(w, http.StatusOK, filesResponse{Files: files})
}

// Show handles GET /resources/{resource_uuid}/files/{file_uuid}
func (h *FileHandler) Show(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	resourceID := r.PathValue("resource_uuid")
	fileID := r.PathValue("file_uuid")

	file, url, err := h.fileService.File(r.Context(), userID, resourceID, fileID)
	if err != nil {
		respondError(w, r, err, "resource_uuid", resourceID, "file_uuid", fileID)
		return
	}

	writeJSON(w, http.StatusOK, fileResponse{File: file, DownloadURL: url})
}

// Content handles GET /resources/{resource_uuid}/files/{file_uuid}/content
func (h *FileHandler) Content(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	resourceID := r.PathValue("resource_uuid")
	fileID := r.PathValue("file_uuid")

	file, rc, err := h.fileService.Open(r.Context(), userID, resourceID, fileID)
	if err != nil {
		respondError(w, r, err, "resource_uuid", resourceID, "file_uuid", fileID)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName}))
	w.WriteHeader(http.StatusOK)

	_, err = io.Copy(w, rc)
	if err != nil {
		slog.Warn("failed to stream file", "error", err, "file_uuid", file.ID, "blob_key", file.BlobKey)
	}
}

// Delete handles DELETE /resources/{resource_uuid}/files/{file_uuid}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	resourceID := r.PathValue("resource_uuid")
	fileID := r.PathValue("file_uuid")

	err := h.fileService.Delete(r.Context(), userID, resourceID, fileID)
	if err != nil {
		respondError(w, r, err, "resource_uuid", resourceID, "file_uuid", fileID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteResource handles DELETE /resources/{resource_uuid}
func (h *FileHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	resourceID := r.PathValue("resource_uuid")

	err := h.fileService.DeleteResource(r.Context(), userID, resourceID)
	if err != nil {
		respondError(w, r, err, "resource_uuid", resourceID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
