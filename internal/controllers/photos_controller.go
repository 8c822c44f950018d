package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/verisite/visit-service/internal/dtos"
	"github.com/verisite/visit-service/internal/services"
	"github.com/verisite/visit-service/internal/utils"
)

type PhotosController struct {
	photos        services.PhotoService
	maxPhotoBytes int64
}

func NewPhotosController(photos services.PhotoService, maxPhotoBytes int64) *PhotosController {
	return &PhotosController{photos: photos, maxPhotoBytes: maxPhotoBytes}
}

// -----------------------------------------------------------------------------
// POST /api/v1/photos
// -----------------------------------------------------------------------------
func (c *PhotosController) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, c.maxPhotoBytes))
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusRequestEntityTooLarge, utils.ErrCodePhotoTooLarge,
			"Photo exceeds the maximum size of "+strconv.FormatInt(c.maxPhotoBytes, 10)+" bytes", nil, err,
		)
		return
	}
	if len(content) == 0 {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Empty photo body", nil,
		)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	photo, err := c.photos.Store(r.Context(), content, contentType)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to store photo", nil, err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.PhotoUploadResponse{
		PhotoRef: photo.ID,
		Digest:   photo.Digest,
	})
}

// -----------------------------------------------------------------------------
// GET /api/v1/photos/{id}
// -----------------------------------------------------------------------------
func (c *PhotosController) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid photo id", nil, err,
		)
		return
	}

	photo, err := c.photos.Get(r.Context(), id)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to load photo", nil, err,
		)
		return
	}
	if photo == nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, "Photo not found", nil,
		)
		return
	}

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(photo.SizeBytes, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(photo.Content)
}
