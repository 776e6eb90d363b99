// internal/images/handlers.go

package images

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

// Handler handles image and upload requests
type Handler struct {
	service Service
	maxSize int64
}

// NewHandler creates a new image handler. maxSize is the per-file limit.
func NewHandler(service Service, maxSize int64) *Handler {
	return &Handler{service: service, maxSize: maxSize}
}

// CreateImage handles POST /api/v1/user-images
func (h *Handler) CreateImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req CreateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, img, http.StatusCreated)
}

// ListImages handles GET /api/v1/user-images
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.QueryInt64(r, "user_id")
	if err != nil {
		utils.ErrorResponse(w, "user_id must be an integer", http.StatusBadRequest)
		return
	}
	h.list(w, r, userID)
}

// ListUserImages handles GET /api/v1/user-images/user/{user_id}
func (h *Handler) ListUserImages(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.PathInt64(r, "user_id")
	if !ok {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	h.list(w, r, &userID)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, userID *int64) {
	page := utils.ParsePage(r)
	images, total, err := h.service.List(r.Context(), &ListFilter{
		UserID: userID,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"images":     images,
		"pagination": utils.NewPagination(page, total),
	}, http.StatusOK)
}

// GetImage handles GET /api/v1/user-images/{id}
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	img, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, img, http.StatusOK)
}

// UpdateImage handles PATCH /api/v1/user-images/{id}
func (h *Handler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	var req UpdateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := h.service.Update(r.Context(), userID, auth.IsAdminContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, img, http.StatusOK)
}

// DeleteImage handles DELETE /api/v1/user-images/{id}
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), userID, auth.IsAdminContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	utils.MessageResponse(w, "Image deleted", http.StatusOK)
}

// UploadPhotos handles POST /api/v1/uploads/photos with fields
// profilePicture and additionalImages.
func (h *Handler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	if !h.parseForm(w, r, MaxAdditionalImages+1) {
		return
	}

	var profilePicture *File
	if headers := r.MultipartForm.File["profilePicture"]; len(headers) > 0 {
		f, err := h.readPart("profilePicture", headers[0])
		if err != nil {
			writeError(w, err)
			return
		}
		profilePicture = f
	}

	var additional []*File
	for _, fh := range r.MultipartForm.File["additionalImages"] {
		f, err := h.readPart("additionalImages", fh)
		if err != nil {
			writeError(w, err)
			return
		}
		additional = append(additional, f)
	}

	images, err := h.service.UploadPhotos(r.Context(), userID, profilePicture, additional)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{"images": images}, http.StatusCreated)
}

// UploadPhoto handles POST /api/v1/uploads/photo with a single field photo
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	if !h.parseForm(w, r, 1) {
		return
	}

	headers := r.MultipartForm.File["photo"]
	if len(headers) == 0 {
		writeError(w, ErrNoFiles)
		return
	}
	f, err := h.readPart("photo", headers[0])
	if err != nil {
		writeError(w, err)
		return
	}

	img, err := h.service.UploadPhoto(r.Context(), userID, f)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, img, http.StatusCreated)
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, maxFiles int) bool {
	// one megabyte of slack for multipart framing and text fields
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*h.maxSize+(1<<20))
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorResponse(w, "Upload too large", http.StatusRequestEntityTooLarge)
			return false
		}
		utils.ErrorResponse(w, "Failed to parse form", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) readPart(field string, fh *multipart.FileHeader) (*File, error) {
	if fh.Size > h.maxSize {
		return nil, fmt.Errorf("%w: %s", ErrImageTooLarge, fh.Filename)
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &File{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrImageNotFound):
		utils.ErrorResponse(w, "Image not found", http.StatusNotFound)
	case errors.Is(err, ErrUserNotFound):
		utils.ErrorResponse(w, "User not found", http.StatusNotFound)
	case errors.Is(err, ErrUnauthorized):
		utils.ErrorResponse(w, "You can only modify your own images", http.StatusForbidden)
	case errors.Is(err, ErrImageTooLarge):
		utils.ErrorResponse(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrInvalidImageFormat), errors.Is(err, ErrNoFiles), errors.Is(err, ErrTooManyFiles):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("images: %v", err)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
