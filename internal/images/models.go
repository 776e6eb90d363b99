// internal/images/models.go

package images

import "time"

// Image is a photo that belongs to a user
type Image struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	ImageURL         string    `json:"image_url" db:"image_url"`
	IsProfilePicture bool      `json:"is_profile_picture" db:"is_profile_picture"`
	UploadedAt       time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// CreateImageRequest registers an already hosted image
type CreateImageRequest struct {
	ImageURL         string `json:"image_url" validate:"required,url,max=500"`
	IsProfilePicture bool   `json:"is_profile_picture"`
}

// UpdateImageRequest edits an image row
type UpdateImageRequest struct {
	ImageURL         *string `json:"image_url" validate:"omitempty,url,max=500"`
	IsProfilePicture *bool   `json:"is_profile_picture"`
}

// ListFilter narrows image listings
type ListFilter struct {
	UserID *int64
	Limit  int
	Offset int
}

// File is one uploaded part, already read and size-checked
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}
