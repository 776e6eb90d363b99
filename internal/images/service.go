// internal/images/service.go

package images

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
)

var (
	ErrImageNotFound      = errors.New("image not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrInvalidImageFormat = errors.New("only JPEG, PNG and GIF images are allowed")
	ErrImageTooLarge      = errors.New("image size exceeds limit")
	ErrNoFiles            = errors.New("no image files provided")
	ErrTooManyFiles       = errors.New("too many additional images")
)

// MaxAdditionalImages is how many non-profile photos one upload may carry
const MaxAdditionalImages = 3

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

func extensionFor(contentType string) string {
	return allowedTypes[contentType]
}

// Service defines the image service interface
type Service interface {
	Create(ctx context.Context, userID int64, req *CreateImageRequest) (*Image, error)
	Get(ctx context.Context, id int64) (*Image, error)
	List(ctx context.Context, filter *ListFilter) ([]*Image, int, error)
	Update(ctx context.Context, callerID int64, isAdmin bool, id int64, req *UpdateImageRequest) (*Image, error)
	Delete(ctx context.Context, callerID int64, isAdmin bool, id int64) error

	// UploadPhotos stores an optional profile picture plus up to
	// MaxAdditionalImages more and records them.
	UploadPhotos(ctx context.Context, userID int64, profilePicture *File, additional []*File) ([]*Image, error)
	UploadPhoto(ctx context.Context, userID int64, photo *File) (*Image, error)
}

type service struct {
	repo    Repository
	storage Storage
	maxSize int64
}

// NewService creates a new image service
func NewService(repo Repository, storage Storage, maxSize int64) Service {
	return &service{repo: repo, storage: storage, maxSize: maxSize}
}

func (s *service) Create(ctx context.Context, userID int64, req *CreateImageRequest) (*Image, error) {
	img := &Image{UserID: userID, ImageURL: req.ImageURL, IsProfilePicture: req.IsProfilePicture}
	if err := s.repo.CreateMany(ctx, []*Image{img}); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Image, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter *ListFilter) ([]*Image, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, callerID int64, isAdmin bool, id int64, req *UpdateImageRequest) (*Image, error) {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if img.UserID != callerID && !isAdmin {
		return nil, ErrUnauthorized
	}

	if req.ImageURL != nil {
		img.ImageURL = *req.ImageURL
	}
	if req.IsProfilePicture != nil {
		img.IsProfilePicture = *req.IsProfilePicture
	}
	if err := s.repo.Update(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *service) Delete(ctx context.Context, callerID int64, isAdmin bool, id int64) error {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if img.UserID != callerID && !isAdmin {
		return ErrUnauthorized
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, img.ImageURL); err != nil {
		log.Printf("Failed to remove stored image %s: %v", img.ImageURL, err)
	}
	return nil
}

func (s *service) UploadPhotos(ctx context.Context, userID int64, profilePicture *File, additional []*File) ([]*Image, error) {
	if profilePicture == nil && len(additional) == 0 {
		return nil, ErrNoFiles
	}
	if len(additional) > MaxAdditionalImages {
		return nil, ErrTooManyFiles
	}

	files := make([]*File, 0, len(additional)+1)
	if profilePicture != nil {
		files = append(files, profilePicture)
	}
	files = append(files, additional...)
	for _, f := range files {
		if err := s.checkFile(f); err != nil {
			return nil, err
		}
		if err := shrink(f); err != nil {
			return nil, err
		}
	}

	images := make([]*Image, 0, len(files))
	for i, f := range files {
		url, err := s.storage.Save(ctx, f, folderFor(userID))
		if err != nil {
			s.discard(ctx, images)
			return nil, err
		}
		images = append(images, &Image{
			UserID:           userID,
			ImageURL:         url,
			IsProfilePicture: profilePicture != nil && i == 0,
		})
	}

	if err := s.repo.CreateMany(ctx, images); err != nil {
		s.discard(ctx, images)
		return nil, err
	}
	return images, nil
}

func (s *service) UploadPhoto(ctx context.Context, userID int64, photo *File) (*Image, error) {
	if photo == nil {
		return nil, ErrNoFiles
	}
	images, err := s.UploadPhotos(ctx, userID, nil, []*File{photo})
	if err != nil {
		return nil, err
	}
	return images[0], nil
}

// checkFile enforces size and sniffs the real content type
func (s *service) checkFile(f *File) error {
	if int64(len(f.Data)) > s.maxSize {
		return fmt.Errorf("%w: %s is larger than %d bytes", ErrImageTooLarge, f.Filename, s.maxSize)
	}
	ct := http.DetectContentType(f.Data)
	if _, ok := allowedTypes[ct]; !ok {
		return ErrInvalidImageFormat
	}
	f.ContentType = ct
	return nil
}

func (s *service) discard(ctx context.Context, images []*Image) {
	for _, img := range images {
		if err := s.storage.Delete(ctx, img.ImageURL); err != nil {
			log.Printf("Failed to clean up %s: %v", img.ImageURL, err)
		}
	}
}

func folderFor(userID int64) string {
	return fmt.Sprintf("users/%d", userID)
}
