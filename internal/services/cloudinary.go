package services

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// UploadedAvatar is the asset host's answer for a stored avatar.
type UploadedAvatar struct {
	PublicID string
	Version  int
	URL      string
}

// Avatars uploads profile images to the asset host. Signup treats it as an
// external collaborator: optional, and a failure rejects the request.
type Avatars interface {
	Upload(ctx context.Context, image string, publicID string) (*UploadedAvatar, error)
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryService{cld: cld}, nil
}

// Upload stores a base64 data-URI image under the given public id, overwriting
// any previous avatar for the same user.
func (s *CloudinaryService) Upload(ctx context.Context, image string, publicID string) (*UploadedAvatar, error) {
	result, err := s.cld.Upload.Upload(ctx, image, uploader.UploadParams{
		PublicID: publicID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	return &UploadedAvatar{
		PublicID: result.PublicID,
		Version:  result.Version,
		URL:      result.SecureURL,
	}, nil
}
