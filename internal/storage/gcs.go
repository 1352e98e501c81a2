package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/pkg/constant"
	"github.com/parley-chat/parley/pkg/errcode"
	"google.golang.org/api/option"
)

// AttachmentStore stores uploaded files and returns their public URL
type AttachmentStore interface {
	Upload(ctx context.Context, file io.Reader, contentType, fileName, folder string) (string, error)
	Close() error
}

// GCSStore is the Google Cloud Storage backed AttachmentStore
type GCSStore struct {
	client        *storage.Client
	bucketName    string
	publicBaseURL string
}

// NewGCSStore creates the attachment store from config
func NewGCSStore(ctx context.Context, cfg *config.StorageConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errcode.ErrStorageFailure.Wrap(err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com"
	}

	return &GCSStore{
		client:        client,
		bucketName:    cfg.GCSBucket,
		publicBaseURL: baseURL,
	}, nil
}

// Upload writes the file under folder and returns the public URL.
// Nothing is written when the copy fails partway; the unfinished
// object is abandoned by closing the writer with the error returned.
func (s *GCSStore) Upload(ctx context.Context, file io.Reader, contentType, fileName, folder string) (string, error) {
	objectName := fmt.Sprintf("%s/%s-%s%s",
		folder, uuid.New().String(), time.Now().Format("20060102150405"), extensionFor(contentType))

	obj := s.client.Bucket(s.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"
	if fileName != "" {
		wc.ContentDisposition = fmt.Sprintf("inline; filename=%q", fileName)
	}

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", errcode.ErrAttachmentUpload.Wrap(err)
	}

	if err := wc.Close(); err != nil {
		return "", errcode.ErrAttachmentUpload.Wrap(err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", errcode.ErrAttachmentUpload.Wrap(err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucketName, objectName), nil
}

// Close closes the underlying storage client
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}

// ValidateAttachment checks an incoming message attachment against the
// allow-list and size limit before any bytes leave the process.
func ValidateAttachment(contentType string, size int64) error {
	if !constant.AllowedAttachmentTypes[contentType] {
		return errcode.ErrFileTypeNotAllowed
	}
	if size > constant.MaxAttachmentSize {
		return errcode.ErrFileTooLarge
	}
	return nil
}

// ValidatePicture checks profile and group picture uploads, which only
// accept images and carry a tighter size limit.
func ValidatePicture(contentType string, size int64) error {
	if !constant.AllowedPictureTypes[contentType] {
		return errcode.ErrFileTypeNotAllowed
	}
	if size > constant.MaxPictureSize {
		return errcode.ErrFileTooLarge
	}
	return nil
}
