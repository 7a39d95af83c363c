// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/artcurio/curio-backend/internal/config"
	"github.com/artcurio/curio-backend/internal/utils"
)

// StorageService stores artwork media and hands back the opaque content
// reference that gets pinned on the artwork record. References are
// content addressed: the key is the hash of the bytes, so re-uploading
// identical media yields the same reference.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	ContentRef string `json:"content_ref"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// UploadArtwork validates and stores one media file, returning the
// content reference to record on the artwork.
func (s *StorageService) UploadArtwork(file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	return s.upload(file, header, UploadOptions{
		Folder:       "artworks",
		MaxSize:      50 * 1024 * 1024,
		AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".mp4", ".glb"},
	})
}

func (s *StorageService) upload(file multipart.File, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && header.Size > options.MaxSize {
		return nil, fmt.Errorf("file size %d bytes exceeds maximum allowed size %d bytes", header.Size, options.MaxSize)
	}

	fileExt := strings.ToLower(filepath.Ext(header.Filename))
	if len(options.AllowedTypes) > 0 {
		allowed := false
		for _, allowedType := range options.AllowedTypes {
			if fileExt == allowedType {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("file type %s is not allowed", fileExt)
		}
	}

	// Image uploads get their signature checked: the extension alone is
	// client-controlled.
	switch fileExt {
	case ".jpg", ".jpeg", ".png", ".gif":
		if err := s.ValidateImage(file); err != nil {
			return nil, err
		}
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Content-addressed key: hash of the bytes plus the original extension.
	contentRef := utils.HashBytes(fileBytes)
	key := fmt.Sprintf("%s/%s%s", options.Folder, contentRef, fileExt)

	contentType := header.Header.Get("Content-Type")
	if s.s3Client != nil {
		if err := s.uploadToS3(fileBytes, key, contentType); err != nil {
			return nil, err
		}
		return &UploadResult{
			ContentRef: contentRef,
			URL:        s.getS3URL(key),
			Size:       int64(len(fileBytes)),
			MimeType:   contentType,
		}, nil
	}

	// Local development: no object store configured, the reference is
	// still valid because it only needs to be opaque and stable.
	return &UploadResult{
		ContentRef: contentRef,
		URL:        fmt.Sprintf("http://localhost:%s/uploads/%s", s.config.Server.Port, key),
		Size:       int64(len(fileBytes)),
		MimeType:   contentType,
	}, nil
}

func (s *StorageService) uploadToS3(fileBytes []byte, key, contentType string) error {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
		ACL:           aws.String("public-read"),
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// GeneratePresignedURL issues a time-limited download link for a stored
// object.
func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

// ValidateImage checks the file signature of image uploads.
func (s *StorageService) ValidateImage(file multipart.File) error {
	buffer := make([]byte, 512)
	if _, err := file.Read(buffer); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Reset file pointer
	file.Seek(0, 0)

	if !isValidImageType(buffer) {
		return fmt.Errorf("invalid image file")
	}

	return nil
}

func isValidImageType(buffer []byte) bool {
	// JPEG
	if len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return true
	}

	// PNG
	if len(buffer) >= 8 && buffer[0] == 0x89 && buffer[1] == 0x50 && buffer[2] == 0x4E && buffer[3] == 0x47 {
		return true
	}

	// GIF
	if len(buffer) >= 6 && (string(buffer[0:6]) == "GIF87a" || string(buffer[0:6]) == "GIF89a") {
		return true
	}

	return false
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
