package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"quizforge-service/internal/domain"
)

// objectPrefix groups quiz-context images inside the bucket.
const objectPrefix = "quiz-images/"

// GCSUploader stores quiz-context images in a Google Cloud Storage bucket and
// returns a durable public URL the AI provider can fetch.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

func NewGCSUploader(ctx context.Context, bucket string) (*GCSUploader, error) {
	client, err := storage.NewClient(ctx, clientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

// clientOptionsFromEnv picks up explicit credentials when set; otherwise the
// client falls back to application default credentials.
func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (u *GCSUploader) Upload(ctx context.Context, r io.Reader, contentType string) (string, error) {
	key := objectPrefix + uuid.NewString() + extensionFor(contentType)
	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	return "https://storage.googleapis.com/" + u.bucket + "/" + key, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// Disabled is the uploader used when no bucket is configured; every upload
// fails so generation requests carrying an image abort cleanly.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, string) (string, error) {
	return "", fmt.Errorf("%w: image hosting not configured", domain.ErrUploadFailed)
}
