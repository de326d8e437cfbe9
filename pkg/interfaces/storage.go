package interfaces

import "context"

// MediaStore hands out presigned URLs for media objects. Uploads and
// downloads go straight to object storage; the service never proxies bytes.
type MediaStore interface {
	// PresignUpload returns a URL the client can PUT the object to.
	PresignUpload(ctx context.Context, key, contentType string) (string, error)

	// PresignDownload returns a URL the client can GET the object from.
	PresignDownload(ctx context.Context, key string) (string, error)
}
