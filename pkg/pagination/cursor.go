package pagination

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Cursor represents opaque pagination state handed back to callers.
type Cursor struct {
	Offset    int       `json:"offset"`
	Timestamp time.Time `json:"timestamp"`
}

// CursorEncoder encrypts cursors so callers cannot tamper with offsets.
type CursorEncoder struct {
	cipher cipher.Block
}

// NewCursorEncoder creates a new cursor encoder. The key is hashed to the
// AES-256 key size, so any non-empty secret works.
func NewCursorEncoder(key string) (*CursorEncoder, error) {
	if key == "" {
		return nil, fmt.Errorf("cursor encryption key is required")
	}

	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &CursorEncoder{cipher: block}, nil
}

// EncodeCursor encrypts and encodes a cursor to a base64 string.
func (e *CursorEncoder) EncodeCursor(cursor *Cursor) (string, error) {
	plaintext, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	gcm, err := cipher.NewGCM(e.cipher)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// DecodeCursor decrypts and decodes a cursor from a base64 string.
func (e *CursorEncoder) DecodeCursor(encoded string) (*Cursor, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	gcm, err := cipher.NewGCM(e.cipher)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(plaintext, &cursor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}

	return &cursor, nil
}

// CreateOffsetCursor creates a simple offset-based cursor.
func CreateOffsetCursor(offset int) *Cursor {
	return &Cursor{
		Offset:    offset,
		Timestamp: time.Now(),
	}
}

// IsExpired checks if the cursor is older than the given duration.
func (c *Cursor) IsExpired(maxAge time.Duration) bool {
	return time.Since(c.Timestamp) > maxAge
}

// CalculateOffset calculates the offset from a page token.
func CalculateOffset(encoder *CursorEncoder, pageToken string, defaultOffset int) (int, error) {
	if pageToken == "" {
		return defaultOffset, nil
	}

	cursor, err := encoder.DecodeCursor(pageToken)
	if err != nil {
		return 0, fmt.Errorf("invalid page token: %w", err)
	}

	if cursor.IsExpired(24 * time.Hour) {
		return 0, fmt.Errorf("page token expired")
	}

	return cursor.Offset, nil
}

// GenerateNextPageToken generates the next page token, or "" when the
// current page is the last one.
func GenerateNextPageToken(encoder *CursorEncoder, currentOffset, pageSize, totalItems int) (string, error) {
	nextOffset := currentOffset + pageSize
	if nextOffset >= totalItems {
		return "", nil
	}

	return encoder.EncodeCursor(CreateOffsetCursor(nextOffset))
}
