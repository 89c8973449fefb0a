package ticket

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// KeySize is the length of the AES-256 key the codec requires.
const KeySize = 32

// Payload is the tuple embedded in a scannable code. It is derived from a
// registration on demand and never persisted.
type Payload struct {
	RegistrationID uuid.UUID `json:"registrationId"`
	EventID        uuid.UUID `json:"eventId"`
	HolderID       uuid.UUID `json:"holderId"`
}

// Codec encrypts payloads into opaque strings safe for embedding in a 2D
// barcode. AES-GCM with a random nonce, so two encodings of the same
// payload differ; decoding authenticates, so any tampering fails.
type Codec struct {
	aead cipher.AEAD
}

func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("ticket key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

func (c *Codec) Encode(payload Payload) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Decode(opaque string) (Payload, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(opaque)
	if err != nil {
		return Payload{}, NewDecodeFailedError("Payload is not valid base64", err)
	}

	if len(sealed) < c.aead.NonceSize() {
		return Payload{}, NewDecodeFailedError("Payload is too short", nil)
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Payload{}, NewDecodeFailedError("Payload failed authentication", err)
	}

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return Payload{}, NewDecodeFailedError("Payload is not a valid record", err)
	}

	if payload.RegistrationID == uuid.Nil || payload.EventID == uuid.Nil || payload.HolderID == uuid.Nil {
		return Payload{}, NewDecodeFailedError("Payload is missing required fields", nil)
	}

	return payload, nil
}
