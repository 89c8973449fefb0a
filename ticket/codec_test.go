package ticket

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()

	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func testPayload() Payload {
	return Payload{
		RegistrationID: uuid.New(),
		EventID:        uuid.New(),
		HolderID:       uuid.New(),
	}
}

func TestNewCodec(t *testing.T) {
	t.Run("rejects short keys", func(t *testing.T) {
		_, err := NewCodec([]byte("too-short"))
		assert.Error(t, err)
	})

	t.Run("accepts a 32 byte key", func(t *testing.T) {
		_, err := NewCodec(testKey(t))
		assert.NoError(t, err)
	})
}

func TestEncodeDecode(t *testing.T) {
	codec, err := NewCodec(testKey(t))
	require.NoError(t, err)

	t.Run("round trips a payload", func(t *testing.T) {
		payload := testPayload()

		opaque, err := codec.Encode(payload)
		require.NoError(t, err)

		decoded, err := codec.Decode(opaque)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(payload, decoded))
	})

	t.Run("encoding is not deterministic", func(t *testing.T) {
		payload := testPayload()

		first, err := codec.Encode(payload)
		require.NoError(t, err)
		second, err := codec.Encode(payload)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)

		firstDecoded, err := codec.Decode(first)
		require.NoError(t, err)
		secondDecoded, err := codec.Decode(second)
		require.NoError(t, err)
		assert.Equal(t, firstDecoded, secondDecoded)
	})

	t.Run("flipping any byte fails authentication", func(t *testing.T) {
		opaque, err := codec.Encode(testPayload())
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(opaque)
		require.NoError(t, err)

		for i := range raw {
			tampered := make([]byte, len(raw))
			copy(tampered, raw)
			tampered[i] ^= 0x01

			_, err := codec.Decode(base64.RawURLEncoding.EncodeToString(tampered))
			assertReason(t, err, REASON_DECODE_FAILED)
		}
	})

	t.Run("truncated payload fails to decode", func(t *testing.T) {
		opaque, err := codec.Encode(testPayload())
		require.NoError(t, err)

		_, err = codec.Decode(opaque[:len(opaque)-1])
		assertReason(t, err, REASON_DECODE_FAILED)
	})

	t.Run("garbage input fails to decode", func(t *testing.T) {
		for _, input := range []string{"", "not base64!!!", "c2hvcnQ"} {
			_, err := codec.Decode(input)
			assertReason(t, err, REASON_DECODE_FAILED)
		}
	})

	t.Run("wrong key fails to decode", func(t *testing.T) {
		otherCodec, err := NewCodec(testKey(t))
		require.NoError(t, err)

		opaque, err := codec.Encode(testPayload())
		require.NoError(t, err)

		_, err = otherCodec.Decode(opaque)
		assertReason(t, err, REASON_DECODE_FAILED)
	})
}

func assertReason(t *testing.T, err error, reason ErrorReason) {
	t.Helper()

	var ticketErr *Error
	require.ErrorAs(t, err, &ticketErr)
	assert.Equal(t, reason, ticketErr.Reason)
}
