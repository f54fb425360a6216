package kernel_test

import (
	"testing"

	"turbodelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonicalID = "550e8400-e29b-41d4-a716-446655440000"

func TestNewUUID(t *testing.T) {
	t.Run("should generate distinct valid ids", func(t *testing.T) {
		id1 := kernel.NewUUID()
		id2 := kernel.NewUUID()

		require.NoError(t, id1.Validate())
		assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id1.String())
		assert.False(t, id1.IsEqual(id2))
	})
}

func TestUUIDFromString(t *testing.T) {
	t.Run("should accept the usual text forms", func(t *testing.T) {
		for _, input := range []string{
			canonicalID,
			"{" + canonicalID + "}",
			"urn:uuid:" + canonicalID,
			"550e8400e29b41d4a716446655440000",
		} {
			id, err := kernel.UUIDFromString(input)

			require.NoError(t, err, input)
			assert.Equal(t, canonicalID, id.String())
		}
	})

	t.Run("should reject malformed input", func(t *testing.T) {
		for _, input := range []string{"", "courier-7", "550e8400-e29b-41d4-a716", canonicalID + "-extra"} {
			_, err := kernel.UUIDFromString(input)

			require.Error(t, err, input)
			assert.Contains(t, err.Error(), "invalid UUID format")
		}
	})

	t.Run("should reject the nil uuid", func(t *testing.T) {
		_, err := kernel.UUIDFromString(uuid.Nil.String())

		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, err)
	})
}

func TestUUIDFromBytes(t *testing.T) {
	t.Run("should round trip through bytes", func(t *testing.T) {
		original := kernel.NewUUID()
		raw := original.Bytes()

		restored, err := kernel.UUIDFromBytes(raw[:])

		require.NoError(t, err)
		assert.True(t, original.IsEqual(restored))
	})

	t.Run("should reject short input", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes([]byte{0x55, 0x0e})

		assert.ErrorContains(t, err, "invalid UUID format")
	})

	t.Run("should reject sixteen zero bytes", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes(make([]byte, 16))

		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, err)
	})
}

func TestUUIDFromGoogle(t *testing.T) {
	raw := uuid.MustParse(canonicalID)

	id, err := kernel.UUIDFromGoogle(raw)

	require.NoError(t, err)
	assert.Equal(t, raw, id.Bytes())
}

func TestUUID_ZeroValue(t *testing.T) {
	var id kernel.UUID

	assert.Equal(t, kernel.ErrUUIDIsNotConstructed, id.Validate())
	assert.True(t, id.IsEqual(kernel.UUID{}))
	assert.False(t, id.IsEqual(kernel.NewUUID()))
}

func TestUUID_AsMapKey(t *testing.T) {
	courierA := kernel.NewUUID()
	courierB := kernel.NewUUID()
	load := map[kernel.UUID]int{courierA: 1, courierB: 2}

	sameAsA, err := kernel.UUIDFromString(courierA.String())
	require.NoError(t, err)

	assert.Equal(t, 1, load[sameAsA])
}
