package correlation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsure(t *testing.T) {
	t.Run("should keep an inbound id", func(t *testing.T) {
		ctx, id := Ensure(context.Background(), "corr-1")

		assert.Equal(t, "corr-1", id)
		assert.Equal(t, "corr-1", FromContext(ctx))
	})

	t.Run("should mint a uuid when missing", func(t *testing.T) {
		ctx, id := Ensure(context.Background(), "")

		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, FromContext(ctx))
	})

	t.Run("should read empty from a bare context", func(t *testing.T) {
		assert.Empty(t, FromContext(context.Background()))
	})
}
