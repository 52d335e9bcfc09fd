package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOwnerID(t *testing.T) {
	id, err := NormalizeOwnerID("  session:42@web ")
	require.NoError(t, err)
	assert.Equal(t, "session:42@web", id)

	for _, bad := range []string{"", "   ", "a b", "<script>", strings.Repeat("x", 129)} {
		_, err := NormalizeOwnerID(bad)
		assert.ErrorIs(t, err, ErrInvalidOwnerID, bad)
	}
}
