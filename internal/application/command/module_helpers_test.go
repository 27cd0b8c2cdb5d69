package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/learning"
)

func firstModule(t *testing.T) learning.Module {
	t.Helper()
	require.NotEmpty(t, learning.Catalog)
	return learning.Catalog[0]
}
