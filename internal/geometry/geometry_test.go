package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faucetlabs/fat12vol/internal/geometry"
)

func TestIdentifyKnownFormFactor(t *testing.T) {
	name, ok := geometry.Identify(512, 1, 1, 2, 224, 2880, 9)
	require.True(t, ok)
	require.Contains(t, name, "1.44 MB")
}

func TestIdentifyUnknownGeometry(t *testing.T) {
	_, ok := geometry.Identify(512, 4, 1, 2, 512, 999999, 17)
	require.False(t, ok)
}
