package triangle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullTerm(t *testing.T) {
	require.Equal(t, "VK_KHR_surface\x00", nullTerm("VK_KHR_surface"))
	require.Equal(t, "VK_KHR_surface\x00", nullTerm("VK_KHR_surface\x00"))
	require.Equal(t, "\x00", nullTerm(""))
}

func TestClearColorIsOpaqueYellow(t *testing.T) {
	require.Equal(t, []float32{1, 1, 0, 1}, clearColor)
}
