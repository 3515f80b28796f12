package triangle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestPresentOutcome(t *testing.T) {
	for idx, tc := range []struct {
		name        string
		ret         vk.Result
		wantDropped bool
		wantErr     bool
	}{
		{"success", vk.Success, false, false},
		{"suboptimal still presented", vk.Suboptimal, false, false},
		{"out of date drops the frame", vk.ErrorOutOfDate, true, false},
		{"device lost is fatal", vk.ErrorDeviceLost, false, true},
		{"surface lost is fatal", vk.ErrorSurfaceLost, false, true},
	} {
		t.Run(fmt.Sprintf("%d/%s", idx, tc.name), func(t *testing.T) {
			dropped, err := presentOutcome(tc.ret)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "vk.QueuePresent")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantDropped, dropped)
		})
	}
}
