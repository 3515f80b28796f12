package triangle

import (
	"fmt"
	"os"

	as "github.com/vulkan-go/asche"
	vk "github.com/vulkan-go/vulkan"
)

// loadShaderFile reads a SPIR-V blob fully into memory. The bytecode is not
// validated beyond non-zero length; that is the driver's job.
func loadShaderFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %s", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("shader %s: file is empty", path)
	}
	return data, nil
}

func loadShaderModule(device vk.Device, path string) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	data, err := loadShaderFile(path)
	if err != nil {
		return module, err
	}
	module, err = as.LoadShaderModule(device, data)
	if err != nil {
		return module, fmt.Errorf("shader %s: %s", path, err)
	}
	return module, nil
}
