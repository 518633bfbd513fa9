package hypervisor

import "encoding/base64"

// requirementsFor maps the most featureful configuration the engine reports
// for a restore image onto Requirements. The engine always reports one; an
// unsupported or empty hardware model means the host can run none, which is
// reported as nil.
func requirementsFor(supported bool, hardwareModel []byte, minCPU, minMemory uint64) *Requirements {
	if !supported || len(hardwareModel) == 0 {
		return nil
	}
	return &Requirements{
		HardwareModel:     base64.StdEncoding.EncodeToString(hardwareModel),
		MinimumCPUCount:   uint(minCPU),
		MinimumMemorySize: minMemory,
	}
}
