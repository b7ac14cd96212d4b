package utils

import (
	"fmt"
	"strings"

	"github.com/notargets/gocca"
	"github.com/rs/zerolog/log"
)

// DeviceBackends are the OCCA device properties CreateDevice tries, fastest first
var DeviceBackends = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// CreateDevice opens an OCCA device. With no modes the DeviceBackends are tried in
// order; otherwise only the named modes ("Serial", "OpenMP", "CUDA", ...) are.
func CreateDevice(modes ...string) (*gocca.OCCADevice, error) {
	backends := DeviceBackends
	if len(modes) > 0 {
		backends = make([]string, len(modes))
		for i, m := range modes {
			if strings.HasPrefix(strings.TrimSpace(m), "{") {
				backends[i] = m
				continue
			}
			backends[i] = fmt.Sprintf(`{"mode": %q}`, m)
		}
	}

	var errs []string
	for _, props := range backends {
		device, err := gocca.NewDevice(props)
		if err == nil {
			log.Debug().Str("mode", device.Mode()).Msg("created OCCA device")
			return device, nil
		}
		errs = append(errs, fmt.Sprintf("%s: %v", props, err))
	}
	return nil, fmt.Errorf("failed to create any OCCA device: %s", strings.Join(errs, "; "))
}
