package dbridge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceProfile pins known facts about a specific device so callers can
// skip DeviceProbe's SDK/ABI detection round-trips when they already know
// the answer (e.g. a fixed CI device farm).
type DeviceProfile struct {
	Serial string `yaml:"serial"`
	ABI    string `yaml:"abi"`
	SDK    int    `yaml:"sdk"`
}

// ProfileSet is a serial-keyed collection of DeviceProfiles, typically
// loaded from a YAML file alongside a fleet of known test devices.
type ProfileSet map[string]DeviceProfile

// LoadProfiles reads a YAML document of the form:
//
//	devices:
//	  - serial: emulator-5554
//	    abi: x86_64
//	    sdk: 30
func LoadProfiles(path string) (ProfileSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	var doc struct {
		Devices []DeviceProfile `yaml:"devices"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	set := make(ProfileSet, len(doc.Devices))
	for _, p := range doc.Devices {
		set[p.Serial] = p
	}
	return set, nil
}
