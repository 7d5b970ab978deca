package dbridge

import "testing"

func TestDeviceHandleFieldsPopulated(t *testing.T) {
	dh := &DeviceHandle{ID: DeviceID{Serial: "emulator-5554"}}
	if dh.ID.Serial != "emulator-5554" {
		t.Errorf("ID.Serial = %q", dh.ID.Serial)
	}
}
