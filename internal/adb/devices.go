package adb

import "strings"

// DeviceState is the connection state the transport reports for a device.
// Values are passed through verbatim; the three states adb prints for
// phone-agent targets are named below, anything else survives untyped.
type DeviceState string

const (
	StateDevice       DeviceState = "device"
	StateUnauthorized DeviceState = "unauthorized"
	StateOffline      DeviceState = "offline"
)

// Device is one row of the enumeration output.
type Device struct {
	Serial string
	State  DeviceState
}

// DeviceList couples the parsed devices with the transport's raw output. An
// empty Devices slice is a valid result: no hardware attached is something
// to report, not an error.
type DeviceList struct {
	// Raw is the enumeration command's stdout, unmodified, so the report can
	// pass it through exactly as the transport printed it.
	Raw string
	// Devices holds the parsed rows.
	Devices []Device
}

// ParseDevices extracts device rows from `adb devices` output. The banner
// line, blank lines, and the `*`-prefixed daemon start-up chatter are
// skipped; each remaining line contributes its first column as the serial
// and everything after it, trimmed, as the state.
func ParseDevices(raw string) []Device {
	var devices []Device
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		if strings.HasPrefix(line, "List of devices") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		serial := fields[0]
		state := strings.TrimSpace(strings.TrimPrefix(line, serial))
		devices = append(devices, Device{Serial: serial, State: DeviceState(state)})
	}
	return devices
}
