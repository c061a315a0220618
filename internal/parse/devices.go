package parse

import (
	"fmt"
	"strings"
)

// DeviceState is the connection state column of `adb devices`.
type DeviceState string

const (
	StateDevice       DeviceState = "device"
	StateOffline      DeviceState = "offline"
	StateUnauthorized DeviceState = "unauthorized"
	StateUnknown      DeviceState = "unknown"
)

// Device is one row of `adb devices -l`.
type Device struct {
	Serial      string
	State       DeviceState
	RawState    string // as printed, e.g. "recovery" or "sideload"
	Product     string
	Model       string
	DeviceName  string
	TransportID string
}

// Label is the human-readable name used in device pickers.
func (d Device) Label() string {
	model := d.Model
	if model == "" || model == "unknown" {
		return d.Serial
	}
	return fmt.Sprintf("%s (%s)", strings.ReplaceAll(model, "_", " "), d.Serial)
}

// Online reports whether commands can be sent to the device.
func (d Device) Online() bool { return d.State == StateDevice }

func toState(s string) DeviceState {
	switch DeviceState(s) {
	case StateDevice, StateOffline, StateUnauthorized:
		return DeviceState(s)
	}
	return StateUnknown
}

// ParseDevices reads `adb devices -l`:
//
//	List of devices attached
//	R58M12345AB     device usb:1-1 product:beyond1 model:SM_G973F device:beyond1 transport_id:2
//	emulator-5554   offline transport_id:1
//
// Header lines and daemon start-up chatter are skipped.
func ParseDevices(out string) []Device {
	var res []Device
	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" ||
			strings.HasPrefix(ln, "List of devices") ||
			strings.HasPrefix(ln, "*") ||
			strings.Contains(ln, "daemon") ||
			strings.Contains(ln, "adb server") {
			continue
		}
		f := strings.Fields(ln)
		if len(f) < 2 {
			continue
		}
		d := Device{Serial: f[0], Model: "unknown"}
		rest := f[1:]
		if !strings.Contains(rest[0], ":") {
			d.RawState = rest[0]
			rest = rest[1:]
			// "no permissions (...)" spreads over several fields
			if d.RawState == "no" && len(rest) > 0 && strings.HasPrefix(rest[0], "permissions") {
				d.RawState = "no permissions"
			}
		}
		d.State = toState(d.RawState)
		for _, tok := range rest {
			key, val, ok := strings.Cut(tok, ":")
			if !ok {
				continue
			}
			switch key {
			case "product":
				d.Product = val
			case "model":
				d.Model = val
			case "device":
				d.DeviceName = val
			case "transport_id":
				d.TransportID = val
			}
		}
		res = append(res, d)
	}
	return res
}
