package parse

import "strings"

// Battery is the subset of `dumpsys battery` the dashboard shows.
type Battery struct {
	Level       int     // percent, 0 when missing
	Status      string  // "Charging", "Discharging", ... or "Unknown"
	Charging    bool    // Status == Charging
	Health      string  // "Good", "Overheat", ... or "Unknown"
	Temperature float64 // °C
	Voltage     int     // mV
	Technology  string
	ACPowered   bool
	USBPowered  bool
	Wireless    bool
}

var batteryStatus = map[string]string{
	"1": "Unknown",
	"2": "Charging",
	"3": "Discharging",
	"4": "Not charging",
	"5": "Full",
}

var batteryHealth = map[string]string{
	"1": "Unknown",
	"2": "Good",
	"3": "Overheat",
	"4": "Dead",
	"5": "Over voltage",
	"6": "Unspecified failure",
	"7": "Cold",
}

// ParseBattery reads `dumpsys battery` output: one "key: value" pair per line,
// keys compared case-insensitively. Status and health may be numeric codes or
// already-readable words. Temperature is reported by the device in tenths of a
// degree.
func ParseBattery(out string) Battery {
	b := Battery{Status: "Unknown", Health: "Unknown"}
	for _, ln := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(ln), ":")
		if !ok {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		value = strings.TrimSpace(value)
		switch key {
		case "level":
			b.Level = atoiDefault(value, 0)
		case "status":
			b.Status = lookupOr(batteryStatus, value)
		case "health":
			b.Health = lookupOr(batteryHealth, value)
		case "temperature":
			b.Temperature = floatDefault(value, 0) / 10.0
		case "voltage":
			b.Voltage = atoiDefault(value, 0)
		case "technology":
			b.Technology = value
		case "ac_powered":
			b.ACPowered = strings.EqualFold(value, "true")
		case "usb_powered":
			b.USBPowered = strings.EqualFold(value, "true")
		case "wireless_powered":
			b.Wireless = strings.EqualFold(value, "true")
		}
	}
	b.Charging = strings.EqualFold(b.Status, "Charging")
	return b
}

func lookupOr(table map[string]string, value string) string {
	if v, ok := table[value]; ok {
		return v
	}
	if value == "" {
		return "Unknown"
	}
	for _, name := range table {
		if strings.EqualFold(name, value) {
			return name
		}
	}
	return value
}
