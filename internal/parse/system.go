package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MemInfo holds /proc/meminfo totals in KiB.
type MemInfo struct {
	TotalKB     int64
	FreeKB      int64
	AvailableKB int64
	UsedKB      int64
}

// ParseMemInfo reads /proc/meminfo ("MemTotal:  3809620 kB"). Used is derived
// from MemAvailable, or MemFree on kernels that lack it.
func ParseMemInfo(out string) MemInfo {
	var m MemInfo
	hasAvailable := false
	for _, ln := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(ln), ":")
		if !ok {
			continue
		}
		v, ok := leadingInt(value)
		if !ok {
			continue
		}
		switch key {
		case "MemTotal":
			m.TotalKB = v
		case "MemFree":
			m.FreeKB = v
		case "MemAvailable":
			m.AvailableKB = v
			hasAvailable = true
		}
	}
	avail := m.FreeKB
	if hasAvailable {
		avail = m.AvailableKB
	}
	if m.TotalKB > avail {
		m.UsedKB = m.TotalKB - avail
	}
	return m
}

// Storage holds the /data partition usage in KiB.
type Storage struct {
	Mount   string
	TotalKB int64
	UsedKB  int64
	FreeKB  int64
}

// UsedPercent returns used/total in percent, 0 when total is unknown.
func (s Storage) UsedPercent() float64 {
	if s.TotalKB <= 0 {
		return 0
	}
	return float64(s.UsedKB) * 100 / float64(s.TotalKB)
}

// ParseStorage reads `df /data`. The first data row whose mount point or
// filesystem is /data wins; columns are filesystem, size, used, available.
// Toolboxes that print human sizes ("5.2G") are handled too.
func ParseStorage(out string) Storage {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i, ln := range lines {
		if i == 0 && strings.Contains(strings.ToLower(ln), "filesystem") {
			continue
		}
		f := strings.Fields(ln)
		if len(f) < 4 {
			continue
		}
		if !strings.Contains(f[len(f)-1], "/data") && f[0] != "/data" {
			continue
		}
		s := Storage{Mount: f[len(f)-1]}
		total, ok1 := sizeKB(f[1])
		used, ok2 := sizeKB(f[2])
		free, ok3 := sizeKB(f[3])
		if !ok1 || !ok2 || !ok3 {
			return Storage{Mount: s.Mount}
		}
		s.TotalKB, s.UsedKB, s.FreeKB = total, used, free
		return s
	}
	return Storage{}
}

// Process is one row of `top`.
type Process struct {
	PID  int
	CPU  float64
	Name string
}

// CPU summarises one `top -n 1 -b` frame.
type CPU struct {
	UsagePercent float64
	Top          []Process
}

var (
	cpuTotalPattern = regexp.MustCompile(`(\d+)%cpu`)
	cpuIdlePattern  = regexp.MustCompile(`(\d+)%idle`)
	percentPattern  = regexp.MustCompile(`(\d+)%`)
)

const topProcessCount = 5

// ParseCPU reads toybox/busybox top output. Usage comes from the summary line
// ("800%cpu 12%user 0%nice 20%sys 768%idle ...") scaled to the core count, or
// from "User 5%, System 3%" on older builds. Up to five process rows with a
// numeric PID and at least nine columns (the ninth being %CPU) are kept.
func ParseCPU(out string) CPU {
	c := CPU{}
	for _, ln := range strings.Split(out, "\n") {
		lower := strings.ToLower(ln)
		if !strings.Contains(lower, "cpu") || !strings.Contains(lower, "%") {
			continue
		}
		compact := strings.ReplaceAll(lower, " ", "")
		if m := cpuIdlePattern.FindStringSubmatch(compact); m != nil {
			idle, _ := strconv.ParseFloat(m[1], 64)
			total := 100.0
			if t := cpuTotalPattern.FindStringSubmatch(compact); t != nil {
				if v, err := strconv.ParseFloat(t[1], 64); err == nil && v > 0 {
					total = v
				}
			}
			c.UsagePercent = clampPercent((total - idle) * 100 / total)
			break
		}
		if nums := percentPattern.FindAllStringSubmatch(ln, -1); len(nums) > 0 {
			sum := 0.0
			for i := 0; i < len(nums) && i < 2; i++ {
				v, _ := strconv.ParseFloat(nums[i][1], 64)
				sum += v
			}
			c.UsagePercent = clampPercent(sum)
			break
		}
	}

	for _, ln := range strings.Split(out, "\n") {
		if len(c.Top) >= topProcessCount {
			break
		}
		f := strings.Fields(ln)
		if len(f) < 9 {
			continue
		}
		pid, err := strconv.Atoi(f[0])
		if err != nil {
			continue
		}
		cpu, err := strconv.ParseFloat(strings.TrimSuffix(f[8], "%"), 64)
		if err != nil {
			continue
		}
		name := f[len(f)-1]
		c.Top = append(c.Top, Process{PID: pid, CPU: cpu, Name: name})
	}
	return c
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// Display is the screen geometry from `wm size` and `wm density`.
type Display struct {
	Width  int
	Height int
	DPI    int
}

// Resolution returns "WxH", or "unknown" when no size was reported.
func (d Display) Resolution() string {
	if d.Width == 0 || d.Height == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

var (
	sizePattern   = regexp.MustCompile(`(\d+)x(\d+)`)
	numberPattern = regexp.MustCompile(`(\d+)`)
)

const overridePrefix = "override"

// ParseDisplay reads "Physical size: 1080x2400" (optionally followed by an
// "Override size:" line) and "Physical density: 420". Override values win.
func ParseDisplay(sizeOut, densityOut string) Display {
	var d Display
	pick := func(out string, re *regexp.Regexp) []string {
		var chosen []string
		for _, ln := range strings.Split(out, "\n") {
			m := re.FindStringSubmatch(ln)
			if m == nil {
				continue
			}
			if chosen == nil || strings.HasPrefix(strings.ToLower(strings.TrimSpace(ln)), overridePrefix) {
				chosen = m
			}
		}
		return chosen
	}
	if m := pick(sizeOut, sizePattern); m != nil {
		d.Width, _ = strconv.Atoi(m[1])
		d.Height, _ = strconv.Atoi(m[2])
	}
	if m := pick(densityOut, numberPattern); m != nil {
		d.DPI, _ = strconv.Atoi(m[1])
	}
	return d
}

// Network describes the Wi-Fi link.
type Network struct {
	SSID string
	IP   string
	RSSI int // dBm, 0 when unknown
}

var (
	ssidPattern   = regexp.MustCompile(`SSID:\s*"?([^",\n]+)"?`)
	inetPattern   = regexp.MustCompile(`inet\s+(\d+\.\d+\.\d+\.\d+)`)
	rssiPattern   = regexp.MustCompile(`(?i)\brssi[=:]\s*(-?\d+)`)
	mRssiPattern  = regexp.MustCompile(`(?i)mRssi[=:]\s*(-?\d+)`)
	unknownSSIDRe = regexp.MustCompile(`(?i)<unknown ssid>`)
)

// ParseNetwork reads `dumpsys wifi` and `ip addr show wlan0`.
func ParseNetwork(wifiOut, ipOut string) Network {
	n := Network{SSID: "unknown", IP: "unknown"}
	if m := ssidPattern.FindStringSubmatch(wifiOut); m != nil {
		ssid := strings.Trim(strings.TrimSpace(m[1]), `"`)
		if ssid != "" && !unknownSSIDRe.MatchString(ssid) {
			n.SSID = ssid
		}
	}
	if m := inetPattern.FindStringSubmatch(ipOut); m != nil {
		n.IP = m[1]
	}
	m := rssiPattern.FindStringSubmatch(wifiOut)
	if m == nil {
		m = mRssiPattern.FindStringSubmatch(wifiOut)
	}
	if m != nil {
		n.RSSI = atoiDefault(m[1], 0)
	}
	return n
}

// ParseUptime reads /proc/uptime ("12345.67 54321.00").
func ParseUptime(out string) time.Duration {
	f := strings.Fields(out)
	if len(f) == 0 {
		return 0
	}
	secs := floatDefault(f[0], 0)
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

var propPattern = regexp.MustCompile(`^\[([^\]]+)\]: \[([^\]]*)\]$`)

// ParseProps reads `getprop` output ("[ro.product.model]: [Pixel 6]").
func ParseProps(out string) map[string]string {
	props := make(map[string]string)
	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if m := propPattern.FindStringSubmatch(ln); len(m) == 3 {
			props[m[1]] = m[2]
		}
	}
	return props
}

// DeviceInfo is the identity block of the dashboard.
type DeviceInfo struct {
	Model          string
	Manufacturer   string
	AndroidVersion string
	BuildID        string
	SDKVersion     string
	Serial         string
	Uptime         time.Duration
}

// NewDeviceInfo picks the identity properties out of a getprop map.
func NewDeviceInfo(props map[string]string, uptime time.Duration) DeviceInfo {
	return DeviceInfo{
		Model:          props["ro.product.model"],
		Manufacturer:   props["ro.product.manufacturer"],
		AndroidVersion: props["ro.build.version.release"],
		BuildID:        props["ro.build.display.id"],
		SDKVersion:     props["ro.build.version.sdk"],
		Serial:         props["ro.serialno"],
		Uptime:         uptime,
	}
}

// FormatUptime renders a duration as "3h 4m 5s".
func FormatUptime(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%dh %dm %ds", secs/3600, (secs%3600)/60, secs%60)
}
