// Package monitor polls adb for attached devices and for the dashboard
// readings of the selected one.
package monitor

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"adboss/internal/adb"
	"adboss/internal/parse"
)

const (
	DefaultDiscoveryInterval = 3 * time.Second
	maxBackoff               = 30 * time.Second
)

// ErrDevicesUnavailable is returned by Poll when `adb devices` fails for a
// reason other than a missing binary (for example the server is restarting).
var ErrDevicesUnavailable = errors.New("device list unavailable")

// Discovery watches the attached devices and reports the list whenever the
// set of serials or their states changes.
type Discovery struct {
	gw       *adb.Gateway
	interval time.Duration
	onChange func([]parse.Device)
	log      zerolog.Logger

	last     []parse.Device
	polled   bool
	failures int
}

// NewDiscovery returns a discovery loop. gw may be the same gateway the
// device commands use: listing devices ignores its bound serial. interval <= 0
// uses the default.
func NewDiscovery(gw *adb.Gateway, interval time.Duration, onChange func([]parse.Device), log zerolog.Logger) *Discovery {
	if interval <= 0 {
		interval = DefaultDiscoveryInterval
	}
	return &Discovery{gw: gw, interval: interval, onChange: onChange, log: log}
}

// Poll lists devices once and calls onChange if the list differs from the
// previous poll. The first poll always reports. On failure the list is
// treated as empty.
func (d *Discovery) Poll(ctx context.Context) ([]parse.Device, bool, error) {
	devices, res := d.gw.Devices(ctx)
	var err error
	switch {
	case res.Failure == adb.FailureToolMissing:
		err = adb.ErrToolMissing
	case !res.Success:
		err = ErrDevicesUnavailable
	}
	if err != nil {
		devices = nil
		d.failures++
	} else {
		d.failures = 0
	}

	changed := !d.polled || !sameDevices(d.last, devices)
	d.polled = true
	d.last = devices
	if changed {
		d.log.Debug().Int("count", len(devices)).Msg("device list changed")
		if d.onChange != nil {
			d.onChange(devices)
		}
	}
	return devices, changed, err
}

// Run polls until ctx ends, backing off while polls fail.
func (d *Discovery) Run(ctx context.Context) {
	for {
		_, _, err := d.Poll(ctx)
		delay := d.interval
		if err != nil {
			delay = calculateBackoff(d.failures, d.interval)
			d.log.Warn().Err(err).Dur("retry", delay).Msg("device poll failed")
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// Failures is the number of consecutive failed polls.
func (d *Discovery) Failures() int { return d.failures }

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func sameDevices(a, b []parse.Device) bool {
	return slices.Equal(deviceKeys(a), deviceKeys(b))
}

func deviceKeys(devs []parse.Device) []string {
	keys := make([]string, len(devs))
	for i, d := range devs {
		keys[i] = d.Serial + "\x00" + d.RawState
	}
	slices.SortFunc(keys, strings.Compare)
	return keys
}
