package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"adboss/internal/adb"
	"adboss/internal/parse"
)

const (
	DefaultRefreshInterval = 5 * time.Second

	// readings gathered at once after the identity check
	collectLimit = 3
)

// ErrNotResponding means the bound device returned no identity properties.
var ErrNotResponding = errors.New("device not responding")

// Snapshot is one full set of dashboard readings.
type Snapshot struct {
	Serial  string
	Info    parse.DeviceInfo
	Battery parse.Battery
	Memory  parse.MemInfo
	Storage parse.Storage
	CPU     parse.CPU
	Network parse.Network
	Display parse.Display
	Taken   time.Time
}

// Collect reads the dashboard for the gateway's bound device. Identity comes
// first; if the device does not answer, the remaining readings are skipped.
func Collect(ctx context.Context, gw *adb.Gateway) (Snapshot, error) {
	s := Snapshot{Serial: gw.Serial()}
	s.Info = gw.DeviceInfo(ctx)
	if s.Info.Model == "" {
		return s, ErrNotResponding
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(collectLimit)
	g.Go(func() error { s.Battery = gw.Battery(gctx); return nil })
	g.Go(func() error { s.Memory = gw.Memory(gctx); return nil })
	g.Go(func() error { s.Storage = gw.Storage(gctx); return nil })
	g.Go(func() error { s.CPU = gw.CPU(gctx); return nil })
	g.Go(func() error { s.Network = gw.Network(gctx); return nil })
	g.Go(func() error { s.Display = gw.Display(gctx); return nil })
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return s, err
	}
	s.Taken = time.Now()
	return s, nil
}

// Poller refreshes the dashboard at a fixed cadence.
type Poller struct {
	gw       *adb.Gateway
	interval time.Duration
	deliver  func(Snapshot, error)
	log      zerolog.Logger
}

// NewPoller returns a poller that hands every refresh to deliver. interval
// <= 0 uses DefaultRefreshInterval.
func NewPoller(gw *adb.Gateway, interval time.Duration, deliver func(Snapshot, error), log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Poller{gw: gw, interval: interval, deliver: deliver, log: log}
}

// Run refreshes immediately and then on every tick until ctx ends. A refresh
// that is still running when the next tick fires delays that tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		p.refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	snap, err := Collect(ctx, p.gw)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.log.Debug().Err(err).Str("serial", snap.Serial).Msg("dashboard refresh failed")
	}
	p.deliver(snap, err)
}
