package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/internal/snmp"
	"go.uber.org/zap"
)

const counter32Modulus = 1 << 32

// SamplerOptions configures the octet rate sampler
type SamplerOptions struct {
	Community string
	Interval  time.Duration // one sampling step, 1s unless overridden
	// PartialOnError keeps the samples collected before a failed read instead of
	// aborting the whole session. A failure before the first sample still aborts.
	PartialOnError bool
}

// Sampler turns a series of ifInOctets/ifOutOctets reads into bandwidth samples
type Sampler struct {
	transport snmp.Transport
	clock     clock.Clock
	opts      SamplerOptions
}

func NewSampler(transport snmp.Transport, clk clock.Clock, opts SamplerOptions) *Sampler {
	if clk == nil {
		clk = clock.New()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &Sampler{transport: transport, clock: clk, opts: opts}
}

// Sample reads the interface counters once as a baseline and then once per
// interval for duration intervals. Any failed read aborts the session with the
// transport error unless PartialOnError is set; a cancelled ctx always aborts.
func (s *Sampler) Sample(ctx context.Context, host string, ifIndex, duration int) (*domain.OctetMonitorResult, error) {
	if duration < 1 {
		duration = 1
	}

	prevIn, prevOut, err := s.readOctets(ctx, host, ifIndex)
	if err != nil {
		return nil, err
	}

	secs := s.opts.Interval.Seconds()
	samples := make([]domain.MonitorSample, 0, duration)
	partial := false
	for t := 1; t <= duration; t++ {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		curIn, curOut, err := s.readOctets(ctx, host, ifIndex)
		if err != nil {
			if s.opts.PartialOnError && len(samples) > 0 && !errors.Is(err, context.Canceled) {
				zap.L().Warn("octet sampling stopped early, keeping partial result",
					zap.String("namespace", "monitor"),
					zap.String("host", host),
					zap.Int("if_index", ifIndex),
					zap.Int("samples", len(samples)),
					zap.Error(err))
				partial = true
				break
			}
			return nil, err
		}
		samples = append(samples, domain.MonitorSample{
			T:      t,
			InBps:  float64(CounterDelta(prevIn, curIn)) * 8 / secs,
			OutBps: float64(CounterDelta(prevOut, curOut)) * 8 / secs,
		})
		prevIn, prevOut = curIn, curOut
	}

	return &domain.OctetMonitorResult{
		Samples:       samples,
		AvgInBps:      meanOf(samples, func(m domain.MonitorSample) float64 { return m.InBps }),
		AvgOutBps:     meanOf(samples, func(m domain.MonitorSample) float64 { return m.OutBps }),
		LastInOctets:  prevIn,
		LastOutOctets: prevOut,
		Partial:       partial,
	}, nil
}

// CounterDelta is cur - prev on a 32-bit counter, adding the modulus when the counter wrapped
func CounterDelta(prev, cur uint32) uint64 {
	d := int64(cur) - int64(prev)
	if d < 0 {
		d += counter32Modulus
	}
	return uint64(d)
}

func (s *Sampler) wait(ctx context.Context) error {
	timer := s.clock.Timer(s.opts.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Sampler) readOctets(ctx context.Context, host string, ifIndex int) (uint32, uint32, error) {
	in, err := s.transport.GetInteger(ctx, host, snmp.IfInOctets(ifIndex), s.opts.Community)
	if err != nil {
		return 0, 0, err
	}
	out, err := s.transport.GetInteger(ctx, host, snmp.IfOutOctets(ifIndex), s.opts.Community)
	if err != nil {
		return 0, 0, err
	}
	return uint32(in), uint32(out), nil //nolint:gosec // G115: Counter32 values fit in uint32
}

func sampleValues(samples []domain.MonitorSample, f func(domain.MonitorSample) float64) stats.Float64Data {
	data := make(stats.Float64Data, len(samples))
	for i, m := range samples {
		data[i] = f(m)
	}
	return data
}

func meanOf(samples []domain.MonitorSample, f func(domain.MonitorSample) float64) float64 {
	avg, err := stats.Mean(sampleValues(samples, f))
	if err != nil {
		return 0
	}
	return avg
}

func maxOf(samples []domain.MonitorSample, f func(domain.MonitorSample) float64) float64 {
	peak, err := stats.Max(sampleValues(samples, f))
	if err != nil {
		return 0
	}
	return peak
}
