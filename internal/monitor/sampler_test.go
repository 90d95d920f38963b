package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/internal/snmp"
)

const testHost = "10.0.0.1"

func sampleWithMock(t *testing.T, tr *fakeTransport, opts SamplerOptions, duration int) (*domain.OctetMonitorResult, error) {
	t.Helper()
	mock := clock.NewMock()
	s := NewSampler(tr, mock, opts)
	var (
		res *domain.OctetMonitorResult
		err error
	)
	driveClock(t, mock, func() {
		res, err = s.Sample(context.Background(), testHost, 2, duration)
	})
	return res, err
}

func TestCounterDeltaWraps(t *testing.T) {
	assert.Equal(t, uint64(11), CounterDelta(4294967290, 5))
	assert.Equal(t, uint64(100), CounterDelta(100, 200))
	assert.Equal(t, uint64(0), CounterDelta(7, 7))
	assert.Equal(t, uint64(1), CounterDelta(4294967295, 0))
}

func TestSampleReturnsOrderedSamples(t *testing.T) {
	for _, d := range []int{1, 3, 10} {
		tr := newFakeTransport()
		for i := 0; i <= d; i++ {
			tr.script(testHost, snmp.IfInOctets(2), int64(i*100))
			tr.script(testHost, snmp.IfOutOctets(2), int64(i*50))
		}

		res, err := sampleWithMock(t, tr, SamplerOptions{}, d)
		require.NoError(t, err)
		require.Len(t, res.Samples, d)
		for i, s := range res.Samples {
			assert.Equal(t, i+1, s.T)
			assert.Equal(t, 800.0, s.InBps)
			assert.Equal(t, 400.0, s.OutBps)
		}
		assert.Equal(t, uint32(d*100), res.LastInOctets)
		assert.Equal(t, uint32(d*50), res.LastOutOctets)
		assert.False(t, res.Partial)
	}
}

func TestSampleClampsDuration(t *testing.T) {
	tr := newFakeTransport()
	tr.script(testHost, snmp.IfInOctets(2), 0, 10)
	tr.script(testHost, snmp.IfOutOctets(2), 0, 10)

	res, err := sampleWithMock(t, tr, SamplerOptions{}, 0)
	require.NoError(t, err)
	require.Len(t, res.Samples, 1)
	assert.Equal(t, 1, res.Samples[0].T)
}

func TestSampleCorrectsCounterWrap(t *testing.T) {
	tr := newFakeTransport()
	tr.script(testHost, snmp.IfInOctets(2), 4294967290, 5)
	tr.script(testHost, snmp.IfOutOctets(2), 10, 20)

	res, err := sampleWithMock(t, tr, SamplerOptions{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 88.0, res.Samples[0].InBps)
	assert.Equal(t, 80.0, res.Samples[0].OutBps)
	assert.Equal(t, uint32(5), res.LastInOctets)
}

func TestSampleAverages(t *testing.T) {
	tr := newFakeTransport()
	tr.script(testHost, snmp.IfInOctets(2), 0, 100, 300)
	tr.script(testHost, snmp.IfOutOctets(2), 0, 0, 0)

	res, err := sampleWithMock(t, tr, SamplerOptions{}, 2)
	require.NoError(t, err)
	assert.Equal(t, 800.0, res.Samples[0].InBps)
	assert.Equal(t, 1600.0, res.Samples[1].InBps)
	assert.Equal(t, 1200.0, res.AvgInBps)
	assert.Equal(t, 0.0, res.AvgOutBps)
}

func TestSampleFailsFast(t *testing.T) {
	tr := newFakeTransport()
	tr.script(testHost, snmp.IfInOctets(2), 0, 100)
	tr.fail(testHost, snmp.IfInOctets(2), "request timeout")
	tr.script(testHost, snmp.IfOutOctets(2), 0)

	res, err := sampleWithMock(t, tr, SamplerOptions{}, 3)
	assert.Nil(t, res)
	var te *snmp.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, snmp.IfInOctets(2), te.OID)
}

func TestSampleBaselineFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.script(testHost, snmp.IfInOctets(2), 0)
	tr.fail(testHost, snmp.IfOutOctets(2), "authorization error")

	res, err := sampleWithMock(t, tr, SamplerOptions{PartialOnError: true}, 3)
	assert.Nil(t, res)
	var te *snmp.TransportError
	require.True(t, errors.As(err, &te))
}

func TestSamplePartialOnError(t *testing.T) {
	tr := newFakeTransport()
	tr.script(testHost, snmp.IfInOctets(2), 0, 100)
	tr.fail(testHost, snmp.IfInOctets(2), "request timeout")
	tr.script(testHost, snmp.IfOutOctets(2), 0)

	res, err := sampleWithMock(t, tr, SamplerOptions{PartialOnError: true}, 3)
	require.NoError(t, err)
	require.Len(t, res.Samples, 1)
	assert.True(t, res.Partial)
	assert.Equal(t, 800.0, res.AvgInBps)
	assert.Equal(t, uint32(100), res.LastInOctets)
}

func TestSampleCancelled(t *testing.T) {
	tr := newFakeTransport()
	tr.script(testHost, snmp.IfInOctets(2), 0)
	tr.script(testHost, snmp.IfOutOctets(2), 0)

	// the mock clock never advances, so the loop can only leave through ctx
	s := NewSampler(tr, clock.NewMock(), SamplerOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Sample(ctx, testHost, 2, 60)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return tr.callCount(testHost, snmp.IfOutOctets(2)) == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sampling did not stop after cancel")
	}
}

func TestSampleHonoursInterval(t *testing.T) {
	tr := newFakeTransport()
	tr.script(testHost, snmp.IfInOctets(2), 0, 1000)
	tr.script(testHost, snmp.IfOutOctets(2), 0, 0)

	res, err := sampleWithMock(t, tr, SamplerOptions{Interval: 2 * time.Second}, 1)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, res.Samples[0].InBps)
}
