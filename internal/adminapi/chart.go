package adminapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughmon/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const defaultChartSeconds = 10

// GetBandwidthChart samples the interface live for ?seconds (10 by default)
// and renders in/out bps as a PNG line chart.
func GetBandwidthChart(c echo.Context) error {
	seconds := defaultChartSeconds
	if v := c.QueryParam("seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fail(c, http.StatusBadRequest, "INVALID_SECONDS", "Duration must be >= 1 second", nil)
		}
		seconds = n
	}
	target, err := resolveLink(c)
	if target == nil {
		return err
	}

	result, err := GetAppContext(c).Sampler().Sample(c.Request().Context(), target.router.IpAdmin, target.ifIndex, seconds)
	if err != nil {
		return failWith(c, err)
	}

	title := fmt.Sprintf("%s - ifIndex %d", target.router.Hostname, target.ifIndex)
	png, err := renderBandwidthChart(title, result.Samples)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "CHART_ERROR", "Failed to render chart", err.Error())
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func renderBandwidthChart(title string, samples []domain.MonitorSample) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Traffic (bps)"
	p.Add(plotter.NewGrid())

	if len(samples) == 0 {
		p.Title.Text += " (no samples)"
	} else {
		in := make(plotter.XYs, len(samples))
		out := make(plotter.XYs, len(samples))
		for i, s := range samples {
			in[i].X, in[i].Y = float64(s.T), s.InBps
			out[i].X, out[i].Y = float64(s.T), s.OutBps
		}
		if err := plotutil.AddLines(p, "In bps", in, "Out bps", out); err != nil {
			return nil, err
		}
	}

	w, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
