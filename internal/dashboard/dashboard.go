// Package dashboard renders a live terminal view of the aggregator.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/agentpulse/agentpulse/internal/metrics"
)

// RunConfig holds simulation parameters for the summary pane.
type RunConfig struct {
	Listen      string        // HTTP listen address
	Concurrency int           // Number of concurrent workers
	Duration    time.Duration // Simulation duration (0 = unlimited)
	Total       int           // Total tasks to execute (0 = unlimited)
	Rate        int           // Tasks per second (0 = unlimited)
	FailureRate float64       // Injected failure probability
	ConfigFile  string        // Path to config file if used
}

// Dashboard renders a live terminal UI for aggregator metrics.
type Dashboard struct {
	agg          *metrics.Aggregator
	interval     time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid            *ui.Grid
	durationSparkle *widgets.SparklineGroup
	durationPara    *widgets.Paragraph
	successGauge    *widgets.Gauge
	errorList       *widgets.List
	requestList     *widgets.List
	summaryPara     *widgets.Paragraph
	metricsPara     *widgets.Paragraph
	durationHistory []float64
	runConfig       RunConfig
}

// New creates a new Dashboard refreshing at the given poll interval.
func New(agg *metrics.Aggregator, interval time.Duration, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		agg:             agg,
		interval:        interval,
		ctx:             ctx,
		cancel:          cancel,
		shutdownFunc:    shutdownFunc,
		durationHistory: make([]float64, 0, 100),
		runConfig:       cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Duration (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.durationSparkle = widgets.NewSparklineGroup(sparkline)
	d.durationSparkle.Title = "Task Duration"
	d.durationSparkle.BorderStyle.Fg = ui.ColorCyan

	d.durationPara = widgets.NewParagraph()
	d.durationPara.Title = "Duration Stats"
	d.durationPara.Text = "Min: 0ms\nMean: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms"
	d.durationPara.BorderStyle.Fg = ui.ColorCyan

	d.successGauge = widgets.NewGauge()
	d.successGauge.Title = "Success Rate"
	d.successGauge.Percent = 100
	d.successGauge.BarColor = ui.ColorGreen
	d.successGauge.BorderStyle.Fg = ui.ColorCyan
	d.successGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.errorList = widgets.NewList()
	d.errorList.Title = "Recent Errors"
	d.errorList.Rows = []string{"No failures"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan

	d.requestList = widgets.NewList()
	d.requestList.Title = "Recent Tasks"
	d.requestList.Rows = []string{"Awaiting data"}
	d.requestList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.requestList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Metrics"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.18,
			ui.NewCol(0.5, d.successGauge),
			ui.NewCol(0.5, d.metricsPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(0.65, d.durationSparkle),
			ui.NewCol(0.35, d.durationPara),
		),
		ui.NewRow(0.38,
			ui.NewCol(0.5, d.requestList),
			ui.NewCol(0.5, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.update()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the aggregator in one locked read.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	data := d.agg.Dashboard()
	stats := data.Metrics

	if stats.AverageResponseTime > 0 {
		avgMs := stats.AverageResponseTime * 1000
		d.durationHistory = append(d.durationHistory, avgMs)
		if len(d.durationHistory) > 100 {
			d.durationHistory = d.durationHistory[1:]
		}
		d.durationSparkle.Sparklines[0].Data = d.durationHistory
		d.durationSparkle.Title = fmt.Sprintf(
			"Task Duration | Mean: %.2fms | Min: %.2fms | Max: %.2fms",
			avgMs,
			stats.MinResponseTime*1000,
			stats.MaxResponseTime*1000,
		)
	}

	successPercent := int(stats.SuccessRate * 100)
	if stats.TotalRequests == 0 {
		successPercent = 100
	}
	d.successGauge.Percent = successPercent
	d.successGauge.Label = fmt.Sprintf("%.1f%% (%d/%d)", stats.SuccessRate*100, stats.SuccessfulRequests, stats.TotalRequests)
	if successPercent < 90 {
		d.successGauge.BarColor = ui.ColorRed
	} else {
		d.successGauge.BarColor = ui.ColorGreen
	}

	d.summaryPara.Text = fmt.Sprintf(
		"Listen: %s\n%s\nUptime: %.0fs | Total: %d | Success Rate: %.1f%%",
		d.runConfig.Listen,
		d.formatRunParams(),
		stats.UptimeSeconds,
		stats.TotalRequests,
		stats.SuccessRate*100,
	)

	d.metricsPara.Text = fmt.Sprintf(
		"Total Tasks:       %d\nSuccessful:        %d\nFailed:            %d\nTasks/sec:         %.2f\nMin Duration:      %.2fms\nMean Duration:     %.2fms\nP50/P90/P99:       %.2f / %.2f / %.2f ms",
		stats.TotalRequests,
		stats.SuccessfulRequests,
		stats.FailedRequests,
		stats.RequestsPerSec,
		stats.MinResponseTime*1000,
		stats.AverageResponseTime*1000,
		stats.P50ResponseTime*1000,
		stats.P90ResponseTime*1000,
		stats.P99ResponseTime*1000,
	)

	d.durationPara.Text = fmt.Sprintf(
		"Min:  %.2fms\nMean: %.2fms\nP50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms",
		stats.MinResponseTime*1000,
		stats.AverageResponseTime*1000,
		stats.P50ResponseTime*1000,
		stats.P90ResponseTime*1000,
		stats.P99ResponseTime*1000,
	)

	d.requestList.Rows = formatRequestRows(data.RecentRequests)
	d.errorList.Rows = formatErrorRows(data.RecentErrors)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func formatRequestRows(records []metrics.RequestRecord) []string {
	if len(records) == 0 {
		return []string{"[No task data](fg:green)"}
	}
	rows := make([]string, 0, len(records))
	for _, r := range records {
		status := "[OK](fg:green)"
		if !r.Success {
			status = "[FAIL](fg:red)"
		}
		rows = append(rows, fmt.Sprintf("%s [%s](fg:cyan) %6.1fms %s",
			r.Timestamp.Format("15:04:05"),
			trimEndpoint(r.Endpoint),
			r.ResponseTime*1000,
			status,
		))
	}
	return rows
}

func formatErrorRows(records []metrics.ErrorRecord) []string {
	if len(records) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	rows := make([]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, fmt.Sprintf("%s [%s](fg:red) %s",
			r.Timestamp.Format("15:04:05"),
			trimEndpoint(r.Endpoint),
			r.Error,
		))
	}
	return rows
}

// trimEndpoint drops the shared endpoint prefix so task names fit on a row.
func trimEndpoint(endpoint string) string {
	if idx := strings.IndexByte(endpoint, ':'); idx >= 0 && idx < len(endpoint)-1 {
		return endpoint[idx+1:]
	}
	return endpoint
}

func (d *Dashboard) formatRunParams() string {
	var parts []string

	if d.runConfig.Concurrency > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d", d.runConfig.Concurrency))
	}
	if d.runConfig.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d/s", d.runConfig.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}
	if d.runConfig.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", d.runConfig.Duration))
	}
	if d.runConfig.Total > 0 {
		parts = append(parts, fmt.Sprintf("Total: %d", d.runConfig.Total))
	}
	if d.runConfig.FailureRate > 0 {
		parts = append(parts, fmt.Sprintf("Failure Rate: %.0f%%", d.runConfig.FailureRate*100))
	}
	if d.runConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.runConfig.ConfigFile))
	}

	if len(parts) == 0 {
		return ""
	}

	return strings.Join(parts, " | ")
}
