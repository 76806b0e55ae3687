package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/agentpulse/agentpulse/internal/metrics"
	"github.com/agentpulse/agentpulse/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	RunID            string
	GeneratedAt      string
	Stats            metrics.Stats
	RecentRequests   []metrics.RequestRecord
	RecentErrors     []metrics.ErrorRecord
	ThresholdSummary *ThresholdSummary
	HistoryJSON      string
}

// WriteHTMLReport renders the report to path. The write is guarded by a
// sibling .lock file so concurrent runs pointed at the same path do not
// interleave output.
func WriteHTMLReport(path string, report JSONReport, recentRequests []metrics.RequestRecord, results []threshold.Result) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock report file: %w", err)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	return GenerateHTMLReport(f, report, recentRequests, results)
}

// GenerateHTMLReport generates a standalone HTML report with embedded charts.
func GenerateHTMLReport(w io.Writer, report JSONReport, recentRequests []metrics.RequestRecord, results []threshold.Result) error {
	historyJSON, err := json.Marshal(recentRequests)
	if err != nil {
		return fmt.Errorf("failed to marshal request history: %w", err)
	}

	data := HTMLReportData{
		RunID:            report.RunID,
		GeneratedAt:      report.GeneratedAt.Format(time.RFC3339),
		Stats:            report.Metrics,
		RecentRequests:   recentRequests,
		RecentErrors:     report.RecentErrors,
		ThresholdSummary: summarizeResults(results),
		HistoryJSON:      string(historyJSON),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatSeconds": formatSeconds,
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(f float64) string {
			return fmt.Sprintf("%.1f", f*100)
		},
		"formatTime": func(t time.Time) string {
			return t.Format("15:04:05")
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>AgentPulse Performance Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.success {
            border-left-color: #10b981;
        }
        .card.error {
            border-left-color: #ef4444;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        .chart-container {
            background: white;
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 30px;
            border: 1px solid #e5e7eb;
        }
        .chart-container h3 {
            font-size: 1.1rem;
            margin-bottom: 15px;
            color: #4b5563;
        }
        .chart {
            width: 100%;
            height: 300px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success {
            background: #d1fae5;
            color: #065f46;
        }
        .badge-error {
            background: #fee2e2;
            color: #991b1b;
        }
        .latency-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 15px;
            margin-top: 20px;
        }
        .latency-item {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 6px;
            text-align: center;
        }
        .latency-item .label {
            font-size: 0.85rem;
            color: #6c757d;
            margin-bottom: 5px;
        }
        .latency-item .value {
            font-size: 1.3rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>⚡ AgentPulse Performance Report</h1>
            <div class="meta">Run: {{.RunID}}</div>
            <div class="meta">Generated: {{.GeneratedAt}} | Uptime: {{formatFloat .Stats.UptimeSeconds}}s</div>
        </header>

        <div class="content">
            <!-- Summary Cards -->
            <div class="grid">
                <div class="card">
                    <h3>Total Tasks</h3>
                    <div class="value">{{.Stats.TotalRequests}}</div>
                </div>
                <div class="card success">
                    <h3>Successful</h3>
                    <div class="value">{{.Stats.SuccessfulRequests}}</div>
                    <div class="subvalue">{{formatPercent .Stats.SuccessRate}}%</div>
                </div>
                <div class="card error">
                    <h3>Failed</h3>
                    <div class="value">{{.Stats.FailedRequests}}</div>
                    <div class="subvalue">{{formatPercent .Stats.ErrorRate}}%</div>
                </div>
                <div class="card">
                    <h3>Tasks/sec</h3>
                    <div class="value">{{formatFloat .Stats.RequestsPerSec}}</div>
                </div>
            </div>

            <!-- Charts Section -->
            {{if .RecentRequests}}
            <div class="section">
                <h2>Recent Task Durations</h2>
                <div class="chart-container">
                    <h3>Response Time (ms)</h3>
                    <div id="duration-chart" class="chart"></div>
                </div>
            </div>
            {{end}}

            <!-- Duration Statistics -->
            <div class="section">
                <h2>Task Duration Statistics</h2>
                <div class="latency-grid">
                    <div class="latency-item">
                        <div class="label">Min</div>
                        <div class="value">{{formatSeconds .Stats.MinResponseTime}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Max</div>
                        <div class="value">{{formatSeconds .Stats.MaxResponseTime}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Mean</div>
                        <div class="value">{{formatSeconds .Stats.AverageResponseTime}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P50</div>
                        <div class="value">{{formatSeconds .Stats.P50ResponseTime}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P90</div>
                        <div class="value">{{formatSeconds .Stats.P90ResponseTime}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P99</div>
                        <div class="value">{{formatSeconds .Stats.P99ResponseTime}}</div>
                    </div>
                </div>
            </div>

            <!-- Thresholds -->
            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Threshold</th>
                            <th>Metric</th>
                            <th>Expected</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold}}</td>
                            <td>{{.Metric}} ({{.Aggregate}})</td>
                            <td>{{.Operator}} {{formatFloat .Expected}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            <!-- Recent Requests -->
            {{if .RecentRequests}}
            <div class="section">
                <h2>Recent Tasks</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Time</th>
                            <th>Task</th>
                            <th>Duration</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .RecentRequests}}
                        <tr>
                            <td>{{formatTime .Timestamp}}</td>
                            <td><strong>{{.Endpoint}}</strong></td>
                            <td>{{formatSeconds .ResponseTime}}</td>
                            <td>
                                {{if .Success}}
                                <span class="badge badge-success">OK</span>
                                {{else}}
                                <span class="badge badge-error">FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            <!-- Recent Errors -->
            {{if .RecentErrors}}
            <div class="section">
                <h2>Recent Errors</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Time</th>
                            <th>Task</th>
                            <th>Error</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .RecentErrors}}
                        <tr>
                            <td>{{formatTime .Timestamp}}</td>
                            <td><strong>{{.Endpoint}}</strong></td>
                            <td>{{.Error}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    {{if .RecentRequests}}
    <script>
        const historyJSON = {{.HistoryJSON}};
        const history = JSON.parse(historyJSON);

        if (history && history.length > 0) {
            // Records arrive newest-first; reverse for a left-to-right timeline.
            const ordered = history.slice().reverse();
            const startTime = new Date(ordered[0].timestamp).getTime();
            const timestamps = ordered.map(d => (new Date(d.timestamp).getTime() - startTime) / 1000);

            const durationData = [
                timestamps,
                ordered.map(d => d.response_time * 1000)
            ];

            new uPlot({
                title: "Task Duration",
                width: document.getElementById('duration-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Time (s)" },
                    {
                        label: "Duration (ms)",
                        stroke: "#667eea",
                        fill: "rgba(102, 126, 234, 0.1)",
                        width: 2
                    }
                ],
                axes: [
                    { label: "Time (seconds)" },
                    { label: "Duration (ms)" }
                ]
            }, durationData, document.getElementById('duration-chart'));
        }
    </script>
    {{end}}
</body>
</html>
`
