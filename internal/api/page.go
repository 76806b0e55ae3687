package api

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

// handleIndex serves the self-contained dashboard page. The page polls
// /api/dashboard on the configured interval; no assets are served separately.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		PollMillis int64
	}{
		PollMillis: s.pollInterval.Milliseconds(),
	}
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("dashboard page render failed", zap.Error(err))
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>AgentPulse Dashboard</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            padding: 20px;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 24px 32px;
            border-radius: 8px;
            margin-bottom: 20px;
        }
        header h1 { font-size: 1.6rem; }
        header .meta { opacity: 0.9; font-size: 0.85rem; margin-top: 4px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 16px;
            margin-bottom: 24px;
        }
        .card {
            background: white;
            border-radius: 8px;
            padding: 16px;
            border-left: 4px solid #667eea;
            box-shadow: 0 1px 4px rgba(0,0,0,0.08);
        }
        .card h3 {
            font-size: 0.8rem;
            color: #6c757d;
            text-transform: uppercase;
            margin-bottom: 8px;
        }
        .card .value { font-size: 1.7rem; font-weight: bold; }
        .card.success { border-left-color: #10b981; }
        .card.error { border-left-color: #ef4444; }
        .section {
            background: white;
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 20px;
            box-shadow: 0 1px 4px rgba(0,0,0,0.08);
        }
        .section h2 {
            font-size: 1.1rem;
            margin-bottom: 12px;
            padding-bottom: 8px;
            border-bottom: 1px solid #e5e7eb;
        }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #e5e7eb; font-size: 0.9rem; }
        th { color: #6c757d; text-transform: uppercase; font-size: 0.75rem; }
        .badge {
            display: inline-block;
            padding: 2px 10px;
            border-radius: 10px;
            font-size: 0.8rem;
            font-weight: 600;
        }
        .badge-ok { background: #d1fae5; color: #065f46; }
        .badge-fail { background: #fee2e2; color: #991b1b; }
        .empty { color: #6c757d; font-style: italic; padding: 12px 0; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>⚡ AgentPulse Dashboard</h1>
            <div class="meta">Auto-refreshing every {{.PollMillis}} ms | <span id="updated">waiting for data...</span></div>
        </header>

        <div class="grid">
            <div class="card"><h3>Total Tasks</h3><div class="value" id="total">0</div></div>
            <div class="card success"><h3>Successful</h3><div class="value" id="successful">0</div></div>
            <div class="card error"><h3>Failed</h3><div class="value" id="failed">0</div></div>
            <div class="card"><h3>Success Rate</h3><div class="value" id="success-rate">-</div></div>
            <div class="card"><h3>Avg Duration</h3><div class="value" id="avg">-</div></div>
            <div class="card"><h3>Tasks/sec</h3><div class="value" id="tps">-</div></div>
        </div>

        <div class="section">
            <h2>Recent Tasks</h2>
            <table>
                <thead><tr><th>Time</th><th>Task</th><th>Duration</th><th>Status</th></tr></thead>
                <tbody id="recent-requests"><tr><td colspan="4" class="empty">No tasks yet</td></tr></tbody>
            </table>
        </div>

        <div class="section">
            <h2>Recent Errors</h2>
            <table>
                <thead><tr><th>Time</th><th>Task</th><th>Error</th></tr></thead>
                <tbody id="recent-errors"><tr><td colspan="3" class="empty">No errors</td></tr></tbody>
            </table>
        </div>
    </div>

    <script>
        const pollMillis = {{.PollMillis}};

        function fmtMs(seconds) {
            return (seconds * 1000).toFixed(1) + ' ms';
        }

        function fmtTime(ts) {
            return new Date(ts).toLocaleTimeString();
        }

        async function refresh() {
            try {
                const res = await fetch('/api/dashboard');
                const body = await res.json();
                if (body.status !== 'success') return;
                const m = body.data.metrics;

                document.getElementById('total').textContent = m.total_requests;
                document.getElementById('successful').textContent = m.successful_requests;
                document.getElementById('failed').textContent = m.failed_requests;
                document.getElementById('success-rate').textContent = (m.success_rate * 100).toFixed(1) + '%';
                document.getElementById('avg').textContent = fmtMs(m.average_response_time);
                document.getElementById('tps').textContent = m.requests_per_sec.toFixed(2);
                document.getElementById('updated').textContent = 'updated ' + new Date().toLocaleTimeString();

                const reqBody = document.getElementById('recent-requests');
                const reqs = body.data.recent_requests || [];
                if (reqs.length === 0) {
                    reqBody.innerHTML = '<tr><td colspan="4" class="empty">No tasks yet</td></tr>';
                } else {
                    reqBody.innerHTML = reqs.map(r =>
                        '<tr><td>' + fmtTime(r.timestamp) + '</td><td>' + r.endpoint +
                        '</td><td>' + fmtMs(r.response_time) + '</td><td><span class="badge ' +
                        (r.success ? 'badge-ok">OK' : 'badge-fail">FAIL') + '</span></td></tr>'
                    ).join('');
                }

                const errBody = document.getElementById('recent-errors');
                const errs = body.data.recent_errors || [];
                if (errs.length === 0) {
                    errBody.innerHTML = '<tr><td colspan="3" class="empty">No errors</td></tr>';
                } else {
                    errBody.innerHTML = errs.map(e =>
                        '<tr><td>' + fmtTime(e.timestamp) + '</td><td>' + e.endpoint +
                        '</td><td>' + e.error + '</td></tr>'
                    ).join('');
                }
            } catch (err) {
                document.getElementById('updated').textContent = 'refresh failed';
            }
        }

        refresh();
        setInterval(refresh, pollMillis);
    </script>
</body>
</html>
`))
