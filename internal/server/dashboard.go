package server

import "net/http"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>startrails</title>
    <style>
        :root {
            --bg-primary: #0f172a;
            --bg-secondary: #1e293b;
            --text-primary: #f8fafc;
            --text-secondary: #cbd5e1;
            --accent: #3b82f6;
            --success: #10b981;
            --warning: #f59e0b;
            --error: #ef4444;
            --border: #475569;
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: var(--bg-primary); color: var(--text-primary); }
        .header { background: var(--bg-secondary); padding: 1rem 2rem; border-bottom: 1px solid var(--border); }
        .logo { font-size: 1.5rem; font-weight: bold; color: var(--accent); }
        main { display: grid; grid-template-columns: 2fr 1fr; gap: 1.5rem; padding: 1.5rem 2rem; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid var(--border); font-size: 0.9rem; }
        th { color: var(--text-secondary); }
        .completed { color: var(--success); }
        .running, .queued { color: var(--warning); }
        .failed { color: var(--error); }
        #events { font-family: monospace; font-size: 0.8rem; color: var(--text-secondary); max-height: 70vh; overflow-y: auto; }
        a { color: var(--accent); }
    </style>
</head>
<body>
    <div class="header"><span class="logo">startrails</span></div>
    <main>
        <section>
            <h3>Runs</h3>
            <table>
                <thead><tr><th>ID</th><th>Status</th><th>Inputs</th><th>Output</th><th>Error</th></tr></thead>
                <tbody id="runs"></tbody>
            </table>
        </section>
        <section>
            <h3>Live</h3>
            <div id="events"></div>
        </section>
    </main>
    <script>
        async function loadRuns() {
            const res = await fetch('/api/runs?limit=25');
            const runs = await res.json();
            const body = document.getElementById('runs');
            body.innerHTML = '';
            for (const run of runs) {
                const tr = document.createElement('tr');
                for (const v of [run.id, run.status, (run.inputs || []).join(' '), run.output_dir, run.error || '']) {
                    const td = document.createElement('td');
                    td.textContent = v;
                    tr.appendChild(td);
                }
                tr.children[1].className = run.status;
                body.appendChild(tr);
            }
        }
        function connect() {
            const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            const ws = new WebSocket(proto + location.host + '/ws');
            ws.onmessage = (msg) => {
                const ev = JSON.parse(msg.data);
                const line = document.createElement('div');
                let text = ev.kind + ' ' + ev.job_id;
                if (ev.progress) text += ' ' + ev.progress.phase + ' ' + (ev.progress.index + 1) + '/' + ev.progress.total;
                if (ev.error) text += ' ' + ev.error;
                line.textContent = text;
                const box = document.getElementById('events');
                box.prepend(line);
                if (ev.kind !== 'progress') loadRuns();
            };
            ws.onclose = () => setTimeout(connect, 2000);
        }
        loadRuns();
        connect();
    </script>
</body>
</html>`
