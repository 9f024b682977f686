package webui

import (
	"html/template"
	"time"

	"github.com/smartfactory/smartfactory/internal/types"
)

// PageData feeds the dashboard template
type PageData struct {
	Version     string
	Commit      string
	Uptime      string
	WSPath      string
	Generator   GeneratorInfo
	Devices     DeviceSummary
	Alerts      []types.Alert
	Logs        []LogEntry
	GeneratedAt time.Time
}

// GeneratorInfo mirrors the generator status
type GeneratorInfo struct {
	Enabled   bool
	MaxAlerts int
}

// DeviceSummary mirrors the factory stats
type DeviceSummary struct {
	Total      int
	Running    int
	Errors     int
	Efficiency int
}

// Templates contains the dashboard page
var Templates = template.Must(template.New("").Funcs(template.FuncMap{
	"levelClass": func(level string) string {
		switch level {
		case "error", "fatal":
			return "log-error"
		case "warn":
			return "log-warn"
		case "debug":
			return "log-debug"
		default:
			return "log-info"
		}
	},
	"severityClass": func(s types.Severity) string {
		return "sev-" + string(s)
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"clock": func(t time.Time) string {
		return t.Local().Format("15:04:05")
	},
}).Parse(`
{{define "base"}}
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Smart Factory Monitor</title>
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --bg-tertiary: #21262d;
            --border-color: #30363d;
            --text-primary: #e6edf3;
            --text-secondary: #8b949e;
            --accent: #58a6ff;
            --ok: #3fb950;
            --warn: #d29922;
            --err: #f85149;
            --idle: #6e7681;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: system-ui, -apple-system, "Segoe UI", sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            min-height: 100vh;
        }
        header {
            display: flex; align-items: center; justify-content: space-between;
            padding: 16px 24px; border-bottom: 1px solid var(--border-color);
            background: var(--bg-secondary);
        }
        header h1 { font-size: 20px; font-weight: 600; }
        header .meta { color: var(--text-secondary); font-size: 13px; }
        main { display: grid; grid-template-columns: 2fr 1fr; gap: 16px; padding: 16px 24px; }
        .card {
            background: var(--bg-secondary); border: 1px solid var(--border-color);
            border-radius: 8px; padding: 16px;
        }
        .card h2 { font-size: 15px; margin-bottom: 12px; color: var(--text-secondary); }
        .stats { display: grid; grid-template-columns: repeat(4, 1fr); gap: 12px; margin-bottom: 16px; }
        .stat { background: var(--bg-tertiary); border-radius: 6px; padding: 12px; }
        .stat .value { font-size: 24px; font-weight: 600; }
        .stat .label { font-size: 12px; color: var(--text-secondary); }
        #floor { width: 100%; height: 600px; background: var(--bg-tertiary); border-radius: 6px; }
        #floor .area { fill: rgba(88,166,255,0.08); stroke: var(--accent); stroke-width: 1.5; }
        #floor .area.warning { stroke: var(--warn); }
        #floor .area.error { stroke: var(--err); }
        #floor .area-label { fill: var(--text-primary); font-size: 12px; }
        #floor .link { fill: none; stroke-width: 2.5; stroke-dasharray: 8 6; animation: flow 1.2s linear infinite; }
        #floor .link.material { stroke: #52c41a; }
        #floor .link.product { stroke: #1890ff; }
        #floor .link.equipment { stroke: #722ed1; }
        #floor .device.running { fill: var(--ok); }
        #floor .device.idle { fill: var(--idle); }
        #floor .device.warning { fill: var(--warn); }
        #floor .device.error { fill: var(--err); }
        #floor .device.alerting { stroke: var(--err); stroke-width: 3; }
        @keyframes flow { to { stroke-dashoffset: -28; } }
        .controls { display: flex; gap: 8px; margin-bottom: 12px; align-items: center; }
        button {
            background: var(--bg-tertiary); color: var(--text-primary);
            border: 1px solid var(--border-color); border-radius: 6px;
            padding: 6px 12px; cursor: pointer; font-size: 13px;
        }
        button:hover { border-color: var(--accent); }
        .badge { font-size: 12px; padding: 2px 8px; border-radius: 10px; background: var(--bg-tertiary); }
        .badge.on { color: var(--ok); }
        .badge.off { color: var(--text-secondary); }
        #alerts { list-style: none; max-height: 360px; overflow-y: auto; }
        #alerts li {
            padding: 8px 10px; border-left: 3px solid var(--idle);
            background: var(--bg-tertiary); border-radius: 4px; margin-bottom: 6px; font-size: 13px;
        }
        #alerts li.sev-info { border-color: var(--accent); }
        #alerts li.sev-warning { border-color: var(--warn); }
        #alerts li.sev-error { border-color: var(--err); }
        #alerts .when { color: var(--text-secondary); font-size: 11px; }
        .logs {
            font-family: ui-monospace, "JetBrains Mono", monospace; font-size: 12px;
            max-height: 260px; overflow-y: auto; background: var(--bg-primary);
            border-radius: 4px; padding: 8px;
        }
        .log-error { color: var(--err); }
        .log-warn { color: var(--warn); }
        .log-debug { color: var(--text-secondary); }
        .log-info { color: var(--text-primary); }
        .ws-state { font-size: 12px; color: var(--text-secondary); }
    </style>
</head>
<body>
<header>
    <h1>Smart Factory Monitor</h1>
    <div class="meta">{{.Version}} ({{.Commit}}) &middot; up {{.Uptime}} &middot; <span id="ws-state" class="ws-state">connecting</span></div>
</header>
<main>
    <section>
        <div class="stats">
            <div class="stat"><div class="value" id="stat-total">{{.Devices.Total}}</div><div class="label">Devices</div></div>
            <div class="stat"><div class="value" id="stat-running">{{.Devices.Running}}</div><div class="label">Running</div></div>
            <div class="stat"><div class="value" id="stat-errors">{{.Devices.Errors}}</div><div class="label">Faulted</div></div>
            <div class="stat"><div class="value" id="stat-eff">{{.Devices.Efficiency}}%</div><div class="label">Efficiency</div></div>
        </div>
        <div class="card">
            <h2>Floor plan</h2>
            <svg id="floor" viewBox="0 0 1200 600" preserveAspectRatio="xMinYMin meet"></svg>
        </div>
    </section>
    <aside>
        <div class="card">
            <h2>Alerts</h2>
            <div class="controls">
                <button id="gen-start">Start generator</button>
                <button id="gen-stop">Stop</button>
                <button id="gen-clear">Clear all</button>
                <span id="gen-state" class="badge {{if .Generator.Enabled}}on{{else}}off{{end}}">{{if .Generator.Enabled}}running{{else}}stopped{{end}}</span>
            </div>
            <ul id="alerts">
            {{range .Alerts}}
                <li class="{{severityClass .Severity}}" data-id="{{.ID}}" data-device="{{deref .DeviceRef}}">
                    <div>{{.Message}}</div>
                    <div class="when">{{clock .OccurredAt}} &middot; {{.Severity}}{{with deref .AreaRef}} &middot; {{.}}{{end}}</div>
                </li>
            {{end}}
            </ul>
        </div>
        <div class="card" style="margin-top:16px">
            <h2>Service log</h2>
            <div class="logs">
            {{range .Logs}}
                <div class="{{levelClass .Level}}">{{clock .Timestamp}} {{.Level}} {{with .Component}}[{{.}}] {{end}}{{.Message}}</div>
            {{end}}
            </div>
        </div>
    </aside>
</main>
<script>
(function () {
    const svgNS = "http://www.w3.org/2000/svg";
    const floor = document.getElementById("floor");
    const list = document.getElementById("alerts");
    const wsState = document.getElementById("ws-state");
    const genState = document.getElementById("gen-state");
    const maxAlerts = {{.Generator.MaxAlerts}};

    function el(name, attrs, text) {
        const n = document.createElementNS(svgNS, name);
        for (const k in attrs) n.setAttribute(k, attrs[k]);
        if (text) n.textContent = text;
        return n;
    }

    function drawLayout(layout) {
        floor.innerHTML = "";
        for (const c of layout.connections) {
            floor.appendChild(el("path", { d: c.path, class: "link " + c.type }));
        }
        for (const a of layout.areas) {
            floor.appendChild(el("rect", {
                x: a.rect.x, y: a.rect.y, width: a.rect.width, height: a.rect.height,
                rx: 6, class: "area " + a.status
            }));
            floor.appendChild(el("text", { x: a.rect.x + 8, y: a.rect.y + 18, class: "area-label" }, a.name));
            for (const d of a.devices) {
                const dot = el("circle", { cx: d.at.x, cy: d.at.y, r: 7, class: "device " + d.status, "data-id": d.id });
                dot.appendChild(el("title", {}, d.name + " (" + d.status + ")"));
                floor.appendChild(dot);
            }
        }
        markAlerting();
    }

    function markAlerting() {
        const ids = new Set();
        for (const li of list.children) if (li.dataset.device) ids.add(li.dataset.device);
        floor.querySelectorAll(".device").forEach(function (d) {
            d.classList.toggle("alerting", ids.has(d.getAttribute("data-id")));
        });
    }

    function api(method, path) {
        return fetch(path, { method: method }).then(function (r) { return r.json(); });
    }

    function refreshLayout() {
        api("GET", "/api/factory/layout").then(function (res) { if (res.code === 200) drawLayout(res.data); });
    }

    function refreshStats() {
        api("GET", "/api/stats").then(function (res) {
            if (res.code !== 200) return;
            document.getElementById("stat-total").textContent = res.data.totalDevices;
            document.getElementById("stat-running").textContent = res.data.runningDevices;
            document.getElementById("stat-errors").textContent = res.data.errorDevices;
            document.getElementById("stat-eff").textContent = res.data.efficiency + "%";
        });
    }

    function setGenerator(on) {
        genState.textContent = on ? "running" : "stopped";
        genState.className = "badge " + (on ? "on" : "off");
    }

    function addAlert(a) {
        const li = document.createElement("li");
        li.className = "sev-" + a.severity;
        li.dataset.id = a.id;
        li.dataset.device = a.deviceId || "";
        const msg = document.createElement("div");
        msg.textContent = a.message;
        const when = document.createElement("div");
        when.className = "when";
        when.textContent = new Date(a.occurredAt).toLocaleTimeString() + " · " + a.severity + (a.areaId ? " · " + a.areaId : "");
        li.appendChild(msg);
        li.appendChild(when);
        list.insertBefore(li, list.firstChild);
        while (list.children.length > maxAlerts) list.removeChild(list.lastChild);
        markAlerting();
    }

    function removeAlert(id) {
        const li = list.querySelector('li[data-id="' + id + '"]');
        if (li) li.remove();
        markAlerting();
    }

    function connect() {
        const proto = location.protocol === "https:" ? "wss://" : "ws://";
        const ws = new WebSocket(proto + location.host + "{{.WSPath}}");
        ws.onopen = function () { wsState.textContent = "live"; };
        ws.onclose = function () {
            wsState.textContent = "reconnecting";
            setTimeout(connect, 3000);
        };
        ws.onmessage = function (ev) {
            const msg = JSON.parse(ev.data);
            switch (msg.event) {
            case "new-alert": addAlert(msg.data); break;
            case "alert-deleted": removeAlert(msg.data); break;
            case "alerts-cleared": list.innerHTML = ""; markAlerting(); break;
            }
        };
    }

    document.getElementById("gen-start").onclick = function () {
        api("POST", "/api/alerts/generator/start").then(function () { setGenerator(true); });
    };
    document.getElementById("gen-stop").onclick = function () {
        api("POST", "/api/alerts/generator/stop").then(function () { setGenerator(false); });
    };
    document.getElementById("gen-clear").onclick = function () {
        api("DELETE", "/api/alerts/generator/clear");
    };

    refreshLayout();
    setInterval(refreshLayout, 5000);
    setInterval(refreshStats, 5000);
    connect();
})();
</script>
</body>
</html>
{{end}}
`))
