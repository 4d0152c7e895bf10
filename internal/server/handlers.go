// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, the stats endpoint and the built-in canvas test page.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// ServeWS upgrades a GET request to a WebSocket and hands the new client to
// the hub, which starts its pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, h, r.RemoteAddr)
	if !submit(h, h.register, client) {
		log.Printf("Hub stopped; closing connection from %s", r.RemoteAddr)
		if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing rejected connection: %v", err)
		}
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Paint server is running!")
}

// StatsHandler reports connection, participant and stroke counts as JSON.
func (h *Hub) StatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	stats, err := h.Stats(ctx)
	if err != nil {
		http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Printf("Error writing stats response: %v", err)
	}
}

// TestPageHandler serves a minimal shared canvas with chat that speaks the
// paint protocol against /ws on the same host.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPage); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>Paint WebSocket Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        canvas { border: 1px solid #ccc; background: #fff; cursor: crosshair; }
        #chat { border: 1px solid #ccc; height: 200px; width: 600px; overflow-y: scroll; padding: 5px; }
        .status { margin: 10px 0; padding: 5px; }
    </style>
</head>
<body>
    <h1>Paint WebSocket Test</h1>
    <div id="status" class="status">Disconnected</div>
    <div>
        <input type="text" id="name" placeholder="Username">
        <button onclick="join()">Join</button>
        <button onclick="send('RESET:')">Reset</button>
        <span id="users"></span>
    </div>
    <canvas id="canvas" width="600" height="400"></canvas>
    <div id="chat"></div>
    <input type="text" id="line" placeholder="Say something..." size="60">

    <script>
        const canvas = document.getElementById('canvas');
        const ctx = canvas.getContext('2d');
        const chat = document.getElementById('chat');
        const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
        let last = null;

        function send(text) { ws.send(text); }
        function log(text) {
            const el = document.createElement('div');
            el.textContent = text;
            chat.appendChild(el);
            chat.scrollTop = chat.scrollHeight;
        }
        function stroke(op) {
            const p = op.split(' ').map(Number);
            if (p.length !== 4) { return; }
            ctx.beginPath();
            ctx.moveTo(p[0], p[1]);
            ctx.lineTo(p[2], p[3]);
            ctx.stroke();
        }
        function join() { send('USERNAME:' + document.getElementById('name').value); }

        ws.onopen = function() {
            document.getElementById('status').textContent = 'Connected';
            send('GETBUFFER');
        };
        ws.onclose = function() { document.getElementById('status').textContent = 'Disconnected'; };
        ws.onmessage = function(event) {
            const i = event.data.indexOf(':');
            const header = i < 0 ? event.data : event.data.slice(0, i);
            const payload = i < 0 ? '' : event.data.slice(i + 1);
            switch (header) {
            case 'PAINTBUFFER': JSON.parse(payload).forEach(stroke); break;
            case 'PAINT': stroke(payload); break;
            case 'RESET': ctx.clearRect(0, 0, canvas.width, canvas.height); log(payload + ' cleared the canvas'); break;
            case 'USERS': document.getElementById('users').textContent = payload + ' painting'; break;
            case 'CHAT': log(payload); break;
            default: log(event.data);
            }
        };

        canvas.onmousedown = function(e) { last = [e.offsetX, e.offsetY]; };
        canvas.onmouseup = function() { last = null; };
        canvas.onmousemove = function(e) {
            if (!last) { return; }
            send('PAINT:' + [last[0], last[1], e.offsetX, e.offsetY].join(' '));
            last = [e.offsetX, e.offsetY];
        };
        document.getElementById('line').addEventListener('keypress', function(e) {
            if (e.key === 'Enter' && this.value.trim()) {
                send('CHAT:' + this.value);
                this.value = '';
            }
        });
    </script>
</body>
</html>`
