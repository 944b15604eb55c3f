package system

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Blindtools API</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #222; }
  h1 { border-bottom: 2px solid #eee; padding-bottom: .4rem; }
  table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
  th, td { border: 1px solid #ddd; padding: .45rem .6rem; text-align: left; font-size: .92rem; }
  th { background: #f7f7f7; }
  code { background: #f2f2f2; padding: .1rem .3rem; border-radius: 3px; }
</style>
</head>
<body>
<h1>Blindtools API</h1>
<p>Every endpoint returns a uniform JSON envelope:
<code>{"success": true, ..., "timestamp": "ISO8601"}</code> on success and
<code>{"success": false, "error": "..."}</code> on failure. Image endpoints
accept a multipart file field (<code>image</code>, batch: <code>images</code>)
or a base64 string with an optional <code>data:image/...;base64,</code> prefix.</p>

<h2>Chat and vision</h2>
<table>
<tr><th>Endpoint</th><th>Required</th><th>Options</th></tr>
<tr><td><code>POST /chat</code></td><td>message</td><td>model, provider, max_tokens, temperature</td></tr>
<tr><td><code>POST /ocr</code></td><td>image</td><td>language, provider, extract_tables</td></tr>
<tr><td><code>POST /ocr/batch</code></td><td>1&ndash;10 images</td><td>language, provider, extract_tables</td></tr>
<tr><td><code>POST /describe-image</code></td><td>image</td><td>detail_level: brief | detailed | accessibility | standard</td></tr>
<tr><td><code>POST /analyze-image</code></td><td>image</td><td>analysis_type: general | objects | text | colors | scene, max_tokens, temperature</td></tr>
<tr><td><code>POST /analyze-image/batch</code></td><td>1&ndash;10 images</td><td>analysis_type, provider, max_tokens, temperature</td></tr>
<tr><td><code>POST /classify-image</code></td><td>image</td><td>categories (comma separated)</td></tr>
<tr><td><code>POST /compare-images</code></td><td>exactly 2 images</td><td>comparison_type: general | differences | similarities</td></tr>
<tr><td><code>POST /tts</code></td><td>text</td><td>voice</td></tr>
</table>

<h2>Messaging</h2>
<table>
<tr><th>Endpoint</th><th>Required</th><th>Notes</th></tr>
<tr><td><code>POST /send-text</code></td><td>number, message</td><td>isGroup selects a group destination; 503 until the session is ready</td></tr>
<tr><td><code>POST /send-buttons</code></td><td>number, message, buttons</td><td>buttons: [{id, body}]</td></tr>
<tr><td><code>GET /session/status</code></td><td>&mdash;</td><td>session state machine readout</td></tr>
<tr><td><code>GET /session/qr</code></td><td>&mdash;</td><td>pending QR payload while awaiting authentication</td></tr>
</table>

<h2>Operational</h2>
<table>
<tr><th>Endpoint</th><th>Notes</th></tr>
<tr><td><code>GET /health</code></td><td>liveness, version, uptime</td></tr>
<tr><td><code>GET /models</code></td><td>configured providers and recognized option values</td></tr>
<tr><td><code>GET /stats</code></td><td>process gauges and request counters</td></tr>
<tr><td><code>GET /ws</code></td><td>websocket live chat relay</td></tr>
</table>
</body>
</html>
`
