// Package handler provides HTTP request handlers for LinkGate.
package handler

import (
	"bytes"
	"html/template"
	"net/http"
)

const pageLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex, nofollow">
<title>{{.Title}}</title>
<style>
body{font-family:Arial,Helvetica,sans-serif;margin:0;padding:40px 16px;background:#f5f5f5;color:#222;text-align:center}
main{max-width:420px;margin:0 auto;background:#fff;border-radius:8px;padding:32px 24px;box-shadow:0 1px 4px rgba(0,0,0,.1)}
input[type=text]{font-size:24px;letter-spacing:6px;text-align:center;width:180px;padding:8px;margin:16px 0}
button{font-size:16px;padding:10px 24px;border:0;border-radius:4px;background:#25d366;color:#fff;cursor:pointer}
.error{color:#b00020}
.muted{color:#666;font-size:14px}
</style>
</head>
<body>
<main>
{{template "content" .}}
</main>
</body>
</html>`

const challengeContent = `{{define "content"}}
<h2>Verification required</h2>
<p>This link was already opened. We sent a 6-digit code to the contact the link was issued for.</p>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/verify">
<input type="hidden" name="secret" value="{{.Secret}}">
<input type="hidden" name="resource_id" value="{{.ResourceID}}">
<input type="text" name="code" inputmode="numeric" autocomplete="one-time-code" pattern="[0-9]{6}" maxlength="6" required autofocus>
<br>
<button type="submit">Verify</button>
</form>
<p class="muted">The code expires in {{.CodeMinutes}} minutes.{{if .AttemptsRemaining}} {{.AttemptsRemaining}} attempts remaining.{{end}}</p>
{{end}}`

const deniedContent = `{{define "content"}}
<h2>Link unavailable</h2>
<p>This link is invalid or has expired.</p>
<p class="muted">Please request a new link.</p>
{{end}}`

const unavailableContent = `{{define "content"}}
<h2>Temporarily unavailable</h2>
<p>Something went wrong on our side. Please try again shortly.</p>
{{end}}`

var (
	challengeTmpl   = template.Must(template.Must(template.New("layout").Parse(pageLayout)).Parse(challengeContent))
	deniedTmpl      = template.Must(template.Must(template.New("layout").Parse(pageLayout)).Parse(deniedContent))
	unavailableTmpl = template.Must(template.Must(template.New("layout").Parse(pageLayout)).Parse(unavailableContent))
)

// challengePage is the data for the challenge template.
type challengePage struct {
	Title             string
	Secret            string
	ResourceID        string
	Error             string
	AttemptsRemaining int
	CodeMinutes       int
}

type simplePage struct {
	Title string
}

// renderPage writes an HTML page. Pages are never cached and never indexed.
func (h *Handler) renderPage(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	setPageHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func setPageHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
