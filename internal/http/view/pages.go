package view

import (
	"bytes"
	"html/template"
)

const baseStyle = `
	:root {
		--bg: #090a0f;
		--card: rgba(255, 255, 255, 0.05);
		--border: rgba(255, 255, 255, 0.15);
		--text: #e7ecff;
		--muted: #a1acc5;
		--accent: #7dd3fc;
		--accent-strong: #38bdf8;
		--danger: #fda4af;
		font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
	}
	* { box-sizing: border-box; }
	body {
		margin: 0;
		min-height: 100vh;
		display: flex;
		align-items: center;
		justify-content: center;
		background: radial-gradient(circle at 20% 20%, #111827, #030712 60%);
		color: var(--text);
	}
	.card {
		background: var(--card);
		border: 1px solid var(--border);
		border-radius: 18px;
		padding: 32px;
		width: min(480px, 92vw);
		box-shadow: 0 45px 100px rgba(0,0,0,0.35);
		backdrop-filter: blur(18px);
	}
	h1 { font-size: 1.5rem; margin-bottom: 6px; }
	p { color: var(--muted); margin-top: 0; }
	.code {
		display: inline-block;
		padding: 2px 8px;
		border-radius: 8px;
		background: rgba(125, 211, 252, 0.07);
		border: 1px solid rgba(125, 211, 252, 0.25);
		font-family: ui-monospace, monospace;
	}
	input[type="password"] {
		width: 100%;
		height: 44px;
		margin: 16px 0;
		padding: 0 14px;
		border-radius: 12px;
		border: 1px solid var(--border);
		background: rgba(255,255,255,0.04);
		color: var(--text);
		font-size: 1rem;
	}
	button, a.button {
		display: inline-flex;
		align-items: center;
		justify-content: center;
		padding: 0 28px;
		height: 44px;
		border: none;
		border-radius: 999px;
		background: linear-gradient(120deg, var(--accent), var(--accent-strong));
		color: #050708;
		font-weight: 600;
		font-size: 1rem;
		text-decoration: none;
		cursor: pointer;
	}
	.retry { color: var(--danger); font-size: 0.9rem; }
`

// ErrorPageData provides the dynamic fields for the terminal error page.
type ErrorPageData struct {
	Title   string
	Heading string
	Message string
	Code    string
}

var errorPageTmpl = template.Must(template.New("error_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Title}}</title>
	<style>` + baseStyle + `</style>
</head>
<body>
	<div class="card">
		<h1>{{.Heading}}</h1>
		{{if .Code}}<p>Short link <span class="code">/{{.Code}}</span></p>{{end}}
		<p>{{.Message}}</p>
	</div>
</body>
</html>
`))

// RenderErrorPage expands the terminal error template.
func RenderErrorPage(data ErrorPageData) (string, error) {
	if data.Title == "" {
		data.Title = "minli"
	}
	return render(errorPageTmpl, data)
}

// PasswordPageData provides the dynamic fields for the password gate.
type PasswordPageData struct {
	Code  string
	Token string
	Retry bool
}

var passwordPageTmpl = template.Must(template.New("password_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>Protected link</title>
	<style>` + baseStyle + `</style>
</head>
<body>
	<div class="card">
		<h1>This link is protected</h1>
		<p>Enter the password to continue to <span class="code">/{{.Code}}</span>.</p>
		{{if .Retry}}<p class="retry">Incorrect password. Please try again.</p>{{end}}
		<form method="POST" action="/{{.Code}}">
			{{if .Token}}<input type="hidden" name="token" value="{{.Token}}" />{{end}}
			<input type="password" name="password" placeholder="Password" autofocus required />
			<button type="submit">Unlock</button>
		</form>
	</div>
</body>
</html>
`))

// RenderPasswordPage expands the password gate template.
func RenderPasswordPage(data PasswordPageData) (string, error) {
	return render(passwordPageTmpl, data)
}

var appShellTmpl = template.Must(template.New("app_shell").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>minli</title>
	<style>` + baseStyle + `</style>
</head>
<body>
	<div class="card">
		<h1>minli</h1>
		<p>Short links, minus the noise.</p>
		<div id="root"></div>
	</div>
</body>
</html>
`))

// RenderAppShell serves the frontend shell for codes we don't recognize;
// routing from here on is the SPA's business.
func RenderAppShell() (string, error) {
	return render(appShellTmpl, nil)
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
