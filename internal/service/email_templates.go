package service

import (
	"bytes"
	"html/template"
)

const (
	verificationSubject  = "Verify your email address"
	passwordResetSubject = "Reset your password"
)

var codeEmailTmpl = template.Must(template.New("code_email").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <style>
    body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .container { background: #f9f9f9; padding: 30px; border-radius: 10px; border: 1px solid #e1e1e1; }
    .code { font-size: 32px; font-weight: bold; color: {{.Color}}; text-align: center; padding: 20px; background: #fff; border-radius: 8px; border: 2px dashed {{.Color}}; margin: 20px 0; letter-spacing: 4px; }
    .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #e1e1e1; font-size: 14px; color: #666; }
  </style>
</head>
<body>
  <div class="container">
    <h1>{{.Title}}</h1>
    <p>Hi {{.Name}}, {{.Intro}}</p>
    <div class="code">{{.Code}}</div>
    <p>The code expires in <strong>10 minutes</strong>.</p>
    <div class="footer">
      <p>{{.Footer}}</p>
      <p>This message was sent automatically, please do not reply.</p>
    </div>
  </div>
</body>
</html>`))

type codeEmailData struct {
	Title  string
	Name   string
	Intro  string
	Code   string
	Color  string
	Footer string
}

func renderCodeEmail(data codeEmailData) string {
	var buf bytes.Buffer
	if err := codeEmailTmpl.Execute(&buf, data); err != nil {
		return data.Code
	}
	return buf.String()
}

func verificationEmailHTML(name, code string) string {
	return renderCodeEmail(codeEmailData{
		Title:  "Email verification",
		Name:   name,
		Intro:  "use the code below to verify your email address.",
		Code:   code,
		Color:  "#007bff",
		Footer: "If you did not sign up, please ignore this email.",
	})
}

func passwordResetEmailHTML(name, code string) string {
	return renderCodeEmail(codeEmailData{
		Title:  "Password reset",
		Name:   name,
		Intro:  "use the code below to reset your password.",
		Code:   code,
		Color:  "#dc3545",
		Footer: "If you did not request a password reset, please ignore this email.",
	})
}
