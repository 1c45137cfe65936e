package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// DefaultLanguage is used when a template for the requested language is missing.
const DefaultLanguage = "en"

type otpTemplate struct {
	subject string // fmt format: app name
	html    *template.Template
	text    string // fmt format: code, minutes
}

// otpTemplates is keyed by language tag. Only English ships today; other
// languages are added as new entries.
var otpTemplates = map[string]otpTemplate{
	DefaultLanguage: {
		subject: "Your %s verification code",
		html: template.Must(template.New("otp_en").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>{{.AppName}} verification code</title></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background:#f3f4f6;">
  <div style="max-width:480px;margin:0 auto;background:#ffffff;border-radius:12px;padding:32px;">
    <h1 style="margin:0 0 16px;color:#111827;font-size:22px;">{{.AppName}}</h1>
    <p style="color:#374151;font-size:15px;">Use the code below to sign in.</p>
    <p style="font-size:32px;letter-spacing:8px;font-weight:bold;color:#111827;text-align:center;margin:24px 0;">{{.Code}}</p>
    <p style="color:#6b7280;font-size:13px;">This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
    <p style="color:#9ca3af;font-size:12px;margin-top:32px;">&copy; {{.Year}} {{.AppName}}</p>
  </div>
</body>
</html>`)),
		text: "Your %s verification code is %s. It expires in %d minutes.",
	},
}

type otpData struct {
	AppName string
	Code    string
	Minutes int
	Year    int
}

// renderOTP builds the subject, HTML and plain-text bodies for code.
func renderOTP(lang, appName, code string, ttl time.Duration, now time.Time) (subject, html, text string, err error) {
	tpl, ok := otpTemplates[lang]
	if !ok {
		tpl = otpTemplates[DefaultLanguage]
	}
	minutes := int(ttl / time.Minute)
	var buf bytes.Buffer
	if err := tpl.html.Execute(&buf, otpData{AppName: appName, Code: code, Minutes: minutes, Year: now.Year()}); err != nil {
		return "", "", "", fmt.Errorf("render otp email: %w", err)
	}
	return fmt.Sprintf(tpl.subject, appName), buf.String(), fmt.Sprintf(tpl.text, appName, code, minutes), nil
}
