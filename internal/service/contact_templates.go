package service

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/wilkieco/contact-api/internal/dto"
)

// scrubPolicy strips any markup from submitter text before it is embedded
// in the email documents. The pipeline sanitizer already removed dangerous
// elements; this guards the mail clients of whoever reads the notification.
var scrubPolicy = bluemonday.StrictPolicy()

type emailContext struct {
	Name       string
	Email      string
	Phone      string
	Message    template.HTML
	ReceivedAt string
}

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>New Contact Form Submission</title>
    <style>
      body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
      .container { max-width: 600px; margin: 0 auto; padding: 20px; }
      .header { background-color: #f4f4f4; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
      .field { margin-bottom: 15px; }
      .label { font-weight: bold; color: #555; }
      .message { background-color: #f9f9f9; padding: 15px; border-left: 4px solid #007cba; border-radius: 3px; }
      .timestamp { color: #64748b; font-size: 13px; margin-top: 20px; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header">
        <h2>New Contact Form Submission</h2>
      </div>
      <div class="field">
        <div class="label">Name:</div>
        <div>{{.Name}}</div>
      </div>
      {{if .Email}}
      <div class="field">
        <div class="label">Email:</div>
        <div><a href="mailto:{{.Email}}">{{.Email}}</a></div>
      </div>
      {{end}}
      {{if .Phone}}
      <div class="field">
        <div class="label">Phone:</div>
        <div><a href="tel:{{.Phone}}">{{.Phone}}</a></div>
      </div>
      {{end}}
      <div class="field">
        <div class="label">Message:</div>
        <div class="message">{{.Message}}</div>
      </div>
      <div class="timestamp">Received: {{.ReceivedAt}}</div>
    </div>
  </body>
</html>`))

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>We received your enquiry</title>
    <style>
      body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
      .container { max-width: 600px; margin: 0 auto; padding: 20px; }
      .message { background-color: #f9f9f9; padding: 15px; border-left: 4px solid #007cba; border-radius: 3px; }
    </style>
  </head>
  <body>
    <div class="container">
      <h2>Thanks for getting in touch, {{.Name}}</h2>
      <p>We have received your enquiry and will respond as soon as possible.
      For reference, here is a copy of your message:</p>
      <div class="message">{{.Message}}</div>
      <p>If anything needs correcting, just reply to this email.</p>
    </div>
  </body>
</html>`))

func renderNotification(data dto.ContactFormData) (string, error) {
	return renderEmail(notificationTemplate, data)
}

func renderConfirmation(data dto.ContactFormData) (string, error) {
	return renderEmail(confirmationTemplate, data)
}

func renderEmail(tmpl *template.Template, data dto.ContactFormData) (string, error) {
	ctx := emailContext{
		Name:       data.Name,
		Email:      data.Email,
		Phone:      data.Phone,
		Message:    messageHTML(data.Message),
		ReceivedAt: time.Now().UTC().Format("Monday, 2 January 2006 15:04 MST"),
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("execute %s template: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

// messageHTML scrubs the free-text message and converts newlines to line
// breaks. The scrubbed text is safe to mark as HTML; everything else in the
// templates goes through contextual auto-escaping.
func messageHTML(message string) template.HTML {
	scrubbed := scrubPolicy.Sanitize(message)
	scrubbed = strings.ReplaceAll(scrubbed, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(scrubbed, "\n", "<br>"))
}
