package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"NewsDigest/internal/domain"
)

// TemplateData is everything an issue email needs.
type TemplateData struct {
	Issue          domain.NewsletterIssue
	Articles       []domain.Article
	UnsubscribeURL string
}

const emailDateLayout = "Monday, January 2, 2006"

var funcs = map[string]any{
	"body":       Body,
	"categories": func(tags []string) string { return strings.Join(tags, ", ") },
	"date":       func(d domain.NewsletterIssue) string { return d.CreatedAt.Format(emailDateLayout) },
}

const htmlSource = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Issue.Title}}</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.5; color: #1f2937; max-width: 600px; margin: 0 auto; padding: 20px;">
  <header style="margin-bottom: 32px; padding-bottom: 16px; border-bottom: 2px solid #2563eb;">
    <h1 style="margin: 0; font-size: 24px; color: #111827;">AI News Digest</h1>
    <p style="margin: 8px 0 0 0; font-size: 14px; color: #6b7280;">Issue #{{.Issue.IssueNumber}} | {{date .Issue}}</p>
  </header>
  <main>
    <h2 style="margin: 0 0 24px 0; font-size: 20px; color: #111827;">{{.Issue.Title}}</h2>
{{- range .Articles}}
    <div style="margin-bottom: 24px; padding-bottom: 24px; border-bottom: 1px solid #e5e7eb;">
      <h2 style="margin: 0 0 8px 0; font-size: 18px; color: #111827;">
        {{if .OriginalURL}}<a href="{{.OriginalURL}}" style="color: #2563eb; text-decoration: none;">{{.Title}}</a>{{else}}{{.Title}}{{end}}
      </h2>
      <p style="margin: 0 0 8px 0; font-size: 12px; color: #6b7280;">
        Source: {{.Source}}{{if .Categories}} | {{categories .Categories}}{{end}}
      </p>
      <p style="margin: 0; font-size: 14px; color: #374151; line-height: 1.6;">{{body .}}</p>
    </div>
{{- end}}
  </main>
  <footer style="margin-top: 32px; padding-top: 16px; border-top: 1px solid #e5e7eb; font-size: 12px; color: #6b7280;">
    <p style="margin: 0 0 8px 0;">You're receiving this because you subscribed to AI News Digest.</p>
    <p style="margin: 0;"><a href="{{.UnsubscribeURL}}" style="color: #6b7280;">Unsubscribe</a></p>
  </footer>
</body>
</html>
`

const textSource = `AI NEWS DIGEST
Issue #{{.Issue.IssueNumber}} | {{date .Issue}}

{{.Issue.Title}}
{{range $i, $a := .Articles}}{{if $i}}
---
{{end}}
## {{$a.Title}}
Source: {{$a.Source}}{{if $a.Categories}} | {{categories $a.Categories}}{{end}}
{{if $a.OriginalURL}}Link: {{$a.OriginalURL}}
{{end}}
{{body $a}}
{{end}}
---
You're receiving this because you subscribed to AI News Digest.
Unsubscribe: {{.UnsubscribeURL}}
`

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.New("issue.html").Funcs(funcs).Parse(htmlSource))
	textTemplate = texttemplate.Must(texttemplate.New("issue.txt").Funcs(funcs).Parse(textSource))
)

// IssueHTML renders the HTML email body.
func IssueHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// IssueText renders the plain-text email body.
func IssueText(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := textTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Subject returns the email subject line of an issue.
func Subject(issue domain.NewsletterIssue) string {
	return fmt.Sprintf("AI News Digest #%d: %s", issue.IssueNumber, issue.Title)
}
