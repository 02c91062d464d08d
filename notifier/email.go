package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"cine-catalog/catalog"
	"cine-catalog/config"
	"cine-catalog/logging"

	gomail "gopkg.in/mail.v2"
)

// sampleSize caps how many titles of each kind are listed in the email.
const sampleSize = 20

// Sender delivers a composed message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier sends a summary after each successful catalog refresh.
type EmailNotifier struct {
	senderEmail    string
	recipientEmail string
	sender         Sender
	htmlTemplate   *template.Template
}

var emailTemplate = template.Must(template.New("email").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Cine Catalog - Refresh Summary</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; }
        h1 { color: #e50914; }
        h2 { color: #0071c5; margin-top: 30px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background-color: #f4f4f4; text-align: left; padding: 10px; }
        td { padding: 10px; border-bottom: 1px solid #ddd; }
        .movie { background-color: #fff3e0; }
        .series { background-color: #e3f2fd; }
        .footer { font-size: 12px; color: #666; margin-top: 50px; text-align: center; }
        .count { font-weight: bold; color: #e50914; }
    </style>
</head>
<body>
    <h1>Cine Catalog - Refresh Summary</h1>
    <p>The catalog was rebuilt on {{.Date}}.</p>

    <p>Titles in catalog: <span class="count">{{.TotalCount}}</span>
       ({{.MovieCount}} movies, {{.SeriesCount}} series, {{.Skipped}} skipped)</p>

    {{if .Movies}}
    <h2>Movies (showing {{len .Movies}} of {{.MovieCount}})</h2>
    <table>
        <tr><th>Title</th><th>Year</th><th>Rating</th><th>Genre</th><th>Language</th></tr>
        {{range .Movies}}
        <tr class="movie">
            <td>{{.Title}}</td>
            <td>{{if .Year}}{{.Year}}{{else}}-{{end}}</td>
            <td>{{if .Rating}}{{.Rating}}{{else}}-{{end}}</td>
            <td>{{.Genre}}</td>
            <td>{{.Language}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    {{if .Series}}
    <h2>Series (showing {{len .Series}} of {{.SeriesCount}})</h2>
    <table>
        <tr><th>Title</th><th>Rating</th><th>Genre</th><th>Language</th></tr>
        {{range .Series}}
        <tr class="series">
            <td>{{.Title}}</td>
            <td>{{if .Rating}}{{.Rating}}{{else}}-{{end}}</td>
            <td>{{.Genre}}</td>
            <td>{{.Language}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    <div class="footer">
        <p>This is an automated email from Cine Catalog. Please do not reply.</p>
    </div>
</body>
</html>
`))

// NewEmailNotifier creates a notifier that dials the configured SMTP server.
func NewEmailNotifier(cfg config.EmailConfig) (*EmailNotifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("email notifier requires smtp host and recipient")
	}
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username(), cfg.SenderPassword)
	return NewEmailNotifierWithSender(cfg, d), nil
}

// NewEmailNotifierWithSender is NewEmailNotifier with an explicit transport.
func NewEmailNotifierWithSender(cfg config.EmailConfig, sender Sender) *EmailNotifier {
	return &EmailNotifier{
		senderEmail:    cfg.SenderEmail,
		recipientEmail: cfg.RecipientEmail,
		sender:         sender,
		htmlTemplate:   emailTemplate,
	}
}

// NotifyRefresh sends the summary of a refreshed catalog. Sampled titles are
// listed by title whatever the order of items.
func (n *EmailNotifier) NotifyRefresh(items []catalog.Item, skipped int) error {
	logger := logging.WithComponent("notifier")

	if len(items) == 0 {
		logger.Debug().Msg("no titles to notify about")
		return nil
	}
	items = append([]catalog.Item(nil), items...)
	catalog.SortByTitle(items)

	var movies, series []catalog.Item
	var movieCount, seriesCount int
	for _, it := range items {
		switch it.Kind {
		case catalog.KindMovie:
			movieCount++
			if len(movies) < sampleSize {
				movies = append(movies, it)
			}
		case catalog.KindSeries:
			seriesCount++
			if len(series) < sampleSize {
				series = append(series, it)
			}
		}
	}

	data := struct {
		Date        string
		TotalCount  int
		MovieCount  int
		SeriesCount int
		Skipped     int
		Movies      []catalog.Item
		Series      []catalog.Item
	}{
		Date:        time.Now().Format("January 2, 2006 at 3:04 PM"),
		TotalCount:  len(items),
		MovieCount:  movieCount,
		SeriesCount: seriesCount,
		Skipped:     skipped,
		Movies:      movies,
		Series:      series,
	}

	var emailBody bytes.Buffer
	if err := n.htmlTemplate.Execute(&emailBody, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.senderEmail)
	m.SetHeader("To", n.recipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("Cine Catalog: %d titles (%d movies, %d series)",
		len(items), movieCount, seriesCount))

	plainText := fmt.Sprintf(
		"Cine Catalog Refresh Summary\n\n"+
			"The catalog was rebuilt on %s.\n"+
			"Total titles: %d (%d movies, %d series, %d skipped)\n\n"+
			"This is an automated email from Cine Catalog. Please do not reply.",
		data.Date, data.TotalCount, movieCount, seriesCount, skipped)

	m.SetBody("text/plain", plainText)
	m.AddAlternative("text/html", emailBody.String())

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info().
		Str("event", "notify.sent").
		Str("recipient", n.recipientEmail).
		Int("titles", len(items)).
		Msg("refresh summary sent")
	return nil
}
