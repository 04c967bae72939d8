package ses

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"quizbank/internal/domain"
	"quizbank/internal/port"
)

// maxListedErrors caps the batch and file errors rendered into one email.
const maxListedErrors = 20

type sesNotifier struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	recipients  []string
}

// NewSESNotifier creates a new SES-backed SummaryNotifier.
func NewSESNotifier(region, fromAddress, fromName string, recipients []string) (port.SummaryNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesNotifier{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		recipients:  recipients,
	}, nil
}

func (s *sesNotifier) NotifyRunSummary(ctx context.Context, run *domain.IngestionRun, summary *domain.RunSummary) error {
	if len(s.recipients) == 0 {
		return nil
	}

	subject := buildSubject(run, summary)
	htmlBody := buildSummaryHTML(run, summary)
	textBody := buildSummaryText(run, summary)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: s.recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildSubject(run *domain.IngestionRun, summary *domain.RunSummary) string {
	return fmt.Sprintf("[quizbank] ingestion %s: %d inserted, %d failed, %d dropped",
		run.Status, summary.Inserted, summary.Failed, summary.Dropped)
}

func sortedCategories(perCategory map[string]int) []string {
	names := make([]string, 0, len(perCategory))
	for name := range perCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildSummaryText(run *domain.IngestionRun, summary *domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ingestion run %s (%s, trigger %s)\n\n", run.ID, run.Status, run.Trigger)
	if run.DryRun {
		b.WriteString("Dry run: nothing was written to the database.\n\n")
	}
	fmt.Fprintf(&b, "Files:     %d (%d skipped)\n", summary.Files, summary.FilesSkipped)
	fmt.Fprintf(&b, "Parsed:    %d\n", summary.Parsed)
	fmt.Fprintf(&b, "Accepted:  %d\n", summary.Accepted)
	fmt.Fprintf(&b, "Dropped:   %d\n", summary.Dropped)
	fmt.Fprintf(&b, "Inserted:  %d\n", summary.Inserted)
	fmt.Fprintf(&b, "Failed:    %d\n", summary.Failed)

	if len(summary.PerCategory) > 0 {
		b.WriteString("\nPer category:\n")
		for _, name := range sortedCategories(summary.PerCategory) {
			fmt.Fprintf(&b, "  %s: %d\n", name, summary.PerCategory[name])
		}
	}
	if len(summary.BatchErrors) > 0 {
		b.WriteString("\nFailed batches:\n")
		for i, e := range summary.BatchErrors {
			if i == maxListedErrors {
				fmt.Fprintf(&b, "  ... and %d more\n", len(summary.BatchErrors)-maxListedErrors)
				break
			}
			fmt.Fprintf(&b, "  %s batch %d (offset %d, %d records): %s\n", e.SourceFile, e.Index, e.Offset, e.Size, e.Message)
		}
	}
	if len(summary.FileErrors) > 0 {
		b.WriteString("\nSkipped files:\n")
		for i, e := range summary.FileErrors {
			if i == maxListedErrors {
				fmt.Fprintf(&b, "  ... and %d more\n", len(summary.FileErrors)-maxListedErrors)
				break
			}
			fmt.Fprintf(&b, "  %s: %s\n", e.SourceFile, e.Message)
		}
	}
	return b.String()
}

func buildSummaryHTML(run *domain.IngestionRun, summary *domain.RunSummary) string {
	var rows strings.Builder
	for _, name := range sortedCategories(summary.PerCategory) {
		fmt.Fprintf(&rows, `<tr><td style="padding: 4px 12px;">%s</td><td style="padding: 4px 12px; text-align: right;">%d</td></tr>`,
			html.EscapeString(name), summary.PerCategory[name])
	}

	var failures strings.Builder
	for i, e := range summary.BatchErrors {
		if i == maxListedErrors {
			break
		}
		fmt.Fprintf(&failures, "<li>%s batch %d (offset %d, %d records): %s</li>",
			html.EscapeString(e.SourceFile), e.Index, e.Offset, e.Size, html.EscapeString(e.Message))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Ingestion run %s</h2>
  <p>Run <code>%s</code> started by %s.</p>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px;">Files</td><td style="padding: 4px 12px; text-align: right;">%d</td></tr>
    <tr><td style="padding: 4px 12px;">Accepted</td><td style="padding: 4px 12px; text-align: right;">%d</td></tr>
    <tr><td style="padding: 4px 12px;">Dropped</td><td style="padding: 4px 12px; text-align: right;">%d</td></tr>
    <tr><td style="padding: 4px 12px;">Inserted</td><td style="padding: 4px 12px; text-align: right;">%d</td></tr>
    <tr><td style="padding: 4px 12px;">Failed</td><td style="padding: 4px 12px; text-align: right;">%d</td></tr>
  </table>
  <h3 style="color: #333;">Per category</h3>
  <table style="border-collapse: collapse;">%s</table>
  <ul style="color: #B91C1C;">%s</ul>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">quizbank ingestion</p>
</body>
</html>`, html.EscapeString(string(run.Status)), run.ID, html.EscapeString(string(run.Trigger)),
		summary.Files, summary.Accepted, summary.Dropped, summary.Inserted, summary.Failed,
		rows.String(), failures.String())
}
