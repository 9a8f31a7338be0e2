package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/user"
	"regexp"
	"strings"
	"time"

	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/restartfu/grid-bench/internal/specs"
)

const (
	colorGreen = 5763719
	colorRed   = 16711680
)

// Notifier posts a Discord-style embed to a webhook when a benchmark cycle
// ends.
type Notifier struct {
	url      string
	client   *http.Client
	title    string
	username string
	specs    domain.Specs
}

type payload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []field `json:"fields,omitempty"`
	Footer      *footer `json:"footer,omitempty"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type footer struct {
	Text string `json:"text"`
}

// NewNotifier validates webhookURL, which must end in /webhooks/{id}/{token},
// and titles messages with the host's CPU model.
func NewNotifier(webhookURL string, host domain.Specs, client *http.Client) (*Notifier, error) {
	if _, _, err := parseWebhookURL(webhookURL); err != nil {
		return nil, fmt.Errorf("webhook url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	title := stripCoreInfo(host.Model)
	if title == "" {
		title = "grid-bench"
	}
	username := os.Getenv("USER")
	if username == "" {
		if current, err := user.Current(); err == nil {
			username = current.Username
		}
	}
	if username == "" {
		username = title
	}
	return &Notifier{
		url:      webhookURL,
		client:   client,
		title:    title,
		username: username,
		specs:    host,
	}, nil
}

func (n *Notifier) Notify(ctx context.Context, report domain.BenchmarkReport) error {
	body, err := json.Marshal(n.payload(report))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post webhook: unexpected status %s", resp.Status)
	}
	return nil
}

func (n *Notifier) payload(report domain.BenchmarkReport) payload {
	msg := embed{
		Type:   "rich",
		Title:  n.title,
		Fields: n.specFields(),
		Footer: &footer{Text: footerText(report)},
	}
	if report.State == domain.RunStateCompleted && report.Single != nil && report.Multi != nil {
		msg.Color = colorGreen
		msg.Description = fmt.Sprintf("%.2f H/s multi-threaded", report.Multi.RoundedThroughput())
		msg.Fields = append(msg.Fields,
			field{
				Name:   "Single-threaded",
				Value:  fmt.Sprintf("%.2f H/s in %.2fs", report.Single.RoundedThroughput(), report.Single.ElapsedSeconds()),
				Inline: true,
			},
			field{
				Name:   "Multi-threaded",
				Value:  fmt.Sprintf("%.2f H/s in %.2fs", report.Multi.RoundedThroughput(), report.Multi.ElapsedSeconds()),
				Inline: true,
			})
	} else {
		msg.Color = colorRed
		msg.Description = fmt.Sprintf("benchmark %s", report.State)
		if report.Error != "" {
			msg.Description += ": " + report.Error
		}
	}
	return payload{
		Username: n.username,
		Embeds:   []embed{msg},
	}
}

func (n *Notifier) specFields() []field {
	var fields []field
	if n.specs.Cores > 0 && n.specs.Threads > 0 {
		fields = append(fields, field{
			Name:  "Cores/Threads",
			Value: fmt.Sprintf("%dC / %dT", n.specs.Cores, n.specs.Threads),
		})
	}
	if n.specs.RAM.TotalBytes > 0 {
		fields = append(fields, field{
			Name:  "RAM",
			Value: specs.FormatBytes(n.specs.RAM.TotalBytes),
		})
	}
	if speed := strings.ToLower(n.specs.RAMSpeed); speed != "" && speed != "unknown" && speed != "n/a" {
		fields = append(fields, field{
			Name:  "RAM Speed",
			Value: n.specs.RAMSpeed,
		})
	}
	return fields
}

func footerText(report domain.BenchmarkReport) string {
	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	return fmt.Sprintf("%s | %d hashes/worker | Finished: %s",
		report.Algorithm,
		report.HashCount,
		finished.UTC().Format("2006-01-02 15:04:05 UTC"))
}

func parseWebhookURL(raw string) (string, string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	path := strings.Trim(parsed.Path, "/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("expected .../webhooks/{id}/{token}")
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

var coreInfoPattern = regexp.MustCompile(`(?i)\b\d+\s*-?\s*core(?:s)?(?:\s+processor)?\b`)

func stripCoreInfo(model string) string {
	cleaned := coreInfoPattern.ReplaceAllString(model, "")
	return strings.Join(strings.Fields(cleaned), " ")
}
