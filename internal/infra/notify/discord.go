package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const (
	colorDown      = 15158332
	colorRecovered = 3066993
)

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Footer      discordFooter  `json:"footer"`
	Timestamp   string         `json:"timestamp"`
}

type discordField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// Discord posts notifications as Discord webhook embeds.
type Discord struct {
	webhookURL string
	footer     string
	client     *http.Client
}

// NewDiscord creates a Discord webhook notifier.
func NewDiscord(webhookURL, footer string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		footer:     footer,
		client:     &http.Client{},
	}
}

// Notify implements Notifier. Non-2xx responses are returned as errors.
func (d *Discord) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(d.payload(n))
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

func (d *Discord) payload(n Notification) discordPayload {
	embed := discordEmbed{
		Footer:    discordFooter{Text: d.footer},
		Timestamp: n.Time.UTC().Format(time.RFC3339Nano),
	}

	switch n.Kind {
	case KindDown:
		embed.Title = "🔴 Service Down"
		embed.Color = colorDown
		embed.Description = fmt.Sprintf("**%s** in **%s** is down.", n.ServiceName, n.RegionName)
		errText := n.Error
		if errText == "" {
			errText = "Unknown error"
		}
		embed.Fields = append(embed.Fields, discordField{Name: "Error", Value: "`" + errText + "`"})
	default:
		embed.Title = "🟢 Service Recovered"
		embed.Color = colorRecovered
		embed.Description = fmt.Sprintf("**%s** in **%s** is back online.", n.ServiceName, n.RegionName)
		embed.Fields = append(embed.Fields, discordField{Name: "Downtime Duration", Value: n.Duration})
	}
	embed.Fields = append(embed.Fields, discordField{Name: "Time", Value: n.Time.UTC().Format(time.RFC3339)})

	return discordPayload{Embeds: []discordEmbed{embed}}
}
