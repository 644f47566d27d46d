// Package notify posts daily picks and results to Discord webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mkaplan/fastbreak/pkg/models"
)

// DiscordNotifier sends messages to Discord via webhook
type DiscordNotifier struct {
	picksWebhookURL   string
	resultsWebhookURL string
	httpClient        *http.Client
}

// NewDiscordNotifier creates a new Discord notifier. Either webhook URL may
// be empty, which disables that message.
func NewDiscordNotifier(picksWebhookURL, resultsWebhookURL string, timeout time.Duration) *DiscordNotifier {
	return &DiscordNotifier{
		picksWebhookURL:   picksWebhookURL,
		resultsWebhookURL: resultsWebhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendPicks posts the day's predictions, strongest pick first.
func (d *DiscordNotifier) SendPicks(ctx context.Context, date string, rows []models.Matchup) error {
	if d.picksWebhookURL == "" {
		return nil
	}
	return d.post(ctx, d.picksWebhookURL, d.formatPicks(date, rows))
}

// SendResults posts a past date's reconciled picks with their outcomes.
func (d *DiscordNotifier) SendResults(ctx context.Context, date string, rows []models.Matchup) error {
	if d.resultsWebhookURL == "" {
		return nil
	}
	return d.post(ctx, d.resultsWebhookURL, d.formatResults(date, rows))
}

// formatPicks formats the picks message
func (d *DiscordNotifier) formatPicks(date string, rows []models.Matchup) string {
	sorted := make([]models.Matchup, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ModelWinProb > sorted[j].ModelWinProb
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 **%s — Model Picks**\n\n", date))

	for _, m := range sorted {
		sb.WriteString(fmt.Sprintf("%s @ %s → **%s** (%.1f%%)",
			m.AwayTeam, m.HomeTeam, m.Prediction, m.ModelWinProb*100))
		if m.ValueFlag == models.FlagValue {
			sb.WriteString(fmt.Sprintf(" 👍 value +%.1f%%", m.ValueGap*100))
		} else if m.ValueFlag == models.FlagCaution {
			sb.WriteString(" ⚠️ caution")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatResults formats the results message
func (d *DiscordNotifier) formatResults(date string, rows []models.Matchup) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎯 **%s — Results**\n\n", date))

	wins, settled := 0, 0
	for _, m := range rows {
		if !m.Reconciled() {
			continue
		}
		settled++

		mark := "❌"
		if m.Prediction == m.ActualWinner {
			mark = "✅"
			wins++
		}
		if m.ActualWinner == models.SideUnknown {
			mark = "❓"
		}
		sb.WriteString(fmt.Sprintf("%s %s @ %s → picked **%s**, winner **%s**\n",
			mark, m.AwayTeam, m.HomeTeam, m.Prediction, m.ActualWinner))
	}

	if settled > 0 {
		sb.WriteString(fmt.Sprintf("\n**Record: %d/%d (%.0f%%)**\n", wins, settled, float64(wins)/float64(settled)*100))
	} else {
		sb.WriteString("No settled games yet.\n")
	}

	return sb.String()
}

// post sends a message payload to a webhook URL
func (d *DiscordNotifier) post(ctx context.Context, webhookURL, content string) error {
	payload := map[string]interface{}{
		"content": content,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 on success
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
