package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartfactory/smartfactory/internal/types"
)

// Notifier forwards new alerts of selected severities to an Apprise API.
// Deleted and cleared events are ignored.
type Notifier struct {
	apiURL     string
	targets    []string
	severities map[types.Severity]bool
	logger     zerolog.Logger
	client     *http.Client
	wg         sync.WaitGroup
}

// NewNotifier creates an Apprise notifier. apiURL is the Apprise API base,
// targets are Apprise service URLs or config keys.
func NewNotifier(apiURL string, targets []string, severities []string, logger zerolog.Logger) *Notifier {
	sev := make(map[types.Severity]bool, len(severities))
	for _, s := range severities {
		sev[types.Severity(strings.ToLower(s))] = true
	}
	return &Notifier{
		apiURL:     strings.TrimRight(apiURL, "/"),
		targets:    targets,
		severities: sev,
		logger:     logger.With().Str("component", "notifier").Logger(),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BroadcastCreated sends the alert in the background when its severity is selected
func (n *Notifier) BroadcastCreated(alert types.Alert) {
	if !n.severities[alert.Severity] {
		return
	}
	message := formatMessage(alert)
	title := fmt.Sprintf("Smart Factory: %s", alert.Severity)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.SendAlert(alert.ID, title, message)
	}()
}

func (n *Notifier) BroadcastDeleted(uint) {}

func (n *Notifier) BroadcastCleared() {}

// Wait blocks until in-flight notifications finish
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// SendAlert posts one message to every target, logging failures per target
func (n *Notifier) SendAlert(alertID uint, title, message string) {
	for _, target := range n.targets {
		if err := n.sendToApprise(target, title, message); err != nil {
			n.logger.Error().
				Err(err).
				Str("target", redact(target)).
				Uint("alert_id", alertID).
				Msg("Failed to send notification")
			continue
		}
		n.logger.Info().
			Str("target", redact(target)).
			Uint("alert_id", alertID).
			Msg("Notification sent")
	}
}

// formatMessage formats an alert into a notification body
func formatMessage(alert types.Alert) string {
	var emoji string
	switch alert.Severity {
	case types.SeverityError:
		emoji = "🔴"
	case types.SeverityWarning:
		emoji = "⚠️"
	default:
		emoji = "ℹ️"
	}

	body := fmt.Sprintf("%s %s\n\nSeverity: %s", emoji, alert.Message, alert.Severity)
	if alert.AreaRef != nil {
		body += fmt.Sprintf("\nArea: %s", *alert.AreaRef)
	}
	if alert.DeviceRef != nil {
		body += fmt.Sprintf("\nDevice: %s", *alert.DeviceRef)
	}
	body += fmt.Sprintf("\nTime: %s", alert.OccurredAt.Format(time.RFC3339))
	return body
}

// sendToApprise posts to <api>/notify/<target>
func (n *Notifier) sendToApprise(target, title, message string) error {
	payload := map[string]string{
		"title":  title,
		"body":   message,
		"format": "text",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/notify/%s", n.apiURL, url.PathEscape(target))
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("apprise API error: %d - %s", resp.StatusCode, string(body))
	}
	return nil
}

// redact keeps the scheme of a service URL and hides its tokens
func redact(target string) string {
	if i := strings.Index(target, "://"); i >= 0 {
		return target[:i+3] + "***"
	}
	return target
}
