// Package notify posts run summaries and report files to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"banreport/internal/domain"
)

const (
	defaultTelegramTimeout = 30 * time.Second
	telegramAPIBase        = "https://api.telegram.org"
)

// Notifier delivers run summaries to operators.
type Notifier interface {
	SendStats(ctx context.Context, stats domain.RunStats) error
	SendDocument(ctx context.Context, path string) error
}

// TelegramNotifier talks to the Telegram bot API.
type TelegramNotifier struct {
	client  *resty.Client
	baseURL string
	token   string
	chatID  string
}

func NewTelegramNotifier(token, chatID string) (*TelegramNotifier, error) {
	client := resty.New()
	client.SetTimeout(defaultTelegramTimeout)
	client.SetRetryCount(0)

	return NewTelegramNotifierWithClient(token, chatID, telegramAPIBase, client)
}

func NewTelegramNotifierWithClient(token, chatID, baseURL string, client *resty.Client) (*TelegramNotifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if strings.TrimSpace(chatID) == "" {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	trimmedBase := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedBase == "" {
		return nil, fmt.Errorf("telegram base url is required")
	}
	if _, err := url.ParseRequestURI(trimmedBase); err != nil {
		return nil, fmt.Errorf("invalid telegram base url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultTelegramTimeout)
	}
	client.SetRetryCount(0)

	return &TelegramNotifier{
		client:  client,
		baseURL: trimmedBase,
		token:   token,
		chatID:  chatID,
	}, nil
}

// SendStats posts a Markdown run summary via the sendMessage endpoint.
func (n *TelegramNotifier) SendStats(ctx context.Context, stats domain.RunStats) error {
	if n == nil || n.client == nil {
		return fmt.Errorf("notifier is not initialized")
	}

	payload := map[string]string{
		"chat_id":    n.chatID,
		"text":       statsMessage(stats),
		"parse_mode": "Markdown",
	}

	response, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(n.methodURL("sendMessage"))

	return classifyResponse(response, err, "stats message")
}

// SendDocument uploads the report file via the sendDocument endpoint.
func (n *TelegramNotifier) SendDocument(ctx context.Context, path string) error {
	if n == nil || n.client == nil {
		return fmt.Errorf("notifier is not initialized")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("document path is required")
	}

	response, err := n.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"chat_id": n.chatID}).
		SetFile("document", path).
		Post(n.methodURL("sendDocument"))

	return classifyResponse(response, err, fmt.Sprintf("document %s", filepath.Base(path)))
}

func (n *TelegramNotifier) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", n.baseURL, n.token, method)
}

func classifyResponse(response *resty.Response, err error, what string) error {
	if err != nil {
		return &NotifyError{
			Message: fmt.Sprintf("failed to send %s", what),
			Cause:   err,
		}
	}
	if response == nil {
		return &NotifyError{
			Message: fmt.Sprintf("empty response sending %s", what),
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	message := fmt.Sprintf("telegram returned status %d sending %s", statusCode, what)
	if body := strings.TrimSpace(response.String()); body != "" {
		message = fmt.Sprintf("%s: %s", message, body)
	}
	return &NotifyError{
		StatusCode: statusCode,
		Message:    message,
	}
}

func statsMessage(stats domain.RunStats) string {
	return fmt.Sprintf(
		"🕒 *Ban report completed*\n\n"+
			"📅 *Started*: %s\n"+
			"⏳ *Duration*: %d s\n"+
			"🌍 *Addresses processed*: %d\n"+
			"✅ *Resolved*: %d\n"+
			"⚠️ *Failed*: %d",
		stats.StartTime.Format("2006-01-02 15:04:05"),
		int(stats.Duration.Seconds()),
		stats.TotalKeys,
		stats.Succeeded,
		stats.Failed,
	)
}
