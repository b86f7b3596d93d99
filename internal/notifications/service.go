package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"weir/internal/config"
)

const userAgent = "Weir/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyItemsDetected(ctx context.Context, count int, directory string) error
	NotifyItemInvalidated(ctx context.Context, filename string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		detections: cfg.Notifications.Detections,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	detections bool
	errors     bool
}

func (n *ntfyService) NotifyItemsDetected(ctx context.Context, count int, directory string) error {
	if !n.detections {
		return nil
	}
	directory = strings.TrimSpace(directory)
	noun := "files"
	if count == 1 {
		noun = "file"
	}
	data := payload{
		title:   "Weir - Files Detected",
		message: fmt.Sprintf("Detected %d new %s in %s", count, noun, directory),
		tags:    []string{"weir", "watch", "detected"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyItemInvalidated(ctx context.Context, filename string) error {
	if !n.errors {
		return nil
	}
	filename = strings.TrimSpace(filename)
	data := payload{
		title:   "Weir - Invalid File",
		message: fmt.Sprintf("File never became valid and was set aside: %s", filename),
		tags:    []string{"weir", "watch", "invalid"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Weir - Error",
		message:  builder.String(),
		tags:     []string{"weir", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Weir - Test",
		message:  "Notification system test",
		tags:     []string{"weir", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyItemsDetected(context.Context, int, string) error { return nil }
func (noopService) NotifyItemInvalidated(context.Context, string) error    { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
