package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"weir/internal/config"
	"weir/internal/notifications"
)

type capture struct {
	title    string
	tags     string
	priority string
	body     string
	hits     int
}

func newCaptureServer(t *testing.T) (*httptest.Server, *capture) {
	t.Helper()

	cap := &capture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		cap.title = r.Header.Get("Title")
		cap.tags = r.Header.Get("Tags")
		cap.priority = r.Header.Get("Priority")
		cap.body = string(body)
		cap.hits++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, cap
}

func newService(t *testing.T, mutate func(*config.Config)) (notifications.Service, *capture) {
	t.Helper()

	server, cap := newCaptureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if mutate != nil {
		mutate(&cfg)
	}
	return notifications.NewService(&cfg), cap
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyItemsDetected(context.Background(), 3, "/watch"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyItemsDetectedFormatsMessage(t *testing.T) {
	svc, cap := newService(t, nil)

	if err := svc.NotifyItemsDetected(context.Background(), 2, "/watch/incoming"); err != nil {
		t.Fatalf("NotifyItemsDetected: %v", err)
	}
	if cap.title != "Weir - Files Detected" {
		t.Fatalf("unexpected title %q", cap.title)
	}
	if cap.body != "Detected 2 new files in /watch/incoming" {
		t.Fatalf("unexpected body %q", cap.body)
	}
	if cap.tags != "weir,watch,detected" {
		t.Fatalf("unexpected tags %q", cap.tags)
	}

	if err := svc.NotifyItemsDetected(context.Background(), 1, "/watch/incoming"); err != nil {
		t.Fatalf("NotifyItemsDetected: %v", err)
	}
	if cap.body != "Detected 1 new file in /watch/incoming" {
		t.Fatalf("expected singular noun, got %q", cap.body)
	}
}

func TestNotifyItemInvalidatedNamesFile(t *testing.T) {
	svc, cap := newService(t, nil)

	if err := svc.NotifyItemInvalidated(context.Background(), "b.torrent"); err != nil {
		t.Fatalf("NotifyItemInvalidated: %v", err)
	}
	if cap.title != "Weir - Invalid File" {
		t.Fatalf("unexpected title %q", cap.title)
	}
	if cap.body != "File never became valid and was set aside: b.torrent" {
		t.Fatalf("unexpected body %q", cap.body)
	}
}

func TestNotifyErrorCarriesHighPriority(t *testing.T) {
	svc, cap := newService(t, nil)

	if err := svc.NotifyError(context.Background(), errors.New("statfs failed"), "watch add"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if cap.priority != "high" {
		t.Fatalf("expected high priority, got %q", cap.priority)
	}
	if cap.body != "Error with watch add: statfs failed" {
		t.Fatalf("unexpected body %q", cap.body)
	}
}

func TestDetectionToggleSilencesDetections(t *testing.T) {
	svc, cap := newService(t, func(cfg *config.Config) {
		cfg.Notifications.Detections = false
	})

	if err := svc.NotifyItemsDetected(context.Background(), 5, "/watch"); err != nil {
		t.Fatalf("NotifyItemsDetected: %v", err)
	}
	if cap.hits != 0 {
		t.Fatal("expected no request when detections are disabled")
	}

	// Errors stay enabled independently.
	if err := svc.NotifyError(context.Background(), errors.New("boom"), ""); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if cap.hits != 1 {
		t.Fatal("expected error notification to be sent")
	}
}

func TestNotifyReportsServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such topic", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
