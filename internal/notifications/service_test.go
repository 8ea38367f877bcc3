package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"filingdesk/internal/config"
	"filingdesk/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventFolderFiled, notifications.Payload{"label": "Ana"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "folder filed",
			event: notifications.EventFolderFiled,
			payload: notifications.Payload{
				"label":  "Maria Silva",
				"room":   "Sala 2",
				"drawer": "Gaveta 1",
			},
			expectTitle:   "Filingdesk - Folder Filed",
			expectMessage: "📁 Filed: Maria Silva -> Sala 2/Gaveta 1",
			expectTags:    "filingdesk,folder,filed",
		},
		{
			name:          "folder filed without location",
			event:         notifications.EventFolderFiled,
			payload:       notifications.Payload{"label": "Maria Silva"},
			expectTitle:   "Filingdesk - Folder Filed",
			expectMessage: "📁 Filed: Maria Silva",
			expectTags:    "filingdesk,folder,filed",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "commit",
				"error":   "Error confirming name: duplicate key",
			},
			expectTitle:    "Filingdesk - Error",
			expectMessage:  "❌ Error with commit: Error confirming name: duplicate key",
			expectTags:     "filingdesk,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Filingdesk - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "filingdesk,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsEventToggles(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Commits = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{notifications.EventFolderFiled, notifications.EventError, "unknown"} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"label": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
	if calls != 0 {
		t.Fatalf("expected suppressed events to skip ntfy, got %d calls", calls)
	}

	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("test event: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected test event to be delivered, got %d calls", calls)
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic reserved", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "ntfy returned 403: topic reserved") {
		t.Fatalf("expected ntfy status error, got %v", err)
	}
}
