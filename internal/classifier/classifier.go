package classifier

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"filingdesk/internal/backend"
	"filingdesk/internal/camera"
	"filingdesk/internal/logging"
	"filingdesk/internal/services"
)

const component = "classifier"

// API is the backend call the classifier depends on.
type API interface {
	ProcessImage(ctx context.Context, dataURL string) (backend.ClassifyResponse, error)
}

// Result is a proposed label plus the selection the server reported while classifying.
type Result struct {
	Label  string
	Room   string
	Drawer string
}

// Client turns frames into proposed labels.
type Client struct {
	api    API
	logger *slog.Logger
}

// New constructs a classification client.
func New(api API, logger *slog.Logger) *Client {
	return &Client{
		api:    api,
		logger: logging.NewComponentLogger(logger, component),
	}
}

// Classify submits frame to the backend and returns the detected label,
// whitespace-trimmed. The label may be empty when the server found nothing
// readable; the operator types it in that case.
func (c *Client) Classify(ctx context.Context, frame camera.Frame) (Result, error) {
	if frame.Empty() {
		return Result{}, services.Wrap(services.ErrClassification, component, "classify", "empty frame", nil)
	}

	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	resp, err := c.api.ProcessImage(ctx, frame.DataURL())
	if err != nil {
		logger.Warn("classification request failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "classify_failed"),
			logging.String(logging.FieldErrorHint, "check the backend is running and reachable"),
			logging.String(logging.FieldImpact, "frame discarded"),
		)
		return Result{}, services.Wrap(services.ErrClassification, component, "classify", "", err)
	}
	if !resp.Success {
		detail := strings.TrimSpace(resp.Error)
		if detail == "" {
			detail = "server reported failure"
		}
		logger.Warn("classification rejected",
			logging.String("server_error", detail),
			logging.String(logging.FieldEventType, "classify_rejected"),
			logging.String(logging.FieldErrorHint, "retake the photo with the label in view"),
			logging.String(logging.FieldImpact, "frame discarded"),
		)
		return Result{}, services.Wrap(services.ErrClassification, component, "classify", detail, nil)
	}

	result := Result{
		Label:  strings.TrimSpace(resp.DetectedName),
		Room:   resp.CurrentRoom,
		Drawer: resp.CurrentDrawer,
	}
	logger.Info("frame classified",
		logging.String(logging.FieldEventType, "classify_completed"),
		logging.String("label", result.Label),
		logging.Int("frame_bytes", len(frame.Data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}
