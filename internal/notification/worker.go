package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"medflow-backend/internal/model"
	"medflow-backend/internal/shell"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Alert is one urgent notification job.
type Alert struct {
	RecordID string    `json:"recordId"`
	Message  string    `json:"body"`
	At       time.Time `json:"at"`
}

// pushPayload is what the browser's service worker receives.
type pushPayload struct {
	Title string `json:"title"`
	Alert
}

// WorkerPool manages a pool of workers for sending alert notifications.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	logger  *slog.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, logger *slog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger.With("component", "notification"),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debug("worker started", "worker", id)
	for {
		select {
		case a := <-wp.jobs:
			wp.sendAlert(ctx, a)
		case <-ctx.Done():
			wp.logger.Debug("worker shutting down", "worker", id)
			return
		}
	}
}

// Dispatch queues an alert. It never blocks; when the queue is full the
// alert is dropped and logged.
func (wp *WorkerPool) Dispatch(a Alert) bool {
	select {
	case wp.jobs <- a:
		return true
	default:
		wp.logger.Warn("notification queue full, dropping alert", "record_id", a.RecordID)
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Alert {
	return wp.jobs
}

// Observe implements shell.Observer. Raised alerts are pushed to every
// senior subscription.
func (wp *WorkerPool) Observe(ctx context.Context, ev shell.Event) {
	if ev.Kind != model.JournalAlert {
		return
	}
	raised, ok := ev.Payload.(shell.AlertRaised)
	if !ok {
		return
	}
	wp.Dispatch(Alert{RecordID: ev.RecordID, Message: raised.Message, At: ev.At})
}

func (wp *WorkerPool) sendAlert(ctx context.Context, a Alert) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("role = ?", model.RoleSenior).
		Find(&subscriptions).Error
	if err != nil {
		wp.logger.Error("failed to fetch subscriptions", "error", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(pushPayload{Title: "MedFlow", Alert: a})
	if err != nil {
		wp.logger.Error("failed to encode push payload", "error", err)
		return
	}

	wp.logger.Info("sending alert notifications", "record_id", a.RecordID, "subscriptions", len(subscriptions))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	opts := webpush.Options{}
	if wp.webpush != nil {
		opts = *wp.webpush
	}
	opts.Urgency = webpush.UrgencyHigh

	resp, err := wp.sender.Send(payload, wpSub, &opts)
	if err != nil {
		wp.logger.Error("failed to send notification", "endpoint", sub.Endpoint, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.logger.Info("subscription expired, deleting", "endpoint", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.logger.Error("failed to delete expired subscription", "endpoint", sub.Endpoint, "error", err)
		}
	}
}
