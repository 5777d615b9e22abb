// Package notify is the WhatsApp notification hub: direct sends from the
// dashboard plus the expiring-membership reminder automation, dispatched
// through the work queue.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymtrack/internal/aiclient"
	"gymtrack/internal/logger"
	"gymtrack/internal/member"
	"gymtrack/internal/metrics"
	"gymtrack/internal/queue"
)

// Delivery statuses recorded in the log.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// MsgTypeDispatch is the queue message type for outbound WhatsApp jobs.
const MsgTypeDispatch = "notify.dispatch"

// Log is one entry in the notification history, most recent first.
type Log struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"memberId"`
	Timestamp time.Time `json:"timestamp"`
	Mensaje   string    `json:"mensaje"`
	Tipo      string    `json:"tipo"`
	Status    string    `json:"status"`
}

// Job is the payload carried on the queue for the dispatch worker.
type Job struct {
	MemberID string `json:"memberId"`
	Telefono string `json:"telefono"`
	Tipo     string `json:"tipo"`
	Mensaje  string `json:"mensaje"`
}

// Sender delivers a text to a phone number. Satisfied by waha.Client.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
}

// Registry is the read-only member view the hub needs.
type Registry interface {
	Get(id string) (member.Member, error)
	List() []member.Member
}

// Hub composes, sends and records notifications.
type Hub struct {
	registry Registry
	composer aiclient.Composer
	sender   Sender
	q        queue.Queue
	log      logger.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	history []Log

	now func() time.Time
}

// NewHub wires the hub. metrics may be nil.
func NewHub(registry Registry, composer aiclient.Composer, sender Sender, q queue.Queue, log logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		registry: registry,
		composer: composer,
		sender:   sender,
		q:        q,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// Send composes (unless a custom message is given) and delivers a message
// to one member, synchronously.
func (h *Hub) Send(ctx context.Context, memberID, tipo, tono, custom string) (Log, error) {
	m, err := h.registry.Get(memberID)
	if err != nil {
		return Log{}, err
	}
	if m.Telefono == "" {
		return Log{}, fmt.Errorf("member %s has no phone number", memberID)
	}

	text := custom
	if text == "" {
		text, err = h.composer.ComposeTemplate(ctx, tipo, m.Nombre, tono)
		if err != nil {
			return Log{}, fmt.Errorf("compose template: %w", err)
		}
	}

	status := StatusSent
	if err := h.sender.SendText(ctx, m.Telefono, text); err != nil {
		status = StatusFailed
		h.log.Error("whatsapp send failed", "memberId", memberID, "error", err)
	}
	if h.metrics != nil {
		h.metrics.NotificationsSent.WithLabelValues(status).Inc()
	}

	entry := h.record(memberID, tipo, text, status)
	if status == StatusFailed {
		return entry, fmt.Errorf("send to %s failed", memberID)
	}
	return entry, nil
}

// ExpiringIn returns active members whose membership expires in exactly
// `days` days.
func (h *Hub) ExpiringIn(days int) []member.Member {
	target := h.now().AddDate(0, 0, days).Format(member.DateLayout)
	var out []member.Member
	for _, m := range h.registry.List() {
		if m.Status == member.StatusActivo && m.FechaVencimiento == target {
			out = append(out, m)
		}
	}
	return out
}

// RunExpiringAutomation composes a reminder for every member expiring in
// three days and enqueues the dispatch jobs. Returns the number queued.
func (h *Hub) RunExpiringAutomation(ctx context.Context) (int, error) {
	members := h.ExpiringIn(3)
	queued := 0
	for _, m := range members {
		if m.Telefono == "" {
			h.log.Warn("skipping reminder, no phone", "memberId", m.ID)
			continue
		}
		text, err := h.composer.ComposeTemplate(ctx, "Recordatorio: Tu membresía vence en solo 3 días", m.Nombre, "Motivador")
		if err != nil {
			h.log.Error("compose reminder failed", "memberId", m.ID, "error", err)
			continue
		}
		body, _ := json.Marshal(Job{MemberID: m.ID, Telefono: m.Telefono, Tipo: "Recordatorio 3 Días", Mensaje: text})
		if err := h.q.Publish(ctx, queue.Message{Type: MsgTypeDispatch, Body: body}); err != nil {
			return queued, fmt.Errorf("publish job: %w", err)
		}
		if h.metrics != nil {
			h.metrics.NotificationsQueued.Inc()
		}
		queued++
	}
	h.log.Info("expiring automation queued", "count", queued)
	return queued, nil
}

// Dispatch delivers one queued job and records the outcome. Used by the
// worker binary.
func (h *Hub) Dispatch(ctx context.Context, job Job) error {
	status := StatusSent
	err := h.sender.SendText(ctx, job.Telefono, job.Mensaje)
	if err != nil {
		status = StatusFailed
	}
	if h.metrics != nil {
		h.metrics.NotificationsSent.WithLabelValues(status).Inc()
	}
	h.record(job.MemberID, job.Tipo, job.Mensaje, status)
	return err
}

// History returns the notification log, most recent first.
func (h *Hub) History() []Log {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Log, len(h.history))
	copy(out, h.history)
	return out
}

func (h *Hub) record(memberID, tipo, mensaje, status string) Log {
	entry := Log{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		Timestamp: h.now(),
		Mensaje:   mensaje,
		Tipo:      tipo,
		Status:    status,
	}
	h.mu.Lock()
	h.history = append([]Log{entry}, h.history...)
	h.mu.Unlock()
	return entry
}
