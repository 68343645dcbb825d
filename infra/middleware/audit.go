package middleware

import (
	"context"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AuditEvent records a sensitive action for compliance review.
type AuditEvent struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"user_id,omitempty"`
	FirmID     string    `json:"firm_id,omitempty"`
	Action     string    `json:"action"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	IP         string    `json:"ip"`
	StatusCode int       `json:"status_code"`
	Duration   int64     `json:"duration_ms"`
	RequestID  string    `json:"request_id"`
	Success    bool      `json:"success"`
}

// AuditLogger writes audit events to a Redis stream and mirrors them to a
// structured stdout log for local inspection.
type AuditLogger struct {
	redis   *redis.Client
	log     zerolog.Logger
	stream  string
	enabled bool
}

var auditLogger *AuditLogger

func InitAuditLogger(redisClient *redis.Client) {
	zlog := zerolog.New(os.Stdout).With().Timestamp().Str("component", "audit").Logger()
	auditLogger = &AuditLogger{
		redis:   redisClient,
		log:     zlog,
		stream:  "audit:events",
		enabled: redisClient != nil,
	}
}

func logAuditEvent(ctx context.Context, event *AuditEvent) {
	if auditLogger == nil {
		return
	}

	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()

	auditLogger.log.Info().
		Str("audit_id", event.ID).
		Str("action", event.Action).
		Str("user_id", event.UserID).
		Str("firm_id", event.FirmID).
		Str("path", event.Path).
		Int("status", event.StatusCode).
		Bool("success", event.Success).
		Msg("audit event")

	if !auditLogger.enabled {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	err = auditLogger.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: auditLogger.stream,
		Values: map[string]interface{}{"event": string(data)},
		MaxLen: 100000,
		Approx: true,
	}).Err()
	if err != nil {
		auditLogger.log.Warn().Err(err).Msg("failed to persist audit event")
	}
}

// sensitiveActions maps method+route prefixes to audit action names. Only
// mutations of client data, verdicts, and billing are audited.
var sensitiveActions = map[string]string{
	"POST:/api/v1/emails/ingest":    "email_ingest",
	"POST:/api/v1/emails":           "email_verdict",
	"POST:/api/v1/cases":            "case_create",
	"PATCH:/api/v1/cases":           "case_update",
	"PUT:/api/v1/cases":             "case_assign",
	"POST:/api/v1/clients":          "client_mutate",
	"PATCH:/api/v1/clients":         "client_mutate",
	"DELETE:/api/v1/clients":        "client_mutate",
	"POST:/api/v1/sources":          "source_mutate",
	"PATCH:/api/v1/sources":         "source_mutate",
	"DELETE:/api/v1/sources":        "source_mutate",
	"POST:/api/v1/invoices":         "invoice_mutate",
	"PUT:/api/v1/invoices":          "invoice_mutate",
	"DELETE:/api/v1/documents":      "document_delete",
	"POST:/api/v1/ai":               "ai_request",
}

func matchSensitiveAction(method, path string) (string, bool) {
	// Exact match first, then prefix with a trailing path segment.
	if action, ok := sensitiveActions[method+":"+path]; ok {
		return action, true
	}
	for key, action := range sensitiveActions {
		prefix := key[len(method)+1:]
		if len(key) > len(method) && key[:len(method)] == method &&
			len(path) > len(prefix) && path[:len(prefix)] == prefix {
			return action, true
		}
	}
	return "", false
}

// Audit records sensitive mutations after the handler completes.
func Audit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		action, sensitive := matchSensitiveAction(c.Method(), c.Path())
		if !sensitive {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		event := &AuditEvent{
			Action:     action,
			Method:     c.Method(),
			Path:       c.Path(),
			IP:         c.IP(),
			StatusCode: c.Response().StatusCode(),
			Duration:   time.Since(start).Milliseconds(),
			Success:    err == nil && c.Response().StatusCode() < 400,
		}
		if requestID, ok := c.Locals("request_id").(string); ok {
			event.RequestID = requestID
		}
		if uid, ok := c.Locals("user_id").(uuid.UUID); ok {
			event.UserID = uid.String()
		}
		if fid, ok := c.Locals("firm_id").(uuid.UUID); ok {
			event.FirmID = fid.String()
		}

		go logAuditEvent(context.Background(), event)
		return err
	}
}
