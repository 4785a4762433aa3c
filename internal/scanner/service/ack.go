package service

import (
	"log/slog"

	"github.com/google/uuid"

	"scanpos_backend/platform/logger"
)

// LogAcknowledger acknowledges detections through the structured log. A real
// deployment would drive a buzzer or a UI signal instead.
type LogAcknowledger struct {
	log *logger.Logger
}

// NewLogAcknowledger creates a logger-backed acknowledger.
func NewLogAcknowledger(log *logger.Logger) *LogAcknowledger {
	return &LogAcknowledger{log: log}
}

// Detected logs the acknowledgement beep.
func (a *LogAcknowledger) Detected(sessionID uuid.UUID, code string) {
	a.log.ScanEvent("detection_ack", sessionID.String(), slog.String("code", code))
}

var _ Acknowledger = (*LogAcknowledger)(nil)
