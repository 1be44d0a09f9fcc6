package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType tags the kind of occurrence an AuditEvent records.
type EventType string

const (
	EventResearchStart      EventType = "RESEARCH_START"
	EventResearchComplete   EventType = "RESEARCH_COMPLETE"
	EventContentDiscovery   EventType = "CONTENT_DISCOVERY"
	EventQualityAssessment  EventType = "QUALITY_ASSESSMENT"
	EventIntegrationPropose EventType = "INTEGRATION_PROPOSAL"
	EventReviewQueue        EventType = "REVIEW_QUEUE"
	EventReviewDecision     EventType = "REVIEW_DECISION"
	EventSystem             EventType = "SYSTEM_EVENT"
	EventError              EventType = "ERROR"
	EventRecovery           EventType = "RECOVERY"
	EventPerformance        EventType = "PERFORMANCE"
)

// EventLevel is the severity of an AuditEvent.
type EventLevel string

const (
	LevelInfo     EventLevel = "INFO"
	LevelWarning  EventLevel = "WARNING"
	LevelError    EventLevel = "ERROR"
	LevelCritical EventLevel = "CRITICAL"
)

// AuditEvent is one immutable entry in a run's causal history. Events are
// never updated or deleted once appended.
type AuditEvent struct {
	ID            string
	ResearchRunID string
	EventType     EventType
	Level         EventLevel
	Timestamp     time.Time
	Payload       map[string]interface{}

	// ContentSourceID, AssessmentID, ProposalID, and ReviewEntryID are
	// optional foreign keys to the entity the event concerns, left empty
	// when not applicable.
	ContentSourceID string
	AssessmentID    string
	ProposalID      string
	ReviewEntryID   string
}

// NewAuditEvent constructs an event stamped with the current time.
func NewAuditEvent(runID string, eventType EventType, level EventLevel, payload map[string]interface{}) *AuditEvent {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &AuditEvent{
		ID:            uuid.New().String(),
		ResearchRunID: runID,
		EventType:     eventType,
		Level:         level,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}
}
