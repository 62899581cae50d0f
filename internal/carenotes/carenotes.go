// Package carenotes writes structured care notes when visits and service
// requests are completed.
package carenotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homecare-app-server/internal/models"
)

// Store persists care notes.
type Store interface {
	CreateCareNote(ctx context.Context, n *models.CareNote) error
	ListCareNotes(ctx context.Context, patientID string) ([]models.CareNote, error)
}

const (
	CategoryGeneral            = "GENERAL"
	CategoryServiceCompletion  = "SERVICE_COMPLETION"
	CategoryScheduleCompletion = "VISIT_COMPLETION"
)

// Writer creates care notes. The workflow engines treat errors from the
// completion notes as non-fatal.
type Writer struct {
	store Store
	now   func() time.Time
}

// NewWriter creates a Writer.
func NewWriter(st Store) *Writer {
	return &Writer{store: st, now: time.Now}
}

// ServiceCompleted records the outcome of a completed service request.
func (w *Writer) ServiceCompleted(ctx context.Context, sr *models.ServiceRequest, authorID string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Service: %s\n", sr.Title)
	fmt.Fprintf(&b, "Outcome: %s\n", sr.Outcome)
	if sr.CaregiverNotes != "" {
		fmt.Fprintf(&b, "Caregiver notes: %s\n", sr.CaregiverNotes)
	}
	id := sr.ID
	n := &models.CareNote{
		PatientID:        sr.PatientID,
		AuthorID:         authorID,
		Category:         CategoryServiceCompletion,
		Title:            "Service completed: " + sr.Title,
		Content:          strings.TrimSpace(b.String()),
		ServiceRequestID: &id,
		NoteDate:         completedAt(sr.CompletedDate, w.now),
	}
	if err := w.store.CreateCareNote(ctx, n); err != nil {
		return fmt.Errorf("create service completion care note: %w", err)
	}
	return nil
}

// ScheduleCompleted records the outcome of a completed visit.
func (w *Writer) ScheduleCompleted(ctx context.Context, cs *models.CaregiverSchedule, authorID string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Visit: %s (%s)\n", cs.Title, cs.ScheduleType)
	fmt.Fprintf(&b, "Outcome: %s\n", cs.Outcome)
	if cs.CompletionNotes != "" {
		fmt.Fprintf(&b, "Completion notes: %s\n", cs.CompletionNotes)
	}
	id := cs.ID
	n := &models.CareNote{
		PatientID:  cs.PatientID,
		AuthorID:   authorID,
		Category:   CategoryScheduleCompletion,
		Title:      "Visit completed: " + cs.Title,
		Content:    strings.TrimSpace(b.String()),
		ScheduleID: &id,
		NoteDate:   completedAt(cs.CompletedDate, w.now),
	}
	if err := w.store.CreateCareNote(ctx, n); err != nil {
		return fmt.Errorf("create schedule completion care note: %w", err)
	}
	return nil
}

// Write stores a hand-written note. The category is upper-cased and defaults
// to GENERAL; a zero NoteDate becomes now.
func (w *Writer) Write(ctx context.Context, n *models.CareNote) error {
	n.Category = strings.ToUpper(strings.TrimSpace(n.Category))
	if n.Category == "" {
		n.Category = CategoryGeneral
	}
	if n.NoteDate.IsZero() {
		n.NoteDate = w.now()
	}
	if err := w.store.CreateCareNote(ctx, n); err != nil {
		return fmt.Errorf("create care note: %w", err)
	}
	return nil
}

// ForPatient lists a patient's notes, newest first.
func (w *Writer) ForPatient(ctx context.Context, patientID string) ([]models.CareNote, error) {
	notes, err := w.store.ListCareNotes(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list care notes: %w", err)
	}
	return notes, nil
}

func completedAt(t *time.Time, now func() time.Time) time.Time {
	if t != nil {
		return *t
	}
	return now()
}
