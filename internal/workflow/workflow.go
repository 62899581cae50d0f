// Package workflow implements the service-request and caregiver-schedule state
// machines: role-gated transitions, the notifications they emit, and the care
// notes and schedule syncs that follow a completion.
//
// Side effects never fail the primary mutation. Their errors are logged and
// dropped.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/notify"
	"homecare-app-server/internal/settings"
	"homecare-app-server/internal/store"
)

// Store is the persistence both engines need.
type Store interface {
	GetServiceRequest(ctx context.Context, id string) (*models.ServiceRequest, error)
	CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error
	SaveServiceRequest(ctx context.Context, sr *models.ServiceRequest) error
	DeleteServiceRequest(ctx context.Context, id string) error
	ListServiceRequests(ctx context.Context, f store.ListFilter) ([]models.ServiceRequest, error)
	CompleteSchedulesForRequest(ctx context.Context, sr *models.ServiceRequest, at time.Time) (int64, error)
	HasScheduleForRequest(ctx context.Context, requestID string) (bool, error)
	RescheduleLinkedSchedules(ctx context.Context, requestID string, at time.Time) (int64, error)
	CancelSchedulesForRequest(ctx context.Context, requestID, reason string) (int64, error)

	GetSchedule(ctx context.Context, id string) (*models.CaregiverSchedule, error)
	CreateSchedule(ctx context.Context, cs *models.CaregiverSchedule) error
	SaveSchedule(ctx context.Context, cs *models.CaregiverSchedule) error
	DeleteSchedule(ctx context.Context, id string) error
	ListSchedules(ctx context.Context, f store.ListFilter) ([]models.CaregiverSchedule, error)

	GetPatient(ctx context.Context, id string) (*models.Patient, error)
	GetPatientByUserID(ctx context.Context, userID string) (*models.Patient, error)
	HasActiveCaregiverAssignment(ctx context.Context, caregiverID, patientID string) (bool, error)
	ActiveCaregiverForPatient(ctx context.Context, patientID string) (*models.CaregiverAssignment, error)
	ActiveReviewerForPatient(ctx context.Context, patientID string) (*models.ReviewerAssignment, error)
	PatientIDsForReviewer(ctx context.Context, reviewerID string) ([]string, error)
}

// AccessChecker is the per-record predicate.
type AccessChecker interface {
	CanAccessServiceRequest(ctx context.Context, p access.Principal, sr *models.ServiceRequest) (bool, error)
	CanAccessSchedule(ctx context.Context, p access.Principal, s *models.CaregiverSchedule) (bool, error)
}

// Notifier appends in-app notifications.
type Notifier interface {
	Emit(ctx context.Context, m notify.Message) error
}

// CareNoteWriter is the care-notes integration.
type CareNoteWriter interface {
	ServiceCompleted(ctx context.Context, sr *models.ServiceRequest, authorID string) error
	ScheduleCompleted(ctx context.Context, cs *models.CaregiverSchedule, authorID string) error
}

// SettingsReader reads admin toggles.
type SettingsReader interface {
	Enabled(ctx context.Context, key settings.Key) (bool, error)
}

// Deps bundles what the engines are built from.
type Deps struct {
	Store     Store
	Access    AccessChecker
	Notifier  Notifier
	CareNotes CareNoteWriter
	Settings  SettingsReader
	Logger    *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type engine struct {
	store    Store
	access   AccessChecker
	notifier Notifier
	notes    CareNoteWriter
	settings SettingsReader
	log      *zap.Logger
	now      func() time.Time
}

func newEngine(d Deps) engine {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return engine{
		store:    d.Store,
		access:   d.Access,
		notifier: d.Notifier,
		notes:    d.CareNotes,
		settings: d.Settings,
		log:      log,
		now:      now,
	}
}

// sideEffect runs fn and logs a failure instead of returning it.
func (e *engine) sideEffect(name string, fn func() error, fields ...zap.Field) {
	if err := fn(); err != nil {
		e.log.Warn("workflow side effect failed",
			append(fields, zap.String("effect", name), zap.Error(err))...)
	}
}

func (e *engine) emit(ctx context.Context, m notify.Message) {
	e.sideEffect("notify:"+string(m.Type), func() error {
		return e.notifier.Emit(ctx, m)
	}, zap.String("recipient", m.UserID))
}

func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
