package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/notify"
	"homecare-app-server/internal/settings"
	"homecare-app-server/internal/store"
)

// Schedules is the caregiver-schedule state machine.
type Schedules struct {
	engine
}

// NewSchedules creates the schedule engine.
func NewSchedules(d Deps) *Schedules {
	return &Schedules{engine: newEngine(d)}
}

// NewSchedule is the create payload.
type NewSchedule struct {
	PatientID         string    `json:"patientId" binding:"required"`
	ScheduleType      string    `json:"scheduleType"`
	Title             string    `json:"title" binding:"required"`
	Description       string    `json:"description"`
	ScheduledDate     time.Time `json:"scheduledDate" binding:"required"`
	EstimatedDuration int       `json:"estimatedDuration"`
	Priority          string    `json:"priority"`
	IsRecurring       bool      `json:"isRecurring"`
	RecurrencePattern string    `json:"recurrencePattern"`
	Notes             string    `json:"notes"`
	ServiceRequestID  string    `json:"serviceRequestId"`
}

// ScheduleUpdate is the PATCH payload. Status is required.
type ScheduleUpdate struct {
	Status *string `json:"status"`

	// caregiver
	CompletionNotes *string    `json:"completionNotes"`
	Outcome         *string    `json:"outcome"`
	CompletedDate   *time.Time `json:"completedDate"`
	CancelledReason *string    `json:"cancelledReason"`

	// reviewer, super_admin
	Notes *string `json:"notes"`
}

// Create plans a visit. Caregivers schedule for patients they are assigned to,
// and only when proactive scheduling is switched on. Admins schedule on behalf
// of the patient's active caregiver.
func (s *Schedules) Create(ctx context.Context, p access.Principal, in NewSchedule) (*models.CaregiverSchedule, error) {
	switch p.Role {
	case models.RoleCaregiver, models.RoleAdmin, models.RoleSuperAdmin:
	case models.RolePatient, models.RoleReviewer:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}

	if in.PatientID == "" || strings.TrimSpace(in.Title) == "" || in.ScheduledDate.IsZero() {
		return nil, fmt.Errorf("%w: patientId, title and scheduledDate are required", ErrValidation)
	}
	kind, err := models.ParseScheduleType(in.ScheduleType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	patient, err := s.store.GetPatient(ctx, in.PatientID)
	if err != nil {
		return nil, notFound(err, "patient")
	}

	var caregiverID string
	if p.Role == models.RoleCaregiver {
		proactive, err := s.settings.Enabled(ctx, settings.CaregiversScheduleProactive)
		if err != nil {
			return nil, fmt.Errorf("read setting: %w", err)
		}
		if !proactive {
			return nil, ErrProactiveDisabled
		}
		ok, err := s.store.HasActiveCaregiverAssignment(ctx, p.ID, patient.ID)
		if err != nil {
			return nil, fmt.Errorf("check caregiver assignment: %w", err)
		}
		if !ok {
			return nil, ErrForbidden
		}
		caregiverID = p.ID
	} else {
		a, err := s.store.ActiveCaregiverForPatient(ctx, patient.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNoActiveCaregiver
			}
			return nil, fmt.Errorf("load caregiver assignment: %w", err)
		}
		caregiverID = a.CaregiverID
	}

	requiresApproval, err := s.settings.Enabled(ctx, settings.SchedulesRequireApproval)
	if err != nil {
		return nil, fmt.Errorf("read setting: %w", err)
	}
	status := models.ScheduleScheduled
	if requiresApproval {
		status = models.SchedulePendingApproval
	}

	cs := &models.CaregiverSchedule{
		PatientID:         patient.ID,
		CaregiverID:       caregiverID,
		ScheduleType:      kind,
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		ScheduledDate:     in.ScheduledDate,
		EstimatedDuration: in.EstimatedDuration,
		Priority:          priority,
		IsRecurring:       in.IsRecurring,
		RecurrencePattern: in.RecurrencePattern,
		RequiresApproval:  requiresApproval,
		Status:            status,
		Notes:             in.Notes,
	}
	if cs.EstimatedDuration <= 0 {
		cs.EstimatedDuration = 60
	}
	if in.ServiceRequestID != "" {
		id := in.ServiceRequestID
		cs.ServiceRequestID = &id
	}
	if err := s.store.CreateSchedule(ctx, cs); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	cs.Patient = *patient

	fields := []zap.Field{zap.String("schedule_id", cs.ID)}
	s.sideEffect("notify:patient", func() error {
		on, err := s.settings.Enabled(ctx, settings.NotifyPatientsOfSchedules)
		if err != nil || !on {
			return err
		}
		return s.notifier.Emit(ctx, notify.Message{
			UserID:      patient.UserID,
			Type:        models.NotifyScheduleCreated,
			Title:       "Visit Scheduled",
			Body:        fmt.Sprintf("\"%s\" is planned for %s.", cs.Title, cs.ScheduledDate.Format("Jan 2, 2006 15:04")),
			ActionURL:   scheduleURL(cs.ID),
			ActionLabel: "View visit",
			ScheduleID:  cs.ID,
		})
	}, fields...)
	if requiresApproval {
		s.sideEffect("notify:reviewer", func() error {
			a, err := s.store.ActiveReviewerForPatient(ctx, patient.ID)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return s.notifier.Emit(ctx, notify.Message{
				UserID:      a.ReviewerID,
				Type:        models.NotifySchedulePendingApproval,
				Title:       "Visit Awaiting Approval",
				Body:        fmt.Sprintf("\"%s\" for %s needs approval.", cs.Title, patientName(patient)),
				ActionURL:   scheduleURL(cs.ID),
				ActionLabel: "Review",
				ScheduleID:  cs.ID,
				Priority:    notificationPriority(cs.Priority),
			})
		}, fields...)
	}
	return cs, nil
}

// Get loads one schedule if p may see it.
func (s *Schedules) Get(ctx context.Context, p access.Principal, id string) (*models.CaregiverSchedule, error) {
	cs, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, notFound(err, "schedule")
	}
	ok, err := s.access.CanAccessSchedule(ctx, p, cs)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	if !ok {
		return nil, ErrForbidden
	}
	return cs, nil
}

// List returns the schedules visible to p. Patients see visits through their
// service requests, not here.
func (s *Schedules) List(ctx context.Context, p access.Principal, status string) ([]models.CaregiverSchedule, error) {
	f := store.ListFilter{}
	if status != "" {
		st, err := models.ParseScheduleStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		f.Status = string(st)
	}
	switch p.Role {
	case models.RoleAdmin, models.RoleSuperAdmin:
	case models.RoleCaregiver:
		f.CaregiverID = p.ID
	case models.RoleReviewer:
		ids, err := s.store.PatientIDsForReviewer(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("load reviewer patients: %w", err)
		}
		f.PatientIDs = ids
	case models.RolePatient:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}
	list, err := s.store.ListSchedules(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return list, nil
}

// Update changes a schedule's status. The admin role is read-only here.
func (s *Schedules) Update(ctx context.Context, p access.Principal, id string, in ScheduleUpdate) (*models.CaregiverSchedule, error) {
	if p.Role == models.RoleAdmin {
		return nil, ErrReadOnlyRole
	}
	if in.Status == nil || strings.TrimSpace(*in.Status) == "" {
		return nil, fmt.Errorf("%w: status is required", ErrValidation)
	}
	next, err := models.ParseScheduleStatus(*in.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	cs, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	prev := cs.Status

	switch p.Role {
	case models.RoleCaregiver:
		if err := s.applyCaregiverChanges(cs, next, in); err != nil {
			return nil, err
		}
	case models.RoleReviewer, models.RoleSuperAdmin:
		if err := applyReviewerChanges(cs, p, next, in); err != nil {
			return nil, err
		}
	case models.RoleAdmin, models.RolePatient:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}

	if err := s.store.SaveSchedule(ctx, cs); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	s.log.Info("schedule updated",
		zap.String("schedule_id", cs.ID),
		zap.String("actor", p.ID),
		zap.String("role", string(p.Role)),
		zap.String("from", string(prev)),
		zap.String("to", string(cs.Status)),
	)
	s.afterTransition(ctx, p, cs, prev)
	return cs, nil
}

// Delete removes a schedule. Caregivers may delete their own; super_admin any.
// The patient always gets one "Visit Cancelled" notification.
func (s *Schedules) Delete(ctx context.Context, p access.Principal, id string) error {
	if p.Role == models.RoleAdmin {
		return ErrReadOnlyRole
	}
	cs, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return notFound(err, "schedule")
	}
	switch p.Role {
	case models.RoleSuperAdmin:
	case models.RoleCaregiver:
		if cs.CaregiverID != p.ID {
			return ErrForbidden
		}
	case models.RoleAdmin, models.RoleReviewer, models.RolePatient:
		return ErrForbidden
	default:
		return ErrForbidden
	}
	if err := s.store.DeleteSchedule(ctx, cs.ID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	s.emit(ctx, notify.Message{
		UserID: cs.Patient.UserID,
		Type:   models.NotifyVisitCancelled,
		Title:  "Visit Cancelled",
		Body:   fmt.Sprintf("Your visit \"%s\" on %s has been cancelled.", cs.Title, cs.ScheduledDate.Format("Jan 2, 2006")),
	})
	return nil
}

func (s *Schedules) applyCaregiverChanges(cs *models.CaregiverSchedule, next models.ScheduleStatus, in ScheduleUpdate) error {
	switch next {
	case models.ScheduleCompleted:
		if cs.Status != models.ScheduleScheduled {
			return fmt.Errorf("%w: cannot complete a %s visit", ErrInvalidTransition, cs.Status)
		}
	case models.ScheduleCancelled:
		if cs.Status.Terminal() {
			return fmt.Errorf("%w: visit is already %s", ErrInvalidTransition, cs.Status)
		}
	case models.ScheduleScheduled, models.SchedulePendingApproval:
		return fmt.Errorf("%w: caregivers can only complete or cancel", ErrInvalidStatus)
	}
	if in.CompletionNotes != nil {
		cs.CompletionNotes = *in.CompletionNotes
	}
	if in.Outcome != nil {
		cs.Outcome = *in.Outcome
	}
	if in.CompletedDate != nil {
		cs.CompletedDate = in.CompletedDate
	}
	if in.CancelledReason != nil {
		cs.CancelledReason = *in.CancelledReason
	}
	cs.Status = next
	if next == models.ScheduleCompleted && cs.CompletedDate == nil {
		now := s.now()
		cs.CompletedDate = &now
	}
	return nil
}

func applyReviewerChanges(cs *models.CaregiverSchedule, p access.Principal, next models.ScheduleStatus, in ScheduleUpdate) error {
	switch next {
	case models.ScheduleScheduled:
		if cs.Status != models.SchedulePendingApproval {
			return fmt.Errorf("%w: only pending visits can be approved", ErrInvalidTransition)
		}
		approver := p.ID
		cs.ApprovedByID = &approver
	case models.ScheduleCancelled:
		if cs.Status.Terminal() {
			return fmt.Errorf("%w: visit is already %s", ErrInvalidTransition, cs.Status)
		}
	case models.ScheduleCompleted, models.SchedulePendingApproval:
		return fmt.Errorf("%w: reviewers can only approve or cancel", ErrInvalidStatus)
	}
	if in.Notes != nil {
		cs.Notes = *in.Notes
	}
	cs.Status = next
	return nil
}

func (s *Schedules) afterTransition(ctx context.Context, p access.Principal, cs *models.CaregiverSchedule, prev models.ScheduleStatus) {
	if cs.Status == prev {
		return
	}
	fields := []zap.Field{zap.String("schedule_id", cs.ID)}
	toPatient := notify.Message{
		UserID:      cs.Patient.UserID,
		ActionURL:   scheduleURL(cs.ID),
		ActionLabel: "View visit",
		ScheduleID:  cs.ID,
	}

	switch p.Role {
	case models.RoleCaregiver:
		switch cs.Status {
		case models.ScheduleCompleted:
			m := toPatient
			m.Type = models.NotifyScheduleCompleted
			m.Title = "Visit Completed"
			m.Body = fmt.Sprintf("Your visit \"%s\" has been completed.", cs.Title)
			s.emit(ctx, m)
			if strings.TrimSpace(cs.Outcome) != "" {
				s.sideEffect("care-note", func() error {
					return s.notes.ScheduleCompleted(ctx, cs, p.ID)
				}, fields...)
			}
		case models.ScheduleCancelled:
			m := toPatient
			m.Type = models.NotifyScheduleCancelled
			m.Title = "Visit Cancelled"
			m.Body = fmt.Sprintf("Your visit \"%s\" has been cancelled.", cs.Title)
			if cs.CancelledReason != "" {
				m.Body += " Reason: " + cs.CancelledReason
			}
			s.emit(ctx, m)
		case models.ScheduleScheduled, models.SchedulePendingApproval:
		}
	case models.RoleReviewer, models.RoleSuperAdmin:
		toCaregiver := notify.Message{
			UserID:      cs.CaregiverID,
			ActionURL:   scheduleURL(cs.ID),
			ActionLabel: "View visit",
			ScheduleID:  cs.ID,
		}
		switch cs.Status {
		case models.ScheduleScheduled:
			toCaregiver.Type = models.NotifyScheduleApproved
			toCaregiver.Title = "Visit Approved"
			toCaregiver.Body = fmt.Sprintf("\"%s\" for %s has been approved.", cs.Title, patientName(&cs.Patient))
			s.emit(ctx, toCaregiver)
		case models.ScheduleCancelled:
			toCaregiver.Type = models.NotifyScheduleCancelled
			toCaregiver.Title = "Visit Cancelled"
			toCaregiver.Body = fmt.Sprintf("\"%s\" for %s was cancelled by a reviewer.", cs.Title, patientName(&cs.Patient))
			s.emit(ctx, toCaregiver)
		case models.ScheduleCompleted, models.SchedulePendingApproval:
		}
	case models.RoleAdmin, models.RolePatient:
	}
}

func scheduleURL(id string) string {
	return "/caregiver-schedules/" + id
}
