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
	"homecare-app-server/internal/store"
)

// ServiceRequests is the service-request state machine.
type ServiceRequests struct {
	engine
}

// NewServiceRequests creates the service-request engine.
func NewServiceRequests(d Deps) *ServiceRequests {
	return &ServiceRequests{engine: newEngine(d)}
}

// NewServiceRequest is the create payload.
type NewServiceRequest struct {
	PatientID         string     `json:"patientId"`
	CaregiverID       string     `json:"caregiverId"`
	ServiceTypeID     string     `json:"serviceTypeId"`
	Title             string     `json:"title" binding:"required"`
	Description       string     `json:"description"`
	CustomDescription string     `json:"customDescription"`
	Priority          string     `json:"priority"`
	Notes             string     `json:"notes"`
	PreferredDate     *time.Time `json:"preferredDate"`
}

// ServiceRequestUpdate is the PATCH payload. Nil fields are left alone; fields
// the caller's role may not change are ignored.
type ServiceRequestUpdate struct {
	// patient
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	CustomDescription *string    `json:"customDescription"`
	Priority          *string    `json:"priority"`
	PreferredDate     *time.Time `json:"preferredDate"`
	Notes             *string    `json:"notes"`

	// caregiver, reviewer
	Status *string `json:"status"`

	// caregiver
	ScheduledDate  *time.Time `json:"scheduledDate"`
	CaregiverNotes *string    `json:"caregiverNotes"`
	Outcome        *string    `json:"outcome"`
	CompletedDate  *time.Time `json:"completedDate"`

	// reviewer
	ReviewerNotes   *string `json:"reviewerNotes"`
	RejectionReason *string `json:"rejectionReason"`
}

// Create files a new request for a patient. Patients file for themselves;
// admins name the patient. The caregiver must be actively assigned.
func (s *ServiceRequests) Create(ctx context.Context, p access.Principal, in NewServiceRequest) (*models.ServiceRequest, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var patient *models.Patient
	switch p.Role {
	case models.RolePatient:
		patient, err = s.store.GetPatientByUserID(ctx, p.ID)
		if err != nil {
			return nil, notFound(err, "patient profile")
		}
	case models.RoleAdmin, models.RoleSuperAdmin:
		if in.PatientID == "" {
			return nil, fmt.Errorf("%w: patientId is required", ErrValidation)
		}
		patient, err = s.store.GetPatient(ctx, in.PatientID)
		if err != nil {
			return nil, notFound(err, "patient")
		}
	case models.RoleCaregiver, models.RoleReviewer:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}

	caregiverID := in.CaregiverID
	if caregiverID != "" {
		ok, err := s.store.HasActiveCaregiverAssignment(ctx, caregiverID, patient.ID)
		if err != nil {
			return nil, fmt.Errorf("check caregiver assignment: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: caregiver %s is not assigned to this patient", ErrNoActiveCaregiver, caregiverID)
		}
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

	sr := &models.ServiceRequest{
		PatientID:         patient.ID,
		CaregiverID:       caregiverID,
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		CustomDescription: in.CustomDescription,
		Priority:          priority,
		Status:            models.RequestPending,
		RequestedDate:     s.now(),
		PreferredDate:     in.PreferredDate,
		Notes:             in.Notes,
	}
	if in.ServiceTypeID != "" {
		id := in.ServiceTypeID
		sr.ServiceTypeID = &id
	}
	if err := s.store.CreateServiceRequest(ctx, sr); err != nil {
		return nil, fmt.Errorf("create service request: %w", err)
	}
	sr.Patient = *patient

	s.emit(ctx, notify.Message{
		UserID:           caregiverID,
		Type:             models.NotifyNewServiceRequest,
		Title:            "New Service Request",
		Body:             fmt.Sprintf("%s requested \"%s\".", patientName(patient), sr.Title),
		ActionURL:        requestURL(sr.ID),
		ActionLabel:      "View request",
		ServiceRequestID: sr.ID,
		Priority:         notificationPriority(sr.Priority),
	})
	s.sideEffect("notify:reviewer", func() error {
		a, err := s.store.ActiveReviewerForPatient(ctx, patient.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.notifier.Emit(ctx, notify.Message{
			UserID:           a.ReviewerID,
			Type:             models.NotifyServiceRequestReview,
			Title:            "Service Request Awaiting Review",
			Body:             fmt.Sprintf("\"%s\" from %s is waiting for approval.", sr.Title, patientName(patient)),
			ActionURL:        requestURL(sr.ID),
			ActionLabel:      "Review",
			ServiceRequestID: sr.ID,
		})
	}, zap.String("service_request_id", sr.ID))

	return sr, nil
}

// Get loads one request if p may see it.
func (s *ServiceRequests) Get(ctx context.Context, p access.Principal, id string) (*models.ServiceRequest, error) {
	sr, err := s.store.GetServiceRequest(ctx, id)
	if err != nil {
		return nil, notFound(err, "service request")
	}
	ok, err := s.access.CanAccessServiceRequest(ctx, p, sr)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	if !ok {
		return nil, ErrForbidden
	}
	return sr, nil
}

// List returns the requests visible to p, optionally filtered by status.
func (s *ServiceRequests) List(ctx context.Context, p access.Principal, status string) ([]models.ServiceRequest, error) {
	f := store.ListFilter{}
	if status != "" {
		st, err := models.ParseServiceRequestStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		f.Status = string(st)
	}
	switch p.Role {
	case models.RoleAdmin, models.RoleSuperAdmin:
	case models.RolePatient:
		patient, err := s.store.GetPatientByUserID(ctx, p.ID)
		if err != nil {
			return nil, notFound(err, "patient profile")
		}
		f.PatientIDs = []string{patient.ID}
	case models.RoleCaregiver:
		f.CaregiverID = p.ID
	case models.RoleReviewer:
		ids, err := s.store.PatientIDsForReviewer(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("load reviewer patients: %w", err)
		}
		f.PatientIDs = ids
	default:
		return nil, ErrForbidden
	}
	list, err := s.store.ListServiceRequests(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list service requests: %w", err)
	}
	return list, nil
}

// Update applies a role-gated change and its side effects.
func (s *ServiceRequests) Update(ctx context.Context, p access.Principal, id string, in ServiceRequestUpdate) (*models.ServiceRequest, error) {
	sr, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	var newStatus models.ServiceRequestStatus
	switch p.Role {
	case models.RolePatient:
		if err := applyPatientChanges(sr, in); err != nil {
			return nil, err
		}
	case models.RoleCaregiver:
		if newStatus, err = s.applyCaregiverChanges(sr, in); err != nil {
			return nil, err
		}
	case models.RoleReviewer, models.RoleAdmin, models.RoleSuperAdmin:
		if newStatus, err = s.applyReviewerChanges(sr, p, in); err != nil {
			return nil, err
		}
	default:
		return nil, ErrForbidden
	}

	if err := s.store.SaveServiceRequest(ctx, sr); err != nil {
		return nil, fmt.Errorf("save service request: %w", err)
	}
	s.log.Info("service request updated",
		zap.String("service_request_id", sr.ID),
		zap.String("actor", p.ID),
		zap.String("role", string(p.Role)),
		zap.String("status", string(sr.Status)),
	)

	switch {
	case newStatus != "":
		s.afterTransition(ctx, p, sr, newStatus)
	case p.Role == models.RoleCaregiver && in.ScheduledDate != nil && sr.Status == models.RequestScheduled:
		s.sideEffect("link-schedule", func() error { return s.linkSchedule(ctx, sr) },
			zap.String("service_request_id", sr.ID))
	}
	return sr, nil
}

// Delete removes a request. The owning patient may withdraw it while it is
// still pending; admins may delete any request.
func (s *ServiceRequests) Delete(ctx context.Context, p access.Principal, id string) error {
	sr, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	switch p.Role {
	case models.RoleAdmin, models.RoleSuperAdmin:
	case models.RolePatient:
		if sr.Status != models.RequestPending {
			return ErrNotEditable
		}
	case models.RoleCaregiver, models.RoleReviewer:
		return ErrForbidden
	default:
		return ErrForbidden
	}
	if err := s.store.DeleteServiceRequest(ctx, sr.ID); err != nil {
		return fmt.Errorf("delete service request: %w", err)
	}
	s.cancelLinkedSchedules(ctx, sr, "Service request withdrawn")
	if sr.CaregiverID != "" && sr.Status != models.RequestCompleted {
		s.emit(ctx, notify.Message{
			UserID: sr.CaregiverID,
			Type:   models.NotifyServiceRequestCancelled,
			Title:  "Service Request Withdrawn",
			Body:   fmt.Sprintf("\"%s\" for %s was withdrawn.", sr.Title, patientName(&sr.Patient)),
		})
	}
	return nil
}

func applyPatientChanges(sr *models.ServiceRequest, in ServiceRequestUpdate) error {
	if !sr.Status.PatientEditable() {
		return fmt.Errorf("%w: status is %s", ErrNotEditable, sr.Status)
	}
	if in.Priority != nil {
		pr, err := models.ParsePriority(*in.Priority)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		sr.Priority = pr
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		sr.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		sr.Description = *in.Description
	}
	if in.CustomDescription != nil {
		sr.CustomDescription = *in.CustomDescription
	}
	if in.PreferredDate != nil {
		sr.PreferredDate = in.PreferredDate
	}
	if in.Notes != nil {
		sr.Notes = *in.Notes
	}
	return nil
}

var caregiverRequestStatuses = map[models.ServiceRequestStatus]bool{
	models.RequestScheduled:  true,
	models.RequestInProgress: true,
	models.RequestCompleted:  true,
	models.RequestCancelled:  true,
}

func (s *ServiceRequests) applyCaregiverChanges(sr *models.ServiceRequest, in ServiceRequestUpdate) (models.ServiceRequestStatus, error) {
	var next models.ServiceRequestStatus
	if in.Status != nil {
		st, err := models.ParseServiceRequestStatus(*in.Status)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if !caregiverRequestStatuses[st] {
			return "", fmt.Errorf("%w: caregivers cannot set %s", ErrInvalidStatus, st)
		}
		if sr.Status.Terminal() {
			return "", fmt.Errorf("%w: request is already %s", ErrInvalidTransition, sr.Status)
		}
		next = st
	}
	if in.ScheduledDate != nil {
		sr.ScheduledDate = in.ScheduledDate
	}
	if in.CaregiverNotes != nil {
		sr.CaregiverNotes = *in.CaregiverNotes
	}
	if in.Outcome != nil {
		sr.Outcome = *in.Outcome
	}
	if in.CompletedDate != nil {
		sr.CompletedDate = in.CompletedDate
	}
	if next != "" {
		sr.Status = next
		if next == models.RequestCompleted && sr.CompletedDate == nil {
			now := s.now()
			sr.CompletedDate = &now
		}
	}
	return next, nil
}

func (s *ServiceRequests) applyReviewerChanges(sr *models.ServiceRequest, p access.Principal, in ServiceRequestUpdate) (models.ServiceRequestStatus, error) {
	var next models.ServiceRequestStatus
	if in.Status != nil {
		st, err := models.ParseServiceRequestStatus(*in.Status)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if st != models.RequestApproved && st != models.RequestRejected {
			return "", fmt.Errorf("%w: reviewers can only approve or reject", ErrInvalidStatus)
		}
		if sr.Status != models.RequestPending {
			return "", fmt.Errorf("%w: only pending requests can be reviewed, request is %s", ErrInvalidTransition, sr.Status)
		}
		next = st
	}
	if in.ReviewerNotes != nil {
		sr.ReviewerNotes = *in.ReviewerNotes
	}
	if in.RejectionReason != nil {
		sr.RejectionReason = *in.RejectionReason
	}
	switch next {
	case models.RequestApproved:
		now := s.now()
		approver := p.ID
		sr.Status = next
		sr.ApprovedByID = &approver
		sr.ApprovedDate = &now
	case models.RequestRejected:
		sr.Status = next
	}
	return next, nil
}

func (s *ServiceRequests) afterTransition(ctx context.Context, p access.Principal, sr *models.ServiceRequest, st models.ServiceRequestStatus) {
	patientUser := sr.Patient.UserID
	base := notify.Message{
		UserID:           patientUser,
		ActionURL:        requestURL(sr.ID),
		ActionLabel:      "View request",
		ServiceRequestID: sr.ID,
	}
	fields := []zap.Field{zap.String("service_request_id", sr.ID)}

	switch p.Role {
	case models.RoleCaregiver:
		switch st {
		case models.RequestScheduled:
			m := base
			m.Type = models.NotifyServiceRequestScheduled
			m.Title = "Service Scheduled"
			m.Body = fmt.Sprintf("\"%s\" has been scheduled%s.", sr.Title, onDate(sr.ScheduledDate))
			s.emit(ctx, m)
			s.sideEffect("link-schedule", func() error { return s.linkSchedule(ctx, sr) }, fields...)
		case models.RequestCompleted:
			m := base
			m.Type = models.NotifyServiceRequestCompleted
			m.Title = "Service Completed"
			m.Body = fmt.Sprintf("\"%s\" has been completed.", sr.Title)
			s.emit(ctx, m)
			s.sideEffect("complete-schedules", func() error {
				n, err := s.store.CompleteSchedulesForRequest(ctx, sr, *sr.CompletedDate)
				if err == nil && n > 0 {
					s.log.Info("completed linked schedules", append(fields, zap.Int64("count", n))...)
				}
				return err
			}, fields...)
			if strings.TrimSpace(sr.Outcome) != "" {
				s.sideEffect("care-note", func() error {
					return s.notes.ServiceCompleted(ctx, sr, p.ID)
				}, fields...)
			}
		case models.RequestCancelled:
			s.cancelLinkedSchedules(ctx, sr, "Service request cancelled")
		case models.RequestInProgress:
		case models.RequestPending, models.RequestApproved, models.RequestRejected:
		}
	case models.RoleReviewer, models.RoleAdmin, models.RoleSuperAdmin:
		switch st {
		case models.RequestApproved:
			m := base
			m.Type = models.NotifyServiceRequestApproved
			m.Title = "Service Request Approved"
			m.Body = fmt.Sprintf("Your request \"%s\" has been approved.", sr.Title)
			s.emit(ctx, m)
			if sr.CaregiverID != "" {
				s.emit(ctx, notify.Message{
					UserID:           sr.CaregiverID,
					Type:             models.NotifyServiceRequestAssigned,
					Title:            "Service Request Approved",
					Body:             fmt.Sprintf("\"%s\" for %s is approved and ready to schedule.", sr.Title, patientName(&sr.Patient)),
					ActionURL:        requestURL(sr.ID),
					ActionLabel:      "Schedule",
					ServiceRequestID: sr.ID,
					Priority:         notificationPriority(sr.Priority),
				})
			}
		case models.RequestRejected:
			m := base
			m.Type = models.NotifyServiceRequestRejected
			m.Title = "Service Request Declined"
			m.Body = fmt.Sprintf("Your request \"%s\" was declined.", sr.Title)
			if sr.RejectionReason != "" {
				m.Body += " Reason: " + sr.RejectionReason
			}
			s.emit(ctx, m)
			s.cancelLinkedSchedules(ctx, sr, "Service request rejected")
		case models.RequestPending, models.RequestScheduled, models.RequestInProgress,
			models.RequestCompleted, models.RequestCancelled:
		}
	case models.RolePatient:
	}
}

// linkSchedule creates the visit for a newly scheduled request. When one is
// already linked, its open visits move to the request's scheduled date.
func (s *ServiceRequests) linkSchedule(ctx context.Context, sr *models.ServiceRequest) error {
	if sr.ScheduledDate == nil {
		return nil
	}
	exists, err := s.store.HasScheduleForRequest(ctx, sr.ID)
	if err != nil {
		return err
	}
	if exists {
		_, err := s.store.RescheduleLinkedSchedules(ctx, sr.ID, *sr.ScheduledDate)
		return err
	}
	id := sr.ID
	return s.store.CreateSchedule(ctx, &models.CaregiverSchedule{
		PatientID:         sr.PatientID,
		CaregiverID:       sr.CaregiverID,
		ServiceRequestID:  &id,
		ScheduleType:      models.ScheduleTypeService,
		Title:             sr.Title,
		Description:       sr.Description,
		ScheduledDate:     *sr.ScheduledDate,
		EstimatedDuration: 60,
		Priority:          sr.Priority,
		Status:            models.ScheduleScheduled,
	})
}

// cancelLinkedSchedules cancels open visits linked to sr.
func (s *ServiceRequests) cancelLinkedSchedules(ctx context.Context, sr *models.ServiceRequest, reason string) {
	fields := []zap.Field{zap.String("service_request_id", sr.ID)}
	s.sideEffect("cancel-schedules", func() error {
		n, err := s.store.CancelSchedulesForRequest(ctx, sr.ID, reason)
		if err == nil && n > 0 {
			s.log.Info("cancelled linked schedules", append(fields, zap.Int64("count", n))...)
		}
		return err
	}, fields...)
}

func requestURL(id string) string {
	return "/service-requests/" + id
}

func patientName(p *models.Patient) string {
	if name := p.User.FullName(); name != "" {
		return name
	}
	return "your patient"
}

func onDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return " for " + t.Format("Jan 2, 2006 15:04")
}

func notificationPriority(p models.Priority) models.NotificationPriority {
	switch p {
	case models.PriorityHigh, models.PriorityCritical:
		return models.NotificationPriorityHigh
	case models.PriorityLow:
		return models.NotificationPriorityLow
	case models.PriorityMedium:
		return models.NotificationPriorityNormal
	}
	return models.NotificationPriorityNormal
}
