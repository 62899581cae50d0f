// Package settings exposes the admin-configurable workflow toggles stored in
// the admin_settings table.
package settings

import (
	"context"
	"fmt"
)

// Key names a known admin setting.
type Key string

const (
	SchedulesRequireApproval    Key = "caregiver_schedules_require_approval"
	CaregiversScheduleProactive Key = "caregivers_can_schedule_proactively"
	NotifyPatientsOfSchedules   Key = "notify_patients_of_caregiver_schedules"
)

// Keys lists every known key with its default value and description.
var Keys = []Definition{
	{Key: SchedulesRequireApproval, Default: "false", Description: "Caregiver schedules need reviewer approval before they are active"},
	{Key: CaregiversScheduleProactive, Default: "false", Description: "Caregivers may create schedules without an admin"},
	{Key: NotifyPatientsOfSchedules, Default: "true", Description: "Patients are notified when a caregiver schedules a visit"},
}

// Definition describes a known key.
type Definition struct {
	Key         Key
	Default     string
	Description string
}

// ParseKey validates a raw key from a request path.
func ParseKey(s string) (Key, error) {
	for _, d := range Keys {
		if string(d.Key) == s {
			return d.Key, nil
		}
	}
	return "", fmt.Errorf("unknown setting %q", s)
}

// Store is the persistence a Reader needs.
type Store interface {
	// GetSetting returns the stored value and whether a row exists.
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// Reader resolves toggles against the store, falling back to defaults.
type Reader struct {
	store Store
}

// NewReader creates a Reader.
func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

// Enabled reports whether key holds the literal value "true".
func (r *Reader) Enabled(ctx context.Context, key Key) (bool, error) {
	v, ok, err := r.store.GetSetting(ctx, string(key))
	if err != nil {
		return false, fmt.Errorf("read setting %s: %w", key, err)
	}
	if !ok {
		v = defaultFor(key)
	}
	return v == "true", nil
}

// Describe returns the human description of key.
func Describe(key Key) string {
	for _, d := range Keys {
		if d.Key == key {
			return d.Description
		}
	}
	return ""
}

func defaultFor(key Key) string {
	for _, d := range Keys {
		if d.Key == key {
			return d.Default
		}
	}
	return ""
}
