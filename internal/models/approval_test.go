package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []ApprovalStatus
		want     BookingStatus
	}{
		{"empty", nil, BookingStatusPending},
		{"all pending", []ApprovalStatus{ApprovalStatusPending, ApprovalStatusPending}, BookingStatusPending},
		{"partial", []ApprovalStatus{ApprovalStatusApproved, ApprovalStatusPending}, BookingStatusPending},
		{"unanimous", []ApprovalStatus{ApprovalStatusApproved, ApprovalStatusApproved, ApprovalStatusApproved}, BookingStatusApproved},
		{"one rejection wins", []ApprovalStatus{ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusApproved}, BookingStatusRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AggregateStatus(tc.statuses))
		})
	}
}

func TestUserRoleSet(t *testing.T) {
	u := &User{Roles: []string{"LECTURER", "DEPT_HEAD"}}
	assert.True(t, u.HasRole(RoleDeptHead))
	assert.False(t, u.HasRole(RoleAdmin))
	assert.True(t, HasAnyRole(u.RoleSet(), RoleAdmin, RoleLecturer))
	assert.True(t, RoleClassRep.Valid())
	assert.False(t, UserRole("DOSEN").Valid())
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "minggu", WeekdayName(0))
	assert.Equal(t, "jumat", WeekdayName(5))
	assert.True(t, ValidWeekday("rabu"))
	assert.False(t, ValidWeekday("Rabu"))
}
