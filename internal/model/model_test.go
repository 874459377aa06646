package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReservationStatus_Valid(t *testing.T) {
	t.Parallel()
	for _, s := range []ReservationStatus{
		ReservationStatusPending, ReservationStatusApproved, ReservationStatusRejected,
		ReservationStatusCompleted, ReservationStatusCancelled,
	} {
		require.True(t, s.Valid(), string(s))
	}
	require.False(t, ReservationStatus("").Valid())
	require.False(t, ReservationStatus("pending").Valid())
	require.False(t, ReservationStatus("DONE").Valid())
}

func TestReservationStatus_CanTransition(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		from ReservationStatus
		to   ReservationStatus
		ok   bool
	}{
		{ReservationStatusPending, ReservationStatusApproved, true},
		{ReservationStatusPending, ReservationStatusRejected, true},
		{ReservationStatusPending, ReservationStatusCancelled, true},
		{ReservationStatusPending, ReservationStatusCompleted, false},
		{ReservationStatusApproved, ReservationStatusCompleted, true},
		{ReservationStatusApproved, ReservationStatusCancelled, true},
		{ReservationStatusApproved, ReservationStatusPending, false},
		{ReservationStatusApproved, ReservationStatusRejected, false},
		{ReservationStatusRejected, ReservationStatusApproved, false},
		{ReservationStatusCompleted, ReservationStatusCancelled, false},
		{ReservationStatusCancelled, ReservationStatusPending, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestReservationStatus_Committed(t *testing.T) {
	t.Parallel()
	require.True(t, ReservationStatusPending.Committed())
	require.True(t, ReservationStatusApproved.Committed())
	require.False(t, ReservationStatusRejected.Committed())
	require.False(t, ReservationStatusCompleted.Committed())
	require.False(t, ReservationStatusCancelled.Committed())
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-09-01"`), &d))
	require.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), d.Time)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"2026-09-01"`, string(b))

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	require.True(t, d.IsZero())

	require.Error(t, json.Unmarshal([]byte(`"01.09.2026"`), &d))
}

func TestCreateReservationRequest_JSON(t *testing.T) {
	t.Parallel()

	var req CreateReservationRequest
	body := `{"itemUid":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","quantity":2,"startDate":"2026-09-01","endDate":"2026-09-07","studentName":"Sam Lee","studentId":"s123","notes":"shoot"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Equal(t, CreateReservationRequest{
		ItemUid:     "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
		Quantity:    2,
		StartDate:   Date{Time: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		EndDate:     Date{Time: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)},
		StudentName: "Sam Lee",
		StudentID:   "s123",
		Notes:       "shoot",
	}, req)
}
