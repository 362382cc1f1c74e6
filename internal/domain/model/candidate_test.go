package model

import (
	"testing"
	"time"
)

func TestComputeDaysLeft(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		end  time.Time
		want int
	}{
		{"full window", now.AddDate(0, 0, 20), 20},
		{"partial day rounds down", now.Add(36 * time.Hour), 1},
		{"expires today", now.Add(2 * time.Hour), 0},
		{"already past", now.AddDate(0, 0, -3), 0},
		{"exactly now", now, 0},
	}
	for _, tc := range cases {
		if got := ComputeDaysLeft(tc.end, now); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestCreateCandidateRequest_Validate(t *testing.T) {
	valid := CreateCandidateRequest{Name: "John Doe", Email: "john@example.com", LodgeID: "L1"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []CreateCandidateRequest{
		{Email: "john@example.com", LodgeID: "L1"},
		{Name: "John", LodgeID: "L1"},
		{Name: "John", Email: "not-an-email", LodgeID: "L1"},
		{Name: "John", Email: "john@example.com"},
		{Name: "John", Email: "john@example.com", LodgeID: "L1", WindowDays: -1},
	}
	for i, req := range cases {
		if err := req.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestUpdateCandidateRequest_Validate(t *testing.T) {
	bad := CandidateStatus("on-hold")
	req := UpdateCandidateRequest{Status: &bad}
	if err := req.Validate(); err == nil {
		t.Fatalf("expected invalid status to be rejected")
	}
	good := CandidateStatusApproved
	goodReq := UpdateCandidateRequest{Status: &good}
	if err := goodReq.Validate(); err != nil {
		t.Fatalf("valid status rejected: %v", err)
	}
}
