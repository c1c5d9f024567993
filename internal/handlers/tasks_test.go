package handlers

import (
	"testing"

	"github.com/vaais251/studytimer-api/internal/models"
	"github.com/vaais251/studytimer-api/internal/validation"
)

func TestValidatePomEstimate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		totalPoms int
		wantErr   bool
	}{
		{
			name:      "single pomodoro",
			totalPoms: 1,
			wantErr:   false,
		},
		{
			name:      "maximum estimate",
			totalPoms: MaxPomEstimate,
			wantErr:   false,
		},
		{
			name:      "stopwatch sentinel",
			totalPoms: models.StopwatchPoms,
			wantErr:   false,
		},
		{
			name:      "zero estimate",
			totalPoms: 0,
			wantErr:   true,
		},
		{
			name:      "over maximum",
			totalPoms: MaxPomEstimate + 1,
			wantErr:   true,
		},
		{
			name:      "negative below sentinel",
			totalPoms: -2,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validatePomEstimate(tt.totalPoms)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePomEstimate(%d) error = %v, wantErr %v", tt.totalPoms, err, tt.wantErr)
			}
		})
	}
}

func TestCreateTaskRequest_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     CreateTaskRequest
		wantErr bool
	}{
		{
			name:    "minimal valid request",
			req:     CreateTaskRequest{Text: "Read chapter 4"},
			wantErr: false,
		},
		{
			name:    "empty text rejected",
			req:     CreateTaskRequest{Text: ""},
			wantErr: true,
		},
		{
			name: "too many tags rejected",
			req: CreateTaskRequest{
				Text: "Over-tagged",
				Tags: make([]string, MaxTagsPerTask+1),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validation.Validate.Struct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validation error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogSessionRequest_RequiresDuration(t *testing.T) {
	t.Parallel()

	if err := validation.Validate.Struct(LogSessionRequest{}); err == nil {
		t.Error("Expected validation error for missing duration_minutes")
	}

	if err := validation.Validate.Struct(LogSessionRequest{DurationMinutes: 25}); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}
