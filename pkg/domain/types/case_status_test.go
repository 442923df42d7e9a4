package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/intake/pkg/domain/types"
)

func TestCaseStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status types.CaseStatus
		want   bool
	}{
		{name: "new", status: types.CaseStatusNew, want: true},
		{name: "in progress", status: types.CaseStatusInProgress, want: true},
		{name: "completed", status: types.CaseStatusCompleted, want: true},
		{name: "unknown", status: types.CaseStatus("closed"), want: false},
		{name: "empty", status: types.CaseStatus(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.status.IsValid()).Equal(tt.want)
		})
	}
}

func TestParseCaseStatus(t *testing.T) {
	t.Run("valid code", func(t *testing.T) {
		got, err := types.ParseCaseStatus("in_progress")
		gt.NoError(t, err)
		gt.Value(t, got).Equal(types.CaseStatusInProgress)
	})

	t.Run("label is not a code", func(t *testing.T) {
		_, err := types.ParseCaseStatus("対応中")
		gt.Error(t, err)
	})
}

func TestCaseStatusFromLabel(t *testing.T) {
	tests := map[string]types.CaseStatus{
		"対応中":         types.CaseStatusInProgress,
		"in_progress": types.CaseStatusInProgress,
		"完了":          types.CaseStatusCompleted,
		"completed":   types.CaseStatusCompleted,
		"":            types.CaseStatusNew,
		"保留":          types.CaseStatusNew,
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			gt.Value(t, types.CaseStatusFromLabel(input)).Equal(want)
		})
	}
}

func TestCaseStatus_Normalize(t *testing.T) {
	gt.Value(t, types.CaseStatus("").Normalize()).Equal(types.CaseStatusNew)
	gt.Value(t, types.CaseStatusCompleted.Normalize()).Equal(types.CaseStatusCompleted)
}
