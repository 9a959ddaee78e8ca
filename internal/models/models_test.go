package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRequest_ToolType(t *testing.T) {
	tests := []struct {
		name     string
		req      TaskRequest
		expected string
	}{
		{name: "default", req: TaskRequest{}, expected: DefaultSource},
		{name: "form source", req: TaskRequest{Source: "printedwaste"}, expected: "printedwaste"},
		{name: "hint wins", req: TaskRequest{Source: "search", SourceHint: "repo/b"}, expected: "repo/b"},
		{name: "blank hint ignored", req: TaskRequest{Source: "cysaw", SourceHint: "  "}, expected: "cysaw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.req.ToolType())
		})
	}
}

func TestTaskStatus_SelectionRequest(t *testing.T) {
	flags := &Flags{AutoUpdate: true}
	sources := []SourceCandidate{{RepositoryID: "repo/a"}, {RepositoryID: "repo/b"}}

	tests := []struct {
		name          string
		status        *TaskStatus
		expectedOK    bool
		expectedCount int
		expectedFlags *Flags
	}{
		{name: "nil status", status: nil},
		{name: "running", status: &TaskStatus{State: TaskStateRunning}},
		{name: "plain completed", status: &TaskStatus{State: TaskStateCompleted, Result: &TaskResult{Success: true}}},
		{
			name:          "native form",
			status:        &TaskStatus{State: TaskStateNeedsSelection, Selection: &SelectionRequest{Candidates: sources, Flags: flags}},
			expectedOK:    true,
			expectedCount: 2,
			expectedFlags: flags,
		},
		{
			name:          "native state with result body",
			status:        &TaskStatus{State: TaskStateNeedsSelection, Result: &TaskResult{Sources: sources, Context: flags}},
			expectedOK:    true,
			expectedCount: 2,
			expectedFlags: flags,
		},
		{
			name:       "native state without candidates",
			status:     &TaskStatus{State: TaskStateNeedsSelection},
			expectedOK: true,
		},
		{
			name:          "completed with action_required",
			status:        &TaskStatus{State: TaskStateCompleted, Result: &TaskResult{ActionRequired: ActionSelectSource, Sources: sources, Context: flags}},
			expectedOK:    true,
			expectedCount: 2,
			expectedFlags: flags,
		},
		{
			name:          "error with action_required",
			status:        &TaskStatus{State: TaskStateError, Result: &TaskResult{ActionRequired: ActionNeedsSelection, Sources: sources}},
			expectedOK:    true,
			expectedCount: 2,
		},
		{
			name:   "running with action_required is not a selection",
			status: &TaskStatus{State: TaskStateRunning, Result: &TaskResult{ActionRequired: ActionSelectSource, Sources: sources}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, ok := tt.status.SelectionRequest()

			assert.Equal(t, tt.expectedOK, ok)
			if !tt.expectedOK {
				assert.Nil(t, sel)
				return
			}
			require.NotNil(t, sel)
			assert.Len(t, sel.Candidates, tt.expectedCount)
			assert.Equal(t, tt.expectedFlags, sel.Flags)
		})
	}
}

func TestTaskStatus_DecodeServerBody(t *testing.T) {
	body := `{
		"status": "completed",
		"progress": [{"type": "info", "message": "searching"}],
		"result": {
			"success": false,
			"message": "multiple sources",
			"action_required": "select_source",
			"sources": [{"repo": "owner/manifests", "sha": "abc", "tree": "t", "update_date": "2025-03-01T10:00:00Z"}],
			"context": {"use_st_auto_update": true, "add_all_dlc": false, "patch_depot_key": true}
		}
	}`

	var status TaskStatus
	require.NoError(t, json.Unmarshal([]byte(body), &status))

	sel, ok := status.SelectionRequest()
	require.True(t, ok)
	require.Len(t, sel.Candidates, 1)
	assert.Equal(t, "owner/manifests", sel.Candidates[0].RepositoryID)
	assert.Equal(t, &Flags{AutoUpdate: true, PatchDepotKey: true}, sel.Flags)
	assert.Len(t, status.Progress, 1)
}

func TestSourceCandidate_UpdatedAt(t *testing.T) {
	tests := []struct {
		value      string
		expectedOK bool
		expected   time.Time
	}{
		{value: "2025-03-01T10:00:00Z", expectedOK: true, expected: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{value: "2025-03-01 10:00:00", expectedOK: true, expected: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{value: "2025-03-01", expectedOK: true, expected: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{value: "yesterday"},
		{value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := SourceCandidate{LastUpdated: tt.value}.UpdatedAt()

			assert.Equal(t, tt.expectedOK, ok)
			if tt.expectedOK {
				assert.True(t, tt.expected.Equal(got))
			}
		})
	}
}

func TestAppID_UnmarshalJSON(t *testing.T) {
	var resp SearchGameResponse
	body := `{"success": true, "games": [{"appid": 730, "name": "Counter-Strike 2"}, {"appid": "570", "name": "Dota 2"}]}`

	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	require.Len(t, resp.Games, 2)
	assert.Equal(t, AppID("730"), resp.Games[0].AppID)
	assert.Equal(t, AppID("570"), resp.Games[1].AppID)

	var bad AppID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &bad))
}

func TestNotificationKind_IsOutcome(t *testing.T) {
	assert.True(t, NotificationCompleted.IsOutcome())
	assert.True(t, NotificationAborted.IsOutcome())
	assert.False(t, NotificationBusy.IsOutcome())
	assert.False(t, NotificationValidation.IsOutcome())
	assert.False(t, TaskStateRunning.IsTerminal())
	assert.True(t, TaskStateError.IsTerminal())
}
