package models

import "strings"

// Mode selects the flag set and the start endpoint used for a task
type Mode string

const (
	ModeGame     Mode = "game"
	ModeWorkshop Mode = "workshop"
)

// DefaultSource makes the server search every known repository.
// A search that finds more than one match is answered with a source selection request.
const DefaultSource = "search"

// IsValid reports whether the mode is one of the supported modes
func (m Mode) IsValid() bool {
	return m == ModeGame || m == ModeWorkshop
}

// Flags holds the mode-specific switches of a task request.
// Game mode uses the first three, workshop mode the copy destinations.
type Flags struct {
	AutoUpdate    bool `json:"use_st_auto_update"`
	AddAllDLC     bool `json:"add_all_dlc"`
	PatchDepotKey bool `json:"patch_depot_key"`
	CopyToConfig  bool `json:"copy_to_config,omitempty"`
	CopyToDepot   bool `json:"copy_to_depot,omitempty"`
}

// TaskRequest represents one submission attempt
type TaskRequest struct {
	AttemptID  string `json:"attempt_id,omitempty"`
	Mode       Mode   `json:"mode"`
	Identifier string `json:"identifier"`
	// Source is the manifest source picked in the form, game mode only
	Source string `json:"source,omitempty"`
	// SourceHint is set on a resubmission after source selection
	SourceHint string `json:"source_hint,omitempty"`
	Flags      Flags  `json:"flags"`
}

// ToolType returns the source name sent to the server
func (r TaskRequest) ToolType() string {
	if hint := strings.TrimSpace(r.SourceHint); hint != "" {
		return hint
	}
	if src := strings.TrimSpace(r.Source); src != "" {
		return src
	}
	return DefaultSource
}

// GameStartRequest is the body of POST /api/start_task
type GameStartRequest struct {
	AppID           string `json:"app_id"`
	ToolType        string `json:"tool_type"`
	UseSTAutoUpdate bool   `json:"use_st_auto_update"`
	AddAllDLC       bool   `json:"add_all_dlc"`
	PatchDepotKey   bool   `json:"patch_depot_key"`
}

// WorkshopStartRequest is the body of POST /api/workshop/start_task
type WorkshopStartRequest struct {
	WorkshopInput string `json:"workshop_input"`
	CopyToConfig  bool   `json:"copy_to_config"`
	CopyToDepot   bool   `json:"copy_to_depot"`
}

// StartTaskResponse is the acknowledgement returned by both start endpoints
type StartTaskResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
