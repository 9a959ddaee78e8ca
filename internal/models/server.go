package models

import (
	"bytes"
	"encoding/json"
)

// ServerResponse is the generic acknowledgement of the administrative endpoints
type ServerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// InitializeResponse is the body of POST /api/initialize
type InitializeResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	UnlockerType string `json:"unlocker_type,omitempty"`
	SteamPath    string `json:"steam_path,omitempty"`
	HasToken     bool   `json:"has_token"`
}

// SourcesResponse is the body of GET /api/sources.
// Sources maps a display name to the tool_type value accepted by the start endpoint.
type SourcesResponse struct {
	Success           bool              `json:"success"`
	Message           string            `json:"message,omitempty"`
	Sources           map[string]string `json:"sources"`
	CustomGithubCount int               `json:"custom_github_count"`
	CustomZipCount    int               `json:"custom_zip_count"`
}

// AppID accepts both numeric and string identifiers
type AppID string

// UnmarshalJSON implements json.Unmarshaler
func (a *AppID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AppID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = AppID(n.String())
	return nil
}

// GameMatch is one result of a game name search
type GameMatch struct {
	AppID       AppID  `json:"appid"`
	Name        string `json:"name"`
	HeaderImage string `json:"header_image,omitempty"`
}

// SearchGameResponse is the body of POST /api/search_game
type SearchGameResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Games   []GameMatch `json:"games"`
}

// UpdateCheckResponse is the body of POST /api/check_updates
type UpdateCheckResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	HasUpdate  bool           `json:"has_update"`
	UpdateInfo map[string]any `json:"update_info,omitempty"`
}
