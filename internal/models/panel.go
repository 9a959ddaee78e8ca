package models

// SubmitTaskRequest is the body of POST /api/v1/tasks
type SubmitTaskRequest struct {
	Mode       Mode   `json:"mode" example:"game"`
	Identifier string `json:"identifier" example:"730"`
	Source     string `json:"source,omitempty" example:"search"`
	Flags      Flags  `json:"flags"`
}

// ToTaskRequest converts the panel body into a task request
func (r SubmitTaskRequest) ToTaskRequest() TaskRequest {
	return TaskRequest{
		Mode:       r.Mode,
		Identifier: r.Identifier,
		Source:     r.Source,
		Flags:      r.Flags,
	}
}

// ResumeTaskRequest is the body of POST /api/v1/tasks/resume
type ResumeTaskRequest struct {
	Mode       Mode   `json:"mode,omitempty" example:"game"`
	Identifier string `json:"identifier" example:"730"`
}

// SelectionChoiceRequest is the body of PUT /api/v1/tasks/selection.
// Exactly one of Index and Source must be set.
type SelectionChoiceRequest struct {
	Index  *int   `json:"index,omitempty" example:"1"`
	Source string `json:"source,omitempty"`
}

// LogsResponse is the body of GET /api/v1/logs
type LogsResponse struct {
	Connected bool            `json:"connected"`
	Entries   []ProgressEvent `json:"entries"`
}
