// Package client talks to the remote task server over its JSON API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server responded with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server responded with status %d", e.StatusCode)
}

// ReqCallback customises a request before it is sent
type ReqCallback func(req *resty.Request)

// TaskClient is a typed client for the task server endpoints
type TaskClient struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewTaskClient creates a client for the server at baseURL.
// "timeout" bounds every single request, including status polls.
func NewTaskClient(baseURL string, timeout time.Duration, logger *zap.Logger) *TaskClient {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())

	return &TaskClient{
		http:   httpClient,
		logger: logger,
	}
}

// StartTask submits a task to the start endpoint matching the request mode
func (c *TaskClient) StartTask(ctx context.Context, task models.TaskRequest) (*models.StartTaskResponse, error) {
	var (
		pathname string
		body     any
	)
	switch task.Mode {
	case models.ModeGame:
		pathname = "/api/start_task"
		body = models.GameStartRequest{
			AppID:           task.Identifier,
			ToolType:        task.ToolType(),
			UseSTAutoUpdate: task.Flags.AutoUpdate,
			AddAllDLC:       task.Flags.AddAllDLC,
			PatchDepotKey:   task.Flags.PatchDepotKey,
		}
	case models.ModeWorkshop:
		pathname = "/api/workshop/start_task"
		body = models.WorkshopStartRequest{
			WorkshopInput: task.Identifier,
			CopyToConfig:  task.Flags.CopyToConfig,
			CopyToDepot:   task.Flags.CopyToDepot,
		}
	default:
		return nil, fmt.Errorf("unsupported task mode: %q", task.Mode)
	}

	var resp models.StartTaskResponse
	err := c.request(ctx, pathname, http.MethodPost, func(req *resty.Request) {
		req.SetBody(body)
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("task submitted",
		zap.String("attempt_id", task.AttemptID),
		zap.String("mode", string(task.Mode)),
		zap.String("tool_type", task.ToolType()),
		zap.Bool("success", resp.Success),
	)
	return &resp, nil
}

// TaskStatus polls the current task status.
// A body without a status field is reported as idle.
func (c *TaskClient) TaskStatus(ctx context.Context) (*models.TaskStatus, error) {
	var status models.TaskStatus
	if err := c.request(ctx, "/api/task_status", http.MethodGet, nil, &status); err != nil {
		return nil, err
	}
	if status.State == "" {
		status.State = models.TaskStateIdle
	}
	return &status, nil
}

// RestartSteam asks the server to restart the Steam client
func (c *TaskClient) RestartSteam(ctx context.Context) (*models.ServerResponse, error) {
	var resp models.ServerResponse
	if err := c.request(ctx, "/api/steam/restart", http.MethodPost, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the server process to exit
func (c *TaskClient) Shutdown(ctx context.Context) (*models.ServerResponse, error) {
	var resp models.ServerResponse
	if err := c.request(ctx, "/api/shutdown", http.MethodPost, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Initialize asks the server to detect the Steam installation and unlocker
func (c *TaskClient) Initialize(ctx context.Context) (*models.InitializeResponse, error) {
	var resp models.InitializeResponse
	if err := c.request(ctx, "/api/initialize", http.MethodPost, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckUpdates asks the server whether a newer release is available
func (c *TaskClient) CheckUpdates(ctx context.Context) (*models.UpdateCheckResponse, error) {
	var resp models.UpdateCheckResponse
	if err := c.request(ctx, "/api/check_updates", http.MethodPost, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sources lists the manifest sources the start endpoint accepts as tool_type
func (c *TaskClient) Sources(ctx context.Context) (*models.SourcesResponse, error) {
	var resp models.SourcesResponse
	if err := c.request(ctx, "/api/sources", http.MethodGet, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchGame looks up app ids by game name
func (c *TaskClient) SearchGame(ctx context.Context, name string) (*models.SearchGameResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("game name is required")
	}

	var resp models.SearchGameResponse
	err := c.request(ctx, "/api/search_game", http.MethodPost, func(req *resty.Request) {
		req.SetBody(map[string]string{"game_name": name})
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// request sends a request and decodes a JSON body into out.
// Non-2xx answers are returned as *StatusError carrying the server message when there is one.
func (c *TaskClient) request(ctx context.Context, pathname, method string, callback ReqCallback, out any) error {
	req := c.http.R().SetContext(ctx)
	if callback != nil {
		callback(req)
	}

	resp, err := req.Execute(method, pathname)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, pathname, err)
	}

	body := resp.Body()
	if resp.IsError() {
		statusErr := &StatusError{StatusCode: resp.StatusCode()}
		var msg models.ServerResponse
		if len(body) > 0 && json.Unmarshal(body, &msg) == nil {
			statusErr.Message = msg.Message
		}
		return statusErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", pathname, err)
	}
	return nil
}
