package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/andriyansyah/todosync/internal/models"
)

// Client talks to the remote task service. Every call attaches the bearer
// token and classifies failures as either UnreachableError (no response,
// including timeouts) or RejectionError (non-2xx with a server message).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the task service at baseURL.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// taskPayload is the create wire shape: dueDate as an ISO string, category
// coerced to its name.
type taskPayload struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	DueDate     string              `json:"dueDate"`
	Time        string              `json:"time"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	Category    string              `json:"category"`
}

type taskEnvelope struct {
	Data models.Task `json:"data"`
}

type taskListEnvelope struct {
	Data []models.Task `json:"data"`
}

// CreateTask stores a new task remotely and returns it with its
// server-assigned id.
func (c *Client) CreateTask(ctx context.Context, raw models.RawTask) (models.Task, error) {
	payload := taskPayload{
		Title:       raw.Title,
		Description: raw.Description,
		DueDate:     raw.DueDate.UTC().Format(time.RFC3339),
		Time:        raw.Time,
		Status:      raw.Status,
		Priority:    raw.Priority,
		Category:    raw.CategoryName(),
	}
	var env taskEnvelope
	if err := c.do(ctx, http.MethodPost, "/tasks", payload, &env); err != nil {
		return models.Task{}, err
	}
	return env.Data, nil
}

// UpdateTask replaces the remote task with the given snapshot and returns
// the stored version (fields may have been normalized server-side).
func (c *Client) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	var env taskEnvelope
	path := "/tasks/" + url.PathEscape(task.ID)
	if err := c.do(ctx, http.MethodPut, path, task, &env); err != nil {
		return models.Task{}, err
	}
	return env.Data, nil
}

// PatchTaskStatus sends only a status change, used by the toggle action.
func (c *Client) PatchTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	var env taskEnvelope
	path := "/tasks/" + url.PathEscape(id)
	body := map[string]models.TaskStatus{"status": status}
	if err := c.do(ctx, http.MethodPut, path, body, &env); err != nil {
		return models.Task{}, err
	}
	return env.Data, nil
}

// DeleteTask removes the remote task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// ListTasks fetches the full ordered collection.
func (c *Client) ListTasks(ctx context.Context, sortKey string) ([]models.Task, error) {
	path := "/tasks"
	if sortKey != "" {
		path += "?sort=" + url.QueryEscape(sortKey)
	}
	var env taskListEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response at all: connection refused, DNS failure or timeout.
		return &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Message == "" {
			body.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return &RejectionError{StatusCode: resp.StatusCode, Message: body.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}
