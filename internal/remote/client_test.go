package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andriyansyah/todosync/internal/models"
)

func TestCreateTaskSendsNormalizedPayload(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"id":"srv-1","title":"Buy milk","status":"pending","priority":"low"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "dev-token", 5*time.Second)
	raw := models.RawTask{
		Title:    "Buy milk",
		DueDate:  time.Date(2025, time.July, 4, 8, 0, 0, 0, time.UTC),
		Time:     "08:00 AM",
		Status:   models.StatusPending,
		Priority: models.PriorityLow,
		Category: models.Category{Name: "Errands", Color: "#00FF00"},
	}
	task, err := client.CreateTask(context.Background(), raw)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if task.ID != "srv-1" {
		t.Fatalf("server id not decoded: %+v", task)
	}
	if gotAuth != "Bearer dev-token" {
		t.Fatalf("bearer token not attached: %q", gotAuth)
	}
	if gotBody["dueDate"] != "2025-07-04T08:00:00Z" {
		t.Fatalf("dueDate not an ISO string: %v", gotBody["dueDate"])
	}
	// Category must be coerced to its bare name on the wire.
	if gotBody["category"] != "Errands" {
		t.Fatalf("category not coerced to name: %v", gotBody["category"])
	}
}

func TestRejectionCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"message":"Title already exists"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "dev-token", 5*time.Second)
	_, err := client.CreateTask(context.Background(), models.RawTask{Title: "dup"})
	if !IsRejection(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected *RejectionError, got %T", err)
	}
	if rejection.StatusCode != http.StatusUnprocessableEntity || rejection.Message != "Title already exists" {
		t.Fatalf("server message not preserved: %+v", rejection)
	}
	if IsUnreachable(err) {
		t.Fatal("rejection misclassified as unreachable")
	}
}

func TestRejectionWithoutBodyGetsFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "dev-token", 5*time.Second)
	err := client.DeleteTask(context.Background(), "srv-1")
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected *RejectionError, got %v", err)
	}
	if rejection.Message == "" {
		t.Fatal("expected fallback message")
	}
}

func TestNoResponseClassifiesAsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, "dev-token", time.Second)
	_, err := client.ListTasks(context.Background(), "dueDate")
	if !IsUnreachable(err) {
		t.Fatalf("expected unreachable, got %v", err)
	}
	if IsRejection(err) {
		t.Fatal("unreachable misclassified as rejection")
	}
}

func TestListTasksPassesSortKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sort"); got != "dueDate" {
			t.Errorf("sort key not passed: %q", got)
		}
		io.WriteString(w, `{"data":[{"id":"a","title":"t"},{"id":"b","title":"u"}]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "dev-token", 5*time.Second)
	tasks, err := client.ListTasks(context.Background(), "dueDate")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "a" {
		t.Fatalf("unexpected list: %+v", tasks)
	}
}

func TestPatchTaskStatusSendsOnlyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/tasks/srv-9" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"status":"completed"}` {
			t.Errorf("unexpected body: %s", body)
		}
		io.WriteString(w, `{"data":{"id":"srv-9","title":"t","status":"completed"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "dev-token", 5*time.Second)
	task, err := client.PatchTaskStatus(context.Background(), "srv-9", models.StatusCompleted)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if task.Status != models.StatusCompleted {
		t.Fatalf("unexpected task: %+v", task)
	}
}
