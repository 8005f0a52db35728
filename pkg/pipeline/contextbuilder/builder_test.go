package contextbuilder

import (
	"strings"
	"testing"
	"time"

	"lifeflow-be/internal/entity"

	"github.com/google/uuid"
)

func TestRenderEmptyState(t *testing.T) {
	got := Render(nil, nil, nil, nil)
	if got != "" {
		t.Errorf("Render of empty state = %q, want empty string", got)
	}
}

func TestRenderSkipsEmptySections(t *testing.T) {
	tasks := []*entity.Task{
		{Id: uuid.New(), Title: "Water plants"},
	}

	got := Render(nil, nil, tasks, nil)

	if !strings.Contains(got, "<tasks>") {
		t.Error("tasks section missing")
	}
	for _, section := range []string{"<goals>", "<projects>", "<recent_moods>"} {
		if strings.Contains(got, section) {
			t.Errorf("empty section %s was rendered", section)
		}
	}
}

func TestRenderFullState(t *testing.T) {
	target := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	goals := []*entity.Goal{
		{Id: uuid.New(), Title: "Run a marathon", TargetDate: &target},
	}
	projectId := uuid.New()
	projects := []*entity.Project{
		{Id: projectId, Name: "Training plan"},
	}
	taskId := uuid.New()
	tasks := []*entity.Task{
		{Id: taskId, Title: "Buy running shoes", Completed: true},
	}
	moods := []*entity.Mood{
		{Id: uuid.New(), Label: "motivated", Intensity: 8},
	}

	got := Render(goals, projects, tasks, moods)

	wantLines := []string{
		"- Run a marathon (target 2026-12-31)",
		"- Training plan [" + projectId.String() + "]",
		"- Buy running shoes (done) [" + taskId.String() + "]",
		"- motivated (8)",
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line) {
			t.Errorf("rendered context missing %q\n%s", line, got)
		}
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("rendered context has a trailing newline")
	}
}
