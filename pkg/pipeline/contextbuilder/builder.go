package contextbuilder

import (
	"context"
	"fmt"
	"strings"

	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/specification"
	"lifeflow-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Builder assembles the user-context block sent alongside a thought: current
// goals, projects, open tasks and recent moods. Reads only; nothing here
// mutates the entity store.
type Builder struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewBuilder(uowFactory unitofwork.RepositoryFactory) *Builder {
	return &Builder{
		uowFactory: uowFactory,
	}
}

const (
	maxTasks = 25
	maxMoods = 5
)

func (b *Builder) Build(ctx context.Context, userId uuid.UUID) (string, error) {
	uow := b.uowFactory.NewUnitOfWork(ctx)

	goals, err := uow.GoalRepository().FindAll(ctx, specification.OwnedByUser{UserID: userId})
	if err != nil {
		return "", fmt.Errorf("load goals: %w", err)
	}

	projects, err := uow.ProjectRepository().FindAll(ctx, specification.OwnedByUser{UserID: userId})
	if err != nil {
		return "", fmt.Errorf("load projects: %w", err)
	}

	tasks, err := uow.TaskRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: maxTasks},
	)
	if err != nil {
		return "", fmt.Errorf("load tasks: %w", err)
	}

	moods, err := uow.MoodRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: maxMoods},
	)
	if err != nil {
		return "", fmt.Errorf("load moods: %w", err)
	}

	return Render(goals, projects, tasks, moods), nil
}

// Render formats the context block. Split out from Build so it can be
// exercised without a database.
func Render(goals []*entity.Goal, projects []*entity.Project, tasks []*entity.Task, moods []*entity.Mood) string {
	var out strings.Builder

	writeGoals(&out, goals)
	writeProjects(&out, projects)
	writeTasks(&out, tasks)
	writeMoods(&out, moods)

	return strings.TrimRight(out.String(), "\n")
}

func writeGoals(out *strings.Builder, goals []*entity.Goal) {
	if len(goals) == 0 {
		return
	}
	out.WriteString("<goals>\n")
	for _, g := range goals {
		out.WriteString("- " + g.Title)
		if g.TargetDate != nil {
			fmt.Fprintf(out, " (target %s)", g.TargetDate.Format("2006-01-02"))
		}
		out.WriteString("\n")
	}
	out.WriteString("</goals>\n\n")
}

func writeProjects(out *strings.Builder, projects []*entity.Project) {
	if len(projects) == 0 {
		return
	}
	out.WriteString("<projects>\n")
	for _, p := range projects {
		fmt.Fprintf(out, "- %s [%s]\n", p.Name, p.Id)
	}
	out.WriteString("</projects>\n\n")
}

func writeTasks(out *strings.Builder, tasks []*entity.Task) {
	if len(tasks) == 0 {
		return
	}
	out.WriteString("<tasks>\n")
	for _, t := range tasks {
		status := "open"
		if t.Completed {
			status = "done"
		}
		fmt.Fprintf(out, "- %s (%s) [%s]\n", t.Title, status, t.Id)
	}
	out.WriteString("</tasks>\n\n")
}

func writeMoods(out *strings.Builder, moods []*entity.Mood) {
	if len(moods) == 0 {
		return
	}
	out.WriteString("<recent_moods>\n")
	for _, m := range moods {
		fmt.Fprintf(out, "- %s (%d)\n", m.Label, m.Intensity)
	}
	out.WriteString("</recent_moods>\n\n")
}
