package tools

import (
	"time"

	"lifeflow-be/pkg/gateway"

	"github.com/patrickmn/go-cache"
)

const descriptorsKey = "tool_descriptors"

// Registry serves the tool capability descriptors sent to the Gateway.
// Descriptors are assembled once and cached; Invalidate forces a rebuild
// (used when an admin toggles tools at runtime).
type Registry struct {
	cache *cache.Cache
}

func NewRegistry() *Registry {
	return &Registry{
		cache: cache.New(30*time.Minute, 10*time.Minute),
	}
}

func (r *Registry) Descriptors() []gateway.ToolDescription {
	if x, found := r.cache.Get(descriptorsKey); found {
		return x.([]gateway.ToolDescription)
	}
	descriptors := buildDescriptors()
	r.cache.Set(descriptorsKey, descriptors, cache.DefaultExpiration)
	return descriptors
}

func (r *Registry) Invalidate() {
	r.cache.Delete(descriptorsKey)
}

func buildDescriptors() []gateway.ToolDescription {
	return []gateway.ToolDescription{
		{Name: "tags", ActionType: "addTag", Description: "Attach a short categorical tag to the thought"},
		{Name: "tasks", ActionType: "createTask", Description: "Create an actionable task with title, optional description, priority and due date"},
		{Name: "projects", ActionType: "createProject", Description: "Create a project to group related tasks"},
		{Name: "goals", ActionType: "createGoal", Description: "Create a longer-term goal with an optional target date"},
		{Name: "moods", ActionType: "createMood", Description: "Record a mood entry when the thought expresses an emotional state"},
		{Name: "tasks", ActionType: "enhanceTask", Description: "Improve the title or description of an existing task"},
		{Name: "projects", ActionType: "linkToProject", Description: "Link an existing task to an existing project"},
	}
}
