package command

import (
	"fmt"
	"maps"
	"slices"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how far a mistyped name may be from a suggestion.
const maxSuggestDistance = 2

// Registry manages the collection of available commands.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command, replacing any with the same name.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Get returns a command by name.
func (r *Registry) Get(name string) (Command, error) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, nil
	}
	return nil, fmt.Errorf("command not found: %s", name)
}

// List returns every command name in sorted order.
func (r *Registry) List() []string {
	return slices.Sorted(maps.Keys(r.commands))
}

// Suggest returns the registered name closest to name, or "" if none is
// within maxSuggestDistance edits. Ties go to the alphabetically first.
func (r *Registry) Suggest(name string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range r.List() {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
