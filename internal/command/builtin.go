package command

import (
	"context"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Interfaces — kept here so builtin commands avoid importing concrete types.
// ---------------------------------------------------------------------------

// StatusProvider provides platform adapter connection status.
type StatusProvider interface {
	StatusAll() []AdapterStatus
}

// AdapterStatus describes the connection state of a platform adapter.
type AdapterStatus struct {
	Platform  string
	Connected bool
}

// SkillLister lists available skills.
type SkillLister interface {
	ListSkills() []SkillInfo
}

// SkillInfo describes a registered skill.
type SkillInfo struct {
	Name        string
	Description string
	Keywords    []string
}

// ---------------------------------------------------------------------------
// RegisterBuiltins wires up the built-in slash commands.
// ---------------------------------------------------------------------------

// RegisterBuiltins registers /help, /status, and /skills.
func RegisterBuiltins(reg *Registry, status StatusProvider, skills SkillLister) {
	reg.Register(helpCommand(reg))
	reg.Register(statusCommand(status))
	reg.Register(skillsCommand(skills))
}

// ---------------------------------------------------------------------------
// /help
// ---------------------------------------------------------------------------

func helpCommand(reg *Registry) *Command {
	return &Command{
		Name:        "help",
		Description: "List all available commands",
		Usage:       "/help",
		Handler: func(_ context.Context, _ string, _ *CommandContext) (*CommandResult, error) {
			cmds := reg.List()
			var b strings.Builder
			b.WriteString("Available commands:\n")
			for _, c := range cmds {
				fmt.Fprintf(&b, "  /%s — %s\n", c.Name, c.Description)
				if c.Usage != "" {
					fmt.Fprintf(&b, "    Usage: %s\n", c.Usage)
				}
			}
			return &CommandResult{Content: b.String()}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// /status
// ---------------------------------------------------------------------------

func statusCommand(provider StatusProvider) *Command {
	return &Command{
		Name:        "status",
		Description: "Show adapter connection status",
		Usage:       "/status",
		Handler: func(_ context.Context, _ string, _ *CommandContext) (*CommandResult, error) {
			adapters := provider.StatusAll()
			if len(adapters) == 0 {
				return &CommandResult{Content: "No adapters configured."}, nil
			}
			var b strings.Builder
			b.WriteString("Adapter status:\n")
			for _, a := range adapters {
				state := "disconnected"
				if a.Connected {
					state = "connected"
				}
				fmt.Fprintf(&b, "  %s: %s\n", a.Platform, state)
			}
			return &CommandResult{Content: b.String()}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// /skills
// ---------------------------------------------------------------------------

func skillsCommand(lister SkillLister) *Command {
	return &Command{
		Name:        "skills",
		Description: "List available skills",
		Usage:       "/skills",
		Handler: func(_ context.Context, _ string, _ *CommandContext) (*CommandResult, error) {
			skills := lister.ListSkills()
			if len(skills) == 0 {
				return &CommandResult{Content: "No skills registered yet."}, nil
			}
			var b strings.Builder
			b.WriteString("Available skills:\n")
			for _, s := range skills {
				fmt.Fprintf(&b, "  %s — %s", s.Name, s.Description)
				if len(s.Keywords) > 0 {
					fmt.Fprintf(&b, " (keywords: %s)", strings.Join(s.Keywords, ", "))
				}
				b.WriteByte('\n')
			}
			return &CommandResult{Content: b.String()}, nil
		},
	}
}
