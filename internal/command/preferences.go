package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// PreferenceStore persists per-conversation preference key/value pairs,
// satisfied by storing them in a conversation's metadata.
type PreferenceStore interface {
	SetPreference(ctx context.Context, conversationID, key, value string) error
	GetPreferences(ctx context.Context, conversationID string) (map[string]string, error)
}

// RegisterPreferenceCommands registers /set_pref and /get_prefs.
func RegisterPreferenceCommands(reg *Registry, prefs PreferenceStore) {
	reg.Register(setPreferenceCommand(prefs))
	reg.Register(getPreferencesCommand(prefs))
}

func setPreferenceCommand(prefs PreferenceStore) *Command {
	return &Command{
		Name:        "set_pref",
		Description: "Set a preference for this conversation",
		Usage:       "/set_pref <key> <value>",
		Handler: func(ctx context.Context, args string, cc *CommandContext) (*CommandResult, error) {
			parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
			if len(parts) < 2 || parts[0] == "" {
				return &CommandResult{Content: "Usage: /set_pref <key> <value>"}, nil
			}
			key, value := parts[0], strings.TrimSpace(parts[1])
			if err := prefs.SetPreference(ctx, cc.ChannelID, key, value); err != nil {
				return nil, fmt.Errorf("set preference: %w", err)
			}
			return &CommandResult{Content: fmt.Sprintf("Preference %q set to %q.", key, value)}, nil
		},
	}
}

func getPreferencesCommand(prefs PreferenceStore) *Command {
	return &Command{
		Name:        "get_prefs",
		Description: "Show preferences set for this conversation",
		Usage:       "/get_prefs",
		Handler: func(ctx context.Context, _ string, cc *CommandContext) (*CommandResult, error) {
			values, err := prefs.GetPreferences(ctx, cc.ChannelID)
			if err != nil {
				return nil, fmt.Errorf("get preferences: %w", err)
			}
			if len(values) == 0 {
				return &CommandResult{Content: "No preferences set for this conversation."}, nil
			}
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			var b strings.Builder
			b.WriteString("Preferences:\n")
			for _, k := range keys {
				fmt.Fprintf(&b, "  %s = %s\n", k, values[k])
			}
			return &CommandResult{Content: b.String(), Data: values}, nil
		},
	}
}
