package models

// Session defaults for settings. These are process-wide constants used to
// initialize guest sessions and to reset state on logout; they are never
// mutated in place.

// DefaultOllamaURL is the only API "key" with a non-empty default.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultSelectedModel is used until the user picks one.
const DefaultSelectedModel = "gpt-4o"

// DefaultAPIKeys returns a fresh copy of the default key bundle.
func DefaultAPIKeys() APIKeys {
	return APIKeys{Ollama: DefaultOllamaURL}
}

// DefaultEnabledModels returns a fresh copy of the default model list.
func DefaultEnabledModels() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
		"gemini-2.0-flash",
		"gemini-1.5-pro",
		"claude-3.5-sonnet",
		"claude-3-opus",
		"perplexity-sonar-pro",
		"ollama-llama3.3",
	}
}

// DefaultSettings returns the settings a session starts with.
func DefaultSettings() UserSettings {
	return UserSettings{
		APIKeys:       DefaultAPIKeys(),
		EnabledModels: DefaultEnabledModels(),
		SelectedModel: DefaultSelectedModel,
	}
}
