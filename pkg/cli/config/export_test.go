package config

import "time"

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, geminiProject, openaiAPIKey string) *LLM {
	return &LLM{
		provider:       provider,
		geminiProject:  geminiProject,
		geminiLocation: "us-central1",
		openaiAPIKey:   openaiAPIKey,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{backend: backend, projectID: projectID}
}

// NewRateLimitForTest creates a RateLimit config for testing purposes
func NewRateLimitForTest(limit int, window time.Duration) *RateLimit {
	return &RateLimit{limit: limit, window: window}
}

// NewSourceForTest creates a Source config for testing purposes
func NewSourceForTest(dirs []string, notionToken string, notionDatabases []string) *Source {
	return &Source{dirs: dirs, notionToken: notionToken, notionDatabases: notionDatabases}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewAppConfigForTest creates an AppConfig pointing at path
func NewAppConfigForTest(path string) *AppConfig {
	return &AppConfig{path: path}
}
