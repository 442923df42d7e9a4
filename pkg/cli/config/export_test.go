package config

import "time"

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewAppForTest creates an App config for testing purposes
func NewAppForTest(path, baseURL, timezone string) *App {
	return &App{path: path, baseURL: baseURL, timezone: timezone}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string, memoryCounter int) *Repository {
	return &Repository{backend: backend, projectID: projectID, memoryCounter: memoryCounter}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, webhookURL, mention string, interval time.Duration) *Slack {
	return &Slack{
		botToken:        botToken,
		webhookURL:      webhookURL,
		mention:         mention,
		refreshInterval: interval,
	}
}

// NewGoogleForTest creates a Google config for testing purposes
func NewGoogleForTest(templateID, folderID, calendarID string) *Google {
	return &Google{templateID: templateID, folderID: folderID, calendarID: calendarID}
}

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(clientID string, domains []string, noAuthEmail string) *Auth {
	return &Auth{clientID: clientID, allowedDomains: domains, noAuthEmail: noAuthEmail}
}
