package config

import "time"

// NewGatewayForTest creates a Gateway config for testing purposes
func NewGatewayForTest(backend, baseURL string, pageSize int64, projectID string) *Gateway {
	return &Gateway{
		backend:    backend,
		baseURL:    baseURL,
		pageSize:   pageSize,
		localDelay: time.Millisecond,
		timeout:    time.Second,
		projectID:  projectID,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewAppForTest creates an App config for testing purposes
func NewAppForTest(path string) *App {
	return &App{path: path}
}

// ParseLevel is exported for testing
var ParseLevel = parseLevel
