package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/quill/internal/assistant"
	"github.com/matsen/quill/internal/config"
	"github.com/matsen/quill/internal/scholar"
	"github.com/matsen/quill/internal/session"
)

// collaborators are the external services a session talks to. A nil
// Formatter makes every citation use the local fallback; a nil Searcher
// makes search fail.
type collaborators struct {
	Searcher  session.Searcher
	Formatter session.Formatter
}

// newCollaborators builds the search and formatting clients from settings.
// Credentials are passed at construction; the clients never read the
// environment.
func newCollaborators(settings *config.Settings, logger *zap.Logger) collaborators {
	var c collaborators
	creds := settings.Credentials

	if creds.AssistantAPIKey != "" {
		client := assistant.NewClient(
			assistant.WithAPIKey(creds.AssistantAPIKey),
			assistant.WithBaseURL(creds.AssistantURL),
			assistant.WithModel(creds.AssistantModel),
			assistant.WithLogger(logger.Named("assistant")),
		)
		c.Formatter = client
		if settings.SearchProvider == config.ProviderAssistant {
			c.Searcher = client
		}
	} else {
		logger.Warn("no assistant API key configured, citations use the local fallback")
	}

	if settings.SearchProvider == config.ProviderScholar {
		c.Searcher = scholar.NewClient(
			scholar.WithAPIKey(creds.S2APIKey),
			scholar.WithLogger(logger.Named("scholar")),
		)
	}
	return c
}

// collaboratorHint suggests a fix for credential and rate-limit failures.
func collaboratorHint(err error) string {
	switch {
	case assistant.IsAuthError(err):
		return fmt.Sprintf("check assistant_api_key in %s or %s", config.GlobalConfigPath(), config.EnvAssistantAPIKey)
	case errors.Is(err, scholar.ErrAuthError):
		return fmt.Sprintf("check s2_api_key in %s or %s", config.GlobalConfigPath(), config.EnvS2APIKey)
	case assistant.IsRateLimited(err), errors.Is(err, scholar.ErrRateLimited):
		return "rate limited; wait a moment and retry"
	}
	return ""
}
