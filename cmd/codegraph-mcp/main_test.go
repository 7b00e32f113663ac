package main

import (
	"testing"

	"github.com/voyantlabs/codegraph/internal/ai"
	"github.com/voyantlabs/codegraph/internal/config"
)

func TestBuildCollaborator(t *testing.T) {
	settings := config.Defaults()
	c := buildCollaborator(settings)
	if _, ok := c.(*ai.Heuristic); !ok {
		t.Errorf("collaborator without credentials = %T, want *ai.Heuristic", c)
	}

	settings.AIEnabled = true
	settings.AIAPIKey = "sk-test"
	c = buildCollaborator(settings)
	if _, ok := c.(*ai.OpenAI); !ok {
		t.Errorf("collaborator with credentials = %T, want *ai.OpenAI", c)
	}
}
