package openai

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseAgentResponse(t *testing.T) {
	resp, err := ParseAgentResponse(`{"command_name":"GetBasin","metric_name":"","basin_name":"Oum_Errabia","user_message":"Looking up Oum Errabia."}`)
	if err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.CommandName != CommandGetBasin || resp.BasinName != "Oum_Errabia" {
		t.Errorf("Unexpected response %+v", resp)
	}

	if _, err := ParseAgentResponse("not json"); err == nil {
		t.Error("Expected malformed content to fail")
	}
}

func TestAgentResponseSchemaListsAllFields(t *testing.T) {
	raw, err := json.Marshal(agentResponseSchema())
	if err != nil {
		t.Fatalf("Failed to marshal schema: %v", err)
	}

	schema := string(raw)
	for _, field := range []string{"command_name", "metric_name", "basin_name", "user_message"} {
		if !strings.Contains(schema, field) {
			t.Errorf("Schema is missing field %s: %s", field, schema)
		}
	}
	if !strings.Contains(schema, `"additionalProperties":false`) {
		t.Errorf("Schema should forbid additional properties: %s", schema)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt([]string{"total_large_dams", "water_stress_threshold_m3"}, []string{"Oum_Errabia"})

	if !strings.Contains(prompt, "total_large_dams, water_stress_threshold_m3") {
		t.Error("Prompt does not list the metrics")
	}
	if !strings.Contains(prompt, "Known basins: Oum_Errabia") {
		t.Error("Prompt does not list the basins")
	}
}

func TestNewOpenAIServiceRequiresKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		if _, err := NewOpenAIService(key); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("Key %q: expected ErrMissingAPIKey, got %v", key, err)
		}
	}

	service, err := NewOpenAIService("sk-test")
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	if service == nil {
		t.Error("Expected a service for a non-empty key")
	}
}
