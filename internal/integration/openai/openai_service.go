package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Commands the agent may choose
const (
	CommandGetMetric    = "GetMetric"
	CommandGetBasin     = "GetBasin"
	CommandGetSummary   = "GetSummary"
	CommandGeneralQuery = "GeneralQuery"
)

// AgentResponse defines the structured output from the OpenAI agent.
type AgentResponse struct {
	CommandName string `json:"command_name" jsonschema_description:"The command to execute: GetMetric, GetBasin, GetSummary or GeneralQuery"`
	MetricName  string `json:"metric_name" jsonschema_description:"Exact name of the national metric from the list, if applicable"`
	BasinName   string `json:"basin_name" jsonschema_description:"Exact name of the basin from the list, if applicable"`
	UserMessage string `json:"user_message" jsonschema_description:"A message to show back to the user in their original language"`
}

// OpenAIService defines the interface for interacting with the OpenAI agent.
type OpenAIService interface {
	InterpretUserQuery(ctx context.Context, userMessage string, metrics, basins []string) (*AgentResponse, error)
}

// ErrMissingAPIKey is returned when the service is created without a key
var ErrMissingAPIKey = errors.New("openai api key is empty")

// agentInterpreter asks a chat model to map free text onto one of the bot's lookups
type agentInterpreter struct {
	client openai.Client
	schema *jsonschema.Schema
}

// agentResponseSchema describes AgentResponse inline, without $ref indirection
// or extra properties, so it can be used as a strict response format
func agentResponseSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&AgentResponse{})
}

// NewOpenAIService creates an interpreter authenticated with apiKey
func NewOpenAIService(apiKey string) (OpenAIService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	return &agentInterpreter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		schema: agentResponseSchema(),
	}, nil
}

// BuildSystemPrompt lists the metrics and basins the agent is allowed to pick from
func BuildSystemPrompt(metrics, basins []string) string {
	return fmt.Sprintf(`You are a concise analyst of Morocco's water resources, helping a team that sells atmospheric water generators (AWG).

You answer questions about national water indicators, dam basins and the market opportunity they represent.

Requirements:
- You understand English, French and Arabic.
- You reply in the same language the user used.
- You never invent figures; the data comes from the lookup you choose.

Known national metrics: %s
Known basins: %s

Behavior:
1. If the user asks about a national indicator from the list:
   - command_name = "GetMetric"
   - metric_name = the exact metric from the list; empty if none fits.
2. If the user asks about a specific basin or dam from the list:
   - command_name = "GetBasin"
   - basin_name = the exact basin from the list; empty if none fits.
3. If the user asks for an overview, summary or the best regions to target:
   - command_name = "GetSummary"
4. Anything else (greetings, small talk, unrelated questions):
   - command_name = "GeneralQuery"
   - user_message: a short reply in the user's language pointing them to /help.

For 1-3, user_message is a one-line confirmation in the user's language.

Output **strictly** in JSON.`, strings.Join(metrics, ", "), strings.Join(basins, ", "))
}

// InterpretUserQuery sends a message to the OpenAI agent and returns the structured response.
func (s *agentInterpreter) InterpretUserQuery(ctx context.Context, userMessage string, metrics, basins []string) (*AgentResponse, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "agent_response",
		Description: openai.String("Structured response containing command, metric or basin name, and user message"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	respFormat := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(BuildSystemPrompt(metrics, basins)),
			openai.UserMessage(userMessage),
		},
		ResponseFormat: respFormat,
		Model:          openai.ChatModelGPT4o,
	})

	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	agentResp, err := ParseAgentResponse(chat.Choices[0].Message.Content)
	if err != nil {
		log.Printf("Failed to unmarshal OpenAI response: %s\nRaw response: %s", err, chat.Choices[0].Message.Content)
		return nil, err
	}

	return agentResp, nil
}

// ParseAgentResponse decodes the JSON content returned by the agent
func ParseAgentResponse(content string) (*AgentResponse, error) {
	var agentResp AgentResponse
	if err := json.Unmarshal([]byte(content), &agentResp); err != nil {
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}
	return &agentResp, nil
}
