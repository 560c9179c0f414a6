package postgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/ManuelReschke/Postify/app/models"
	"github.com/ManuelReschke/Postify/internal/pkg/config"
)

const (
	searchToolName = "search_news"
	// tool rounds before the model has to answer without tools
	maxToolRounds = 2
)

// ErrMissingInput is returned when the request has no user input. The model
// is not called.
var ErrMissingInput = errors.New("no input provided")

// GenerationError wraps any failure of the model round trip.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "post generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

var searchTool = openai.ChatCompletionToolParam{
	Function: openai.FunctionDefinitionParam{
		Name:        searchToolName,
		Description: openai.String("Search for news articles and current information about a topic."),
		Parameters: openai.FunctionParameters{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]string{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
	},
}

// Generator turns a GenerationRequest into post text through an
// OpenAI-compatible chat completion endpoint (Groq by default).
type Generator struct {
	client   openai.Client
	model    string
	timeout  time.Duration
	searcher Searcher
	log      *zap.Logger
}

// New builds the generator. A nil searcher disables the search tool.
func New(cfg config.GenerationConfig, searcher Searcher, log *zap.Logger) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &config.Error{Err: errors.New("GROQ_API_KEY is not configured")}
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	)

	return &Generator{
		client:   client,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		searcher: searcher,
		log:      log,
	}, nil
}

// Generate renders the prompt and asks the model for the post. The call
// blocks until the model answers, fails or the timeout expires.
func (g *Generator) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return nil, ErrMissingInput
	}

	prompt, err := RenderPrompt(req)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if g.searcher != nil {
		params.Tools = []openai.ChatCompletionToolParam{searchTool}
	}

	for round := 0; round <= maxToolRounds; round++ {
		completion, err := g.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, &GenerationError{Err: err}
		}
		if len(completion.Choices) == 0 {
			return nil, &GenerationError{Err: errors.New("model returned no choices")}
		}

		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return nil, &GenerationError{Err: errors.New("model returned an empty post")}
			}
			return &models.GenerationResult{Content: content}, nil
		}
		if len(params.Tools) == 0 {
			break
		}

		params.Messages = append(params.Messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			params.Messages = append(params.Messages, openai.ToolMessage(g.runTool(ctx, call), call.ID))
		}
		if round+1 >= maxToolRounds {
			params.Tools = nil
		}
	}

	return nil, &GenerationError{Err: errors.New("model kept requesting tools")}
}

func (g *Generator) runTool(ctx context.Context, call openai.ChatCompletionMessageToolCall) string {
	if call.Function.Name != searchToolName {
		return "unknown tool: " + call.Function.Name
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return "invalid arguments: " + err.Error()
	}

	g.log.Debug("model requested search", zap.String("query", args.Query))
	result, err := g.searcher.Search(ctx, args.Query)
	if err != nil {
		g.log.Warn("search tool failed", zap.String("query", args.Query), zap.Error(err))
		return "search failed: " + err.Error()
	}
	return result
}
