package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/spf13/cobra"
	googleoption "google.golang.org/api/option"

	"github.com/dshills/langgraph-stream/stream"
	anthropicsrc "github.com/dshills/langgraph-stream/stream/provider/anthropic"
	googlesrc "github.com/dshills/langgraph-stream/stream/provider/google"
	openaisrc "github.com/dshills/langgraph-stream/stream/provider/openai"
)

// ErrMissingAPIKey is returned when the selected provider's key is not set.
var ErrMissingAPIKey = errors.New("missing API key")

// Default models per provider.
var defaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-5",
	"openai":    "gpt-4o-mini",
	"google":    "gemini-1.5-flash",
}

// apiKeyEnv names the environment variable holding each provider's key.
var apiKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"google":    "GOOGLE_API_KEY",
}

type chatOptions struct {
	parseOptions
	provider  string
	model     string
	node      string
	maxTokens int64
}

func newChatCmd() *cobra.Command {
	var o chatOptions
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Stream a live model response through the parser",
		Long: `Chat sends prompt to a model provider and prints the events its streaming
response produces, exactly as parse would for a recorded run.

The API key is read from ANTHROPIC_API_KEY, OPENAI_API_KEY or GOOGLE_API_KEY.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.mode = string(stream.ModeAuto)
			return runChat(cmd.Context(), cmd, o, strings.Join(args, " "))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.provider, "provider", "anthropic", "Model provider: anthropic, openai or google")
	flags.StringVar(&o.model, "model", "", "Model name (provider default when empty)")
	flags.StringVar(&o.node, "node", "agent", "Node name attributed to the response")
	flags.Int64Var(&o.maxTokens, "max-tokens", 1024, "Maximum tokens to generate")
	addOutputFlags(cmd, &o.parseOptions)
	return cmd
}

func runChat(ctx context.Context, cmd *cobra.Command, o chatOptions, prompt string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	env, ok := apiKeyEnv[o.provider]
	if !ok {
		return fmt.Errorf("unknown provider %q (want anthropic, openai or google)", o.provider)
	}
	apiKey := os.Getenv(env)
	if apiKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, env)
	}
	model := o.model
	if model == "" {
		model = defaultModels[o.provider]
	}

	switch o.provider {
	case "anthropic":
		client := anthropic.NewClient(anthropicoption.WithAPIKey(apiKey))
		events := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: o.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		defer events.Close()
		return runSource(ctx, cmd, o.parseOptions, anthropicsrc.NewSource(events, o.node))

	case "openai":
		client := openai.NewClient(openaioption.WithAPIKey(apiKey))
		chunks := client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model:               shared.ChatModel(model),
			MaxCompletionTokens: openai.Int(o.maxTokens),
			Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
			StreamOptions:       openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)},
		})
		defer chunks.Close()
		return runSource(ctx, cmd, o.parseOptions, openaisrc.NewSource(chunks, o.node))

	default:
		client, err := genai.NewClient(ctx, googleoption.WithAPIKey(apiKey))
		if err != nil {
			return fmt.Errorf("create google client: %w", err)
		}
		defer client.Close()
		gm := client.GenerativeModel(model)
		gm.SetMaxOutputTokens(int32(o.maxTokens))
		it := gm.GenerateContentStream(ctx, genai.Text(prompt))
		return runSource(ctx, cmd, o.parseOptions, googlesrc.NewSource(it, o.node))
	}
}
