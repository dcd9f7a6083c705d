// Package main provides a minimal command-line chat driver for the strand
// generation core: it streams orchestrator chunks to stdout, prompts on
// stdin for pending tool approvals and re-invokes the orchestrator to
// resume, which is the same contract a full client follows.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"google.golang.org/genai"

	"github.com/strandchat/strand/internal/config"
	"github.com/strandchat/strand/internal/memory"
	"github.com/strandchat/strand/internal/orchestrator"
	"github.com/strandchat/strand/internal/orchestrator/adapter"
	"github.com/strandchat/strand/internal/orchestrator/models"
	"github.com/strandchat/strand/internal/provider/gemini"
	provider "github.com/strandchat/strand/internal/provider/models"
	"github.com/strandchat/strand/internal/provider/openai"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; environment variables win.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	cfg, err := config.NewLoader().Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	prov, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	conversationID, err := gonanoid.New()
	if err != nil {
		return err
	}

	workspaceRoot := cfg.Workspace.Root
	if workspaceRoot == "" {
		workspaceRoot = filepath.Join(os.TempDir(), "strand", conversationID)
	}
	if err := os.MkdirAll(workspaceRoot, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	orch := orchestrator.New(prov, orchestrator.WithMemory(memory.NewInMemoryStore()))
	tools := []adapter.Tool{
		adapter.NewSandboxTool(workspaceRoot),
		adapter.NewShellTool(workspaceRoot),
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}

	assistant := models.Assistant{
		Name:             "strand",
		SystemPrompt:     cfg.Assistant.SystemPrompt,
		EnableMemory:     cfg.Assistant.EnableMemory,
		SummarizeHistory: cfg.Assistant.SummarizeHistory,
		ContextLimit:     cfg.Assistant.ContextLimit,
		Stream:           cfg.Assistant.Stream,
	}

	stdin := bufio.NewScanner(os.Stdin)
	var messages []models.Message

	fmt.Println("strand chat. Type a message, or /phase plan|execute|review, or /quit.")
	phase := models.PhaseNone

	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			return nil
		}
		input := strings.TrimSpace(stdin.Text())
		switch {
		case input == "":
			continue
		case input == "/quit":
			return nil
		case strings.HasPrefix(input, "/phase "):
			phase = models.WorkflowPhase(strings.TrimPrefix(input, "/phase "))
			fmt.Printf("phase set to %q\n", phase)
			continue
		}

		messages = append(messages, models.Message{
			Role:  models.RoleUser,
			Parts: []models.Part{models.TextPart{Content: input}},
		})

		messages, err = generate(ctx, orch, stdin, &generateParams{
			assistant:      assistant,
			model:          cfg.Provider.Model,
			messages:       messages,
			tools:          tools,
			phase:          phase,
			maxSteps:       cfg.Assistant.MaxSteps,
			conversationID: conversationID,
			renderer:       renderer,
		})
		if err != nil {
			return err
		}
	}
}

type generateParams struct {
	assistant      models.Assistant
	model          string
	messages       []models.Message
	tools          []adapter.Tool
	phase          models.WorkflowPhase
	maxSteps       int
	conversationID string
	renderer       *glamour.TermRenderer
}

// generate runs orchestrator invocations until no approvals are pending,
// resolving each pending call on stdin between invocations.
func generate(ctx context.Context, orch *orchestrator.Orchestrator, stdin *bufio.Scanner, p *generateParams) ([]models.Message, error) {
	messages := p.messages

	for {
		stream := orch.Generate(ctx, &orchestrator.GenerateRequest{
			Assistant:      p.assistant,
			Model:          p.model,
			Messages:       messages,
			Tools:          p.tools,
			Phase:          p.phase,
			MaxSteps:       p.maxSteps,
			ConversationID: p.conversationID,
		})

		final, err := drain(stream)
		if err != nil {
			return messages, fmt.Errorf("generation failed: %w", err)
		}
		if final != nil {
			messages = final.Messages
		}

		pending := orchestrator.PendingCalls(messages)
		if len(pending) == 0 {
			break
		}

		for _, call := range pending {
			approved, reason := askApproval(stdin, call)
			resolved, err := orchestrator.ResolveApproval(messages, call.ID, approved, reason)
			if err != nil {
				return messages, err
			}
			messages = resolved
		}
	}

	if text := lastAssistantText(messages); text != "" {
		rendered, err := p.renderer.Render(text)
		if err != nil {
			rendered = text
		}
		fmt.Println(rendered)
	}
	return messages, nil
}

// drain consumes the stream and returns its final chunk.
func drain(stream *orchestrator.GenerationStream) (*models.GenerationChunk, error) {
	defer stream.Close()
	var final *models.GenerationChunk
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return final, nil
		}
		if err != nil {
			return final, err
		}
		final = chunk
	}
}

func askApproval(stdin *bufio.Scanner, call models.ToolCallPart) (bool, string) {
	fmt.Printf("Tool %q requests execution with args: %s\nApprove? [y/N] ", call.ToolName, call.ArgsJSON)
	if !stdin.Scan() {
		return false, "input closed"
	}
	answer := strings.ToLower(strings.TrimSpace(stdin.Text()))
	if answer == "y" || answer == "yes" {
		return true, ""
	}
	fmt.Print("Denial reason (optional): ")
	if !stdin.Scan() {
		return false, ""
	}
	return false, strings.TrimSpace(stdin.Text())
}

func lastAssistantText(messages []models.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant {
			return messages[i].Text()
		}
	}
	return ""
}

func newProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider.Name {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
		return openai.New(apiKey, cfg.Provider.BaseURL), nil
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return gemini.New(gemini.NewSDKClient(client)), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}
