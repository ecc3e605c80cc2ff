package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sonarlens/sonarlens/internal/config"
	"github.com/sonarlens/sonarlens/internal/history"
	"github.com/sonarlens/sonarlens/internal/observability"
	"github.com/sonarlens/sonarlens/internal/output"
	"github.com/sonarlens/sonarlens/internal/pplx/schema"
)

var (
	chatModel       string
	chatSystem      string
	chatPreset      string
	chatTemperature float64
	chatMaxTokens   int
	chatDomains     []string
	chatRecency     string
	chatNoSave      bool
	chatOutput      string
	chatOut         string
	chatOutDir      string
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a chat completion request",
	Long: `Send a chat completion request to the Perplexity API and print the answer.

The prompt is taken from the arguments, or from stdin when no arguments are
given. Presets supply a system prompt and model defaults; explicit flags win
over preset values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveChatFormat()
		if err != nil {
			return err
		}

		req, err := buildChatRequest(cmd, args)
		if err != nil {
			return err
		}

		client, err := buildClient()
		if err != nil {
			return err
		}

		resp, err := client.Chat(cmd.Context(), req)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatResponse(resp)
		if err != nil {
			return err
		}

		outPath := strings.TrimSpace(chatOut)
		outDir := strings.TrimSpace(chatOutDir)
		if outPath != "" && outDir != "" {
			return fmt.Errorf("--out and --out-dir are mutually exclusive")
		}
		if outDir != "" {
			outDir, err = ensureOutDir(outDir)
			if err != nil {
				return err
			}
			outPath = filepath.Join(outDir, fmt.Sprintf("chat.%s.%s", sanitizeFilename(resp.Model), outputExtension(format)))
		}

		sink, err := openSink(outPath)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if _, err := fmt.Fprintln(sink.writer, rendered); err != nil {
			return err
		}

		if !chatNoSave {
			saveExchange(cmd.Context(), req, resp)
		}
		return nil
	},
}

// buildChatRequest assembles the request from the prompt, preset, and flags.
func buildChatRequest(cmd *cobra.Command, args []string) (schema.ChatRequest, error) {
	text, err := readPrompt(args)
	if err != nil {
		return schema.ChatRequest{}, err
	}

	req := schema.NewChatRequest(chatModel)
	if chatSystem != "" {
		req = req.WithMessage(schema.System(chatSystem))
	}
	req = req.WithMessage(schema.User(text))

	if cmd.Flags().Changed("temperature") {
		req = req.WithTemperature(chatTemperature)
	}
	if cmd.Flags().Changed("max-tokens") {
		req = req.WithMaxTokens(chatMaxTokens)
	}
	if len(chatDomains) > 0 {
		req = req.WithSearchDomainFilter(chatDomains...)
	}
	if chatRecency != "" {
		req = req.WithSearchRecencyFilter(chatRecency)
	}

	if chatPreset != "" {
		registry, err := buildRegistry()
		if err != nil {
			return schema.ChatRequest{}, err
		}
		preset, err := registry.Get(chatPreset)
		if err != nil {
			return schema.ChatRequest{}, err
		}
		req = preset.Apply(req)
	}

	return req, nil
}

// readPrompt joins the arguments into a prompt, falling back to stdin.
func readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("prompt is required (pass arguments or pipe stdin)")
	}
	return text, nil
}

// resolveChatFormat picks the output format from the flag, then the config
// file, then the table default.
func resolveChatFormat() (output.Format, error) {
	value := strings.TrimSpace(chatOutput)
	if value == "" {
		if cfg := config.GetConfig(); cfg != nil {
			value = cfg.Output.Format
		}
	}
	if value == "" {
		value = string(output.FormatTable)
	}
	return output.ParseFormat(value)
}

// saveExchange records the exchange in the history store. History failures
// never fail the command.
func saveExchange(ctx context.Context, req schema.ChatRequest, resp *schema.ChatResponse) {
	db, err := openHistory(ctx)
	if err != nil {
		observability.CLILogger.Warn("Failed to open history store", zap.Error(err))
		return
	}
	if db == nil {
		return
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	ex := history.NewExchange(uuid.NewString(), req, resp)
	if _, err := db.Save(ctx, ex); err != nil {
		observability.CLILogger.Warn("Failed to save exchange", zap.Error(err))
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "sonar", "model name")
	chatCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "system prompt")
	chatCmd.Flags().StringVar(&chatPreset, "preset", "", "prompt preset slug")
	chatCmd.Flags().Float64VarP(&chatTemperature, "temperature", "t", 0.2, "sampling temperature")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "maximum completion tokens")
	chatCmd.Flags().StringSliceVar(&chatDomains, "search-domain", nil, "restrict search to domains")
	chatCmd.Flags().StringVar(&chatRecency, "recency", "", "search recency filter: hour|day|week|month")
	chatCmd.Flags().BoolVar(&chatNoSave, "no-save", false, "do not record the exchange in history")
	chatCmd.Flags().StringVar(&chatOutput, "output-format", "", "output format: table|json|markdown")
	chatCmd.Flags().StringVar(&chatOut, "out", "", "write output to a file (default stdout)")
	chatCmd.Flags().StringVar(&chatOutDir, "out-dir", "", "write output to a directory")
}
