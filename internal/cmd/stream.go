package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sonarlens/sonarlens/internal/pplx/schema"
)

var streamUsage bool

var streamCmd = &cobra.Command{
	Use:   "stream [prompt]",
	Short: "Send a chat completion request and stream the answer",
	Long: `Send a chat completion request and print the answer incrementally as
it arrives. Streamed exchanges are not retried and are not recorded in
history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildChatRequest(cmd, args)
		if err != nil {
			return err
		}

		client, err := buildClient()
		if err != nil {
			return err
		}

		var last *schema.StreamChunk
		err = client.ChatStream(cmd.Context(), req, func(chunk schema.StreamChunk) error {
			last = &chunk
			_, werr := fmt.Fprint(os.Stdout, chunk.Content())
			return werr
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout)

		if streamUsage && last != nil && last.Usage != nil {
			fmt.Fprintf(os.Stderr, "tokens: %d prompt + %d completion = %d total\n",
				last.Usage.PromptTokens, last.Usage.CompletionTokens, last.Usage.TotalTokens)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().StringVarP(&chatModel, "model", "m", "sonar", "model name")
	streamCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "system prompt")
	streamCmd.Flags().StringVar(&chatPreset, "preset", "", "prompt preset slug")
	streamCmd.Flags().Float64VarP(&chatTemperature, "temperature", "t", 0.2, "sampling temperature")
	streamCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "maximum completion tokens")
	streamCmd.Flags().StringSliceVar(&chatDomains, "search-domain", nil, "restrict search to domains")
	streamCmd.Flags().StringVar(&chatRecency, "recency", "", "search recency filter: hour|day|week|month")
	streamCmd.Flags().BoolVar(&streamUsage, "usage", false, "print token usage to stderr after the stream ends")
}
