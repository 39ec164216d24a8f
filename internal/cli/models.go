package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andika/docchat/internal/config"
	"github.com/andika/docchat/pkg/completion"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available to the configured API key",
	Long: `List the generative models the configured provider offers for the
configured API key. Currently supported for the gemini provider.`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.AI.Provider != "gemini" {
		return fmt.Errorf("model listing is only supported for the gemini provider (configured: %s)", cfg.AI.Provider)
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("no API key configured (set DOCCHAT_AI_API_KEY)")
	}

	client := completion.NewGeminiClient(cfg.AI.APIKey, cfg.AI.Model)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	names, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("No models found")
		return nil
	}

	fmt.Println("Available models:")
	for _, name := range names {
		fmt.Println("-", name)
	}

	return nil
}
