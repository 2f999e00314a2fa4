package main

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/pkg/env"
	"github.com/sandevgo/tuskmem/pkg/log"
	"github.com/spf13/cobra"
)

var (
	writeEnv    bool
	showSecrets bool
)

var configCmd = &cobra.Command{
	Use:          "config",
	Short:        "Print the effective configuration as .env content",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		runtimePath := config.GetRuntimePath()
		if err := initEnv(ctx, runtimePath); err != nil {
			return err
		}

		values, err := env.Map(
			config.NewAppConfig(ctx),
			config.NewRAGConfig(ctx),
			config.NewEmbeddingConfig(ctx),
			config.NewPostgresConfig(ctx),
			config.NewRedisConfig(ctx),
		)
		if err != nil {
			return err
		}

		if writeEnv {
			path := filepath.Join(runtimePath, ".env")
			if err := godotenv.Write(values, path); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			log.FromCtx(ctx).Info().Str("path", path).Msg("configuration written")
			return nil
		}

		if !showSecrets {
			values = env.Redact(values)
		}
		content, err := godotenv.Marshal(values)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), content)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&writeEnv, "write", false, "write the configuration to the runtime .env file")
	configCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print credentials unmasked")
	rootCmd.AddCommand(configCmd)
}
