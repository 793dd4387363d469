/*
Copyright © 2025 potran contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.3.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "potran",
	Short: "PO catalog translator",
	Long: `potran translates gettext PO catalogs through pluggable translation
backends (DeepL, Google Translate, DeepSeek, Ollama, MyMemory), protecting
embedded markup and format placeholders, caching results locally, and
checkpointing progress so interrupted jobs can resume.

Use "potran translate --help" for translation options.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; credentials may also come from the real
		// environment or the config file.
		_ = godotenv.Load()

		viper.SetEnvPrefix("POTRAN")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		// Classic variable names from the provider ecosystems keep working.
		viper.BindEnv("deepl.api_key", "POTRAN_DEEPL_API_KEY", "DEEPL_API_KEY")
		viper.BindEnv("deepseek.api_key", "POTRAN_DEEPSEEK_API_KEY", "DEEPSEEK_API_KEY")
		viper.BindEnv("google.credentials", "POTRAN_GOOGLE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS")
		viper.BindEnv("mymemory.email", "POTRAN_MYMEMORY_EMAIL", "MYMEMORY_EMAIL")
		viper.BindEnv("ollama.model", "POTRAN_OLLAMA_MODEL", "OLLAMA_MODEL")

		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (optional)")
}
