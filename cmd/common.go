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

	"github.com/spf13/viper"

	"github.com/polyglot-cli/potran/internal/provider"
)

// providerOptions carries the per-backend credentials and settings
// collected from flags and the environment.
type providerOptions struct {
	sourceLang    string
	deeplKey      string
	deepseekKey   string
	deepseekModel string
	credentials   string
	mymemoryEmail string
	ollamaModel   string
	ollamaURL     string
}

// buildProvider constructs the chosen translation backend. Missing
// credentials fail here, before any catalog unit is processed.
func buildProvider(name string, opts providerOptions) (provider.Provider, error) {
	switch name {
	case "deepl":
		key := resolveSecret(opts.deeplKey, "deepl.api_key")
		if key == "" {
			return nil, fmt.Errorf("DeepL API key not configured (set DEEPL_API_KEY or --deepl-key)")
		}
		return provider.NewDeepLService(key, ""), nil
	case "google":
		return provider.NewGoogleService(resolveSecret(opts.credentials, "google.credentials")), nil
	case "deepseek":
		key := resolveSecret(opts.deepseekKey, "deepseek.api_key")
		if key == "" {
			return nil, fmt.Errorf("DeepSeek API key not configured (set DEEPSEEK_API_KEY or --deepseek-key)")
		}
		return provider.NewDeepSeekService(key, "", opts.deepseekModel), nil
	case "ollama":
		model := resolveSecret(opts.ollamaModel, "ollama.model")
		if model == "" {
			return nil, fmt.Errorf("Ollama model not configured (set POTRAN_OLLAMA_MODEL or --ollama-model)")
		}
		return provider.NewOllamaService(model, opts.ollamaURL), nil
	case "mymemory":
		return provider.NewMyMemoryService(resolveSecret(opts.mymemoryEmail, "mymemory.email"), opts.sourceLang), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (available: deepl, google, deepseek, ollama, mymemory)", name)
	}
}

// resolveSecret prefers an explicit flag value over the viper-bound
// environment/config value.
func resolveSecret(flagValue, viperKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(viperKey)
}
