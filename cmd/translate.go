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
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/polyglot-cli/potran/internal/catalog"
	"github.com/polyglot-cli/potran/internal/detector"
	"github.com/polyglot-cli/potran/internal/engine"
	"github.com/polyglot-cli/potran/internal/store"
	"github.com/polyglot-cli/potran/internal/validator"
)

var (
	inputFile    string
	outputFile   string
	sourceLang   string
	targetLang   string
	providerName string

	batchSize int
	workers   int
	delay     time.Duration

	dbPath     string
	noCache    bool
	resume     bool
	maxRetries int

	validate bool

	deeplKey      string
	deepseekKey   string
	deepseekModel string
	credentials   string
	mymemoryEmail string
	ollamaModel   string
	ollamaURL     string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate the untranslated entries of a PO catalog",
	Long: `Translate every untranslated entry of a PO catalog through the chosen
backend, writing the result to a new catalog.

Available providers:
  - deepl      DeepL API (requires API key; batch-capable)
  - google     Google Cloud Translation (credentials file or ADC; batch-capable)
  - deepseek   DeepSeek LLM (requires API key)
  - ollama     Local Ollama instance (requires a model name)
  - mymemory   MyMemory (free, rate-limited)

Dispatch is chosen per job: --batch-size N groups entries into one
request on batch-capable providers, --workers N translates entries
concurrently. The two cannot be combined.

Jobs checkpoint their progress every 50 entries. If a run is
interrupted, re-run the same command with --resume to pick up where it
left off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		cat, err := catalog.Load(inputFile)
		if err != nil {
			return fmt.Errorf("failed to load PO file: %w", err)
		}

		units := cat.Untranslated()
		total, _, _, _ := cat.Stats()
		fmt.Fprintf(os.Stderr, "Found %d untranslated entries (of %d)\n", len(units), total)

		// The lingua model is expensive to build; one instance serves
		// both source detection and post-run validation.
		var det *detector.Detector
		if sourceLang == "auto" {
			det = detector.New()
			if detected, ok := detectSourceLang(det, units); ok {
				sourceLang = detected
				fmt.Fprintf(os.Stderr, "Detected source language: %s\n", sourceLang)
			}
		}

		var db *store.Store
		if !noCache || resume {
			db, err = store.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		prov, err := buildProvider(providerName, providerOptions{
			sourceLang:    sourceLang,
			deeplKey:      deeplKey,
			deepseekKey:   deepseekKey,
			deepseekModel: deepseekModel,
			credentials:   credentials,
			mymemoryEmail: mymemoryEmail,
			ollamaModel:   ollamaModel,
			ollamaURL:     ollamaURL,
		})
		if err != nil {
			return err
		}

		eng, err := engine.New(prov, db, engine.Config{
			TargetLang:   targetLang,
			BatchSize:    batchSize,
			Workers:      workers,
			Delay:        delay,
			CacheEnabled: !noCache,
			Resume:       resume,
			MaxAttempts:  maxRetries,
		})
		if err != nil {
			return err
		}

		// SIGINT/SIGTERM stop the job cooperatively: in-flight requests
		// finish, a checkpoint is written, and the partial catalog is saved.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := eng.Run(ctx, units, outputFile)
		if err != nil {
			return err
		}

		if err := cat.Save(outputFile); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}

		fmt.Printf("Job %s: %d translated, %d from cache, %d failed, %d pending\n",
			summary.State, summary.Translated, summary.FromCache, summary.Failed, summary.Pending)
		if summary.State == engine.StateInterrupted {
			fmt.Printf("Interrupted; re-run with --resume to continue\n")
		}

		if validate {
			if det == nil {
				det = detector.New()
			}
			reportSuspectTranslations(det, units, targetLang)
		}
		return nil
	},
}

// reportSuspectTranslations runs language detection over the translated
// targets and warns about entries that do not read as targetLang.
func reportSuspectTranslations(det *detector.Detector, units []*catalog.Unit, targetLang string) {
	v := validator.NewWithDetector(det)
	suspect := 0
	for _, u := range units {
		if u.Status != catalog.StatusTranslated {
			continue
		}
		if ok, err := v.IsValid(u.Target, targetLang); !ok {
			suspect++
			fmt.Fprintf(os.Stderr, "Suspect translation for %q: %v\n", snippet(u.Source), err)
		}
	}
	if suspect > 0 {
		fmt.Fprintf(os.Stderr, "%d translations did not validate as %s\n", suspect, targetLang)
	}
}

func snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= 40 {
		return s
	}
	return string(runes[:37]) + "..."
}

// detectSourceLang samples the first source texts of the job and runs
// language detection over them.
func detectSourceLang(det *detector.Detector, units []*catalog.Unit) (string, bool) {
	var sb strings.Builder
	for _, u := range units {
		if sb.Len() > 500 {
			break
		}
		sb.WriteString(u.Source)
		sb.WriteString(" ")
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", false
	}
	code, ok := det.DetectISO(sb.String())
	return strings.ToLower(code), ok
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input PO file (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output PO file (required)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (required)")
	translateCmd.Flags().StringVarP(&providerName, "provider", "p", "deepl", "Translation provider")

	translateCmd.Flags().IntVar(&batchSize, "batch-size", 1, "Entries per request on batch-capable providers")
	translateCmd.Flags().IntVar(&workers, "workers", 1, "Concurrent translation workers")
	translateCmd.Flags().DurationVar(&delay, "delay", 500*time.Millisecond, "Delay between backend requests")

	translateCmd.Flags().StringVar(&dbPath, "db", "./data/potran.db", "Database path for the translation cache and checkpoints")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the translation cache")
	translateCmd.Flags().BoolVar(&resume, "resume", false, "Resume an interrupted job for the same output file")
	translateCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Total attempts per request including the first (1 = no retries)")
	translateCmd.Flags().BoolVar(&validate, "validate", false, "Check that translated entries read as the target language")

	translateCmd.Flags().StringVar(&deeplKey, "deepl-key", "", "DeepL API key")
	translateCmd.Flags().StringVar(&deepseekKey, "deepseek-key", "", "DeepSeek API key")
	translateCmd.Flags().StringVar(&deepseekModel, "deepseek-model", "deepseek-chat", "DeepSeek model name")
	translateCmd.Flags().StringVarP(&credentials, "credentials", "c", "", "Path to Google Cloud credentials")
	translateCmd.Flags().StringVar(&mymemoryEmail, "mymemory-email", "", "MyMemory email (for higher limits)")
	translateCmd.Flags().StringVar(&ollamaModel, "ollama-model", "", "Ollama model name")
	translateCmd.Flags().StringVar(&ollamaURL, "ollama-url", "http://localhost:11434", "Ollama server URL")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("output")
	translateCmd.MarkFlagRequired("target")
}
