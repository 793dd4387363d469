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
	"os/exec"

	"github.com/spf13/cobra"
)

var (
	extractOutput string
	extractTool   string
)

// extract is a thin wrapper around an external template-extraction
// tool; potran does no string extraction of its own.
var extractCmd = &cobra.Command{
	Use:   "extract [source files or directory]",
	Short: "Generate a POT template using an external extraction tool",
	Long: `Run an external extraction tool over a source tree to produce a POT
template ready for translation.

Supported tools:
  - xgettext   GNU gettext extractor (pass source files as arguments)
  - wp         WP-CLI "wp i18n make-pot" (pass the plugin/theme directory)

Example:
  potran extract --tool xgettext -o messages.pot src/*.php
  potran extract --tool wp -o languages/plugin.pot .`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var argv []string
		switch extractTool {
		case "xgettext":
			argv = append([]string{"--from-code=UTF-8", "-o", extractOutput}, args...)
		case "wp":
			if len(args) != 1 {
				return fmt.Errorf("the wp tool takes exactly one source directory")
			}
			argv = []string{"i18n", "make-pot", args[0], extractOutput}
		default:
			return fmt.Errorf("unknown extraction tool: %s (available: xgettext, wp)", extractTool)
		}

		ext := exec.CommandContext(cmd.Context(), extractTool, argv...)
		ext.Stdout = os.Stdout
		ext.Stderr = os.Stderr
		if err := ext.Run(); err != nil {
			return fmt.Errorf("%s failed: %w", extractTool, err)
		}

		fmt.Printf("Template written to %s\n", extractOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "messages.pot", "Output POT file")
	extractCmd.Flags().StringVar(&extractTool, "tool", "xgettext", "Extraction tool to invoke")
}
