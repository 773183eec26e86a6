/* Copyright 2025 Userhub Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var colorRed = color.New(color.FgRed)

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "userhub-server",
		Short:         "Userhub server - account pages and diagnostics",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// printError prints the error in red
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", colorRed.Sprint("Error:"), err)
}

// Execute is the main entry point for the CLI
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		printError(color.Output, err)
		os.Exit(1)
	}
}
