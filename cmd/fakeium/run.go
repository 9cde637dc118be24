package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josemmo/fakeium/pkg/hook"
	"github.com/josemmo/fakeium/pkg/sandbox"
)

var runCmd = &cobra.Command{
	Use:   "run <specifier>",
	Short: "Execute a JavaScript file under the instrumented sandbox and print its event report",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("hook-file", "", "JSON file declaring host hooks to install before execution")
	runCmd.Flags().String("root", ".", "directory the specifier and its module imports resolve against")
	runCmd.Flags().String("source-type", "script", "source type to evaluate: script or module")
	runCmd.Flags().Duration("timeout", 5*time.Second, "soft execution timeout")
	runCmd.Flags().Int("max-memory-mb", 256, "V8 heap size limit in megabytes")
	runCmd.Flags().String("output", "", "write the JSONL event report to this file instead of stdout")

	viper.BindPFlag("run.hook-file", runCmd.Flags().Lookup("hook-file"))
	viper.BindPFlag("run.root", runCmd.Flags().Lookup("root"))
	viper.BindPFlag("run.source-type", runCmd.Flags().Lookup("source-type"))
	viper.BindPFlag("run.timeout", runCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("run.max-memory-mb", runCmd.Flags().Lookup("max-memory-mb"))
	viper.BindPFlag("run.output", runCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(runCmd)
}

// hookFileEntry is one declared hook read from the --hook-file JSON array.
// Exactly one of Value or Alias must be set; Alias names another hooked
// path whose reads/calls this path should mirror (hook.Reference).
type hookFileEntry struct {
	Path     string `json:"path"`
	Writable bool   `json:"writable"`
	Value    any    `json:"value"`
	Alias    string `json:"alias"`
}

func runRun(cmd *cobra.Command, args []string) error {
	specifier := args[0]
	root := viper.GetString("run.root")
	sourceType := sandbox.SourceScript
	if viper.GetString("run.source-type") == "module" {
		sourceType = sandbox.SourceModule
	}

	sbx, err := sandbox.New(
		sandbox.WithSourceType(sourceType),
		sandbox.WithMaxMemoryMB(viper.GetInt("run.max-memory-mb")),
		sandbox.WithTimeout(viper.GetDuration("run.timeout")),
	)
	if err != nil {
		return fmt.Errorf("creating sandbox: %w", err)
	}
	defer sbx.Dispose(false)

	sbx.SetResolver(filesystemResolver(root))

	if hookFile := viper.GetString("run.hook-file"); hookFile != "" {
		if err := installHookFile(sbx, hookFile); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("run.timeout")+2*time.Second)
	defer cancel()

	runErr := sbx.Run(ctx, specifier, "")

	out := cmd.OutOrStdout()
	if outputPath := viper.GetString("run.output"); outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("opening --output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	for _, e := range sbx.Report().GetAll() {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	stats := sbx.Stats()
	fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %d event(s), wall %s, heap %d/%d bytes\n",
		stats.LastRunID, sbx.Report().Size(), stats.Wall, stats.HeapUsed, stats.HeapTotal)

	if runErr != nil {
		return fmt.Errorf("executing %s: %w", specifier, runErr)
	}
	return nil
}

// filesystemResolver reads module/script source from disk, resolving a
// file:// URL's path against root the way the teacher's VM resolves guest
// workspace mounts against a host directory.
func filesystemResolver(root string) func(ctx context.Context, u *url.URL) ([]byte, error) {
	return func(ctx context.Context, u *url.URL) ([]byte, error) {
		if u.Scheme != "" && u.Scheme != "file" {
			return nil, nil
		}
		path := filepath.Join(root, filepath.FromSlash(u.Path))
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

func installHookFile(sbx *sandbox.Sandbox, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading --hook-file: %w", err)
	}
	var entries []hookFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing --hook-file: %w", err)
	}
	for _, e := range entries {
		var value any = e.Value
		if e.Alias != "" {
			value = hook.Reference{Path: e.Alias}
		}
		if err := sbx.Hook(e.Path, value, e.Writable); err != nil {
			return fmt.Errorf("installing hook %q: %w", e.Path, err)
		}
	}
	return nil
}
