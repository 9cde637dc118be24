package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/josemmo/fakeium/pkg/event"
	"github.com/josemmo/fakeium/pkg/report"
)

var queryCmd = &cobra.Command{
	Use:   "query <report.jsonl>",
	Short: "Replay a captured JSONL event report and filter it",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().String("path", "", "match events recorded at this accessor path")
	queryCmd.Flags().String("type", "", "match events of this type: get, set, or call")
	queryCmd.Flags().String("filename", "", "match events captured at this source filename")
	queryCmd.Flags().Int("line", 0, "match events captured at this source line")
	queryCmd.Flags().Bool("constructor", false, "match only CallEvents invoked with new")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	store := report.New()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e event.Event
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("parsing report line: %w", err)
		}
		store.Append(e)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	q, err := buildQuery(cmd)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	matched := 0
	for e := range store.FindAll(q) {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("writing match: %w", err)
		}
		matched++
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d/%d event(s) matched\n", matched, store.Size())
	return nil
}

func buildQuery(cmd *cobra.Command) (report.Query, error) {
	var q report.Query

	if path, _ := cmd.Flags().GetString("path"); path != "" {
		q = q.WithPath(path)
	}
	if typ, _ := cmd.Flags().GetString("type"); typ != "" {
		t, err := parseEventType(typ)
		if err != nil {
			return q, err
		}
		q = q.WithType(t)
	}
	if filename, _ := cmd.Flags().GetString("filename"); filename != "" {
		q.Filename = &filename
	}
	if line, _ := cmd.Flags().GetInt("line"); line != 0 {
		q.Line = &line
	}
	if isCtor, _ := cmd.Flags().GetBool("constructor"); isCtor {
		q.IsConstructor = &isCtor
	}
	return q, nil
}

func parseEventType(s string) (event.Type, error) {
	switch s {
	case "get":
		return event.TypeGet, nil
	case "set":
		return event.TypeSet, nil
	case "call":
		return event.TypeCall, nil
	default:
		return "", fmt.Errorf("unknown --type %q: must be get, set, or call", s)
	}
}
