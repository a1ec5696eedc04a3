package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okhose/annals/internal/engine"
)

var (
	timelineMax  int
	timelineSubs []string
)

// timelineCmd groups timeline assembly and event backfill
var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Assemble and maintain location timelines",
}

var timelineShowCmd = &cobra.Command{
	Use:   "show <location-id>",
	Short: "Show the chronological timeline for a location",
	Long: `Assemble the chronological timeline for a location, optionally
merged with sub-locations. When --max bounds the view, established and
database_entry events are always retained and the remaining slots go to
the most recent visits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, s, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		events, err := eng.GetTimeline(context.Background(), args[0], engine.TimelineOptions{
			MaxEntries:     timelineMax,
			SubLocationIDs: timelineSubs,
		})
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(events)
		}
		if len(events) == 0 {
			fmt.Println("No timeline events.")
			return nil
		}
		for _, ev := range events {
			subtype := ""
			if ev.EventSubtype != "" {
				subtype = "/" + ev.EventSubtype
			}
			fmt.Printf("%-14s  %-24s  %s%s\n", ev.DateDisplay, ev.EventType, ev.ID, subtype)
		}
		return nil
	},
}

var timelineRecordCmd = &cobra.Command{
	Use:   "record <event-file...>",
	Short: "Record upstream timeline events",
	Long: `Record raw timeline events from JSON or YAML files, as delivered
by upstream producers (EXIF imports, database actions, structural
edits). Recording is idempotent on (location, source_ref, event_type,
event_subtype), so files can be replayed safely.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, s, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		ctx := context.Background()
		recorded := 0
		for _, path := range args {
			inputs, err := readEventInputs(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			for _, in := range inputs {
				if _, err := eng.RecordEvent(ctx, in); err != nil {
					return fmt.Errorf("record event (%s, %s): %w", in.LocationID, in.SourceRef, err)
				}
				recorded++
			}
		}
		fmt.Printf("✓ Recorded %d events\n", recorded)
		return nil
	},
}

func readEventInputs(path string) ([]engine.EventInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inputs []engine.EventInput
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &inputs)
	default:
		err = json.Unmarshal(data, &inputs)
	}
	if err != nil {
		return nil, err
	}
	return inputs, nil
}

func init() {
	rootCmd.AddCommand(timelineCmd)

	timelineShowCmd.Flags().IntVar(&timelineMax, "max", 0, "display budget (0 = configured default, negative = unbounded)")
	timelineShowCmd.Flags().StringSliceVar(&timelineSubs, "sub", nil, "sub-location IDs to merge into the view")

	timelineCmd.AddCommand(timelineShowCmd)
	timelineCmd.AddCommand(timelineRecordCmd)
}
