package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okhose/annals/internal/engine"
	"github.com/okhose/annals/internal/model"
)

var (
	includeResolved bool
	resolveValue    string
	resolveNotes    string
	updateTimeline  bool
)

// conflictsCmd groups conflict inspection and resolution
var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Inspect and resolve source conflicts",
	Long: `Inspect disagreements between independent sources and resolve
them. A resolution of source_a or source_b approves the winning claim;
both_valid keeps both, neither trusts none, merged records a synthesized
value.`,
}

var conflictsListCmd = &cobra.Command{
	Use:   "list <location-id>",
	Short: "List conflicts for a location",
	Args:  cobra.ExactArgs(1),
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

		conflicts, err := eng.ListConflicts(context.Background(), args[0], includeResolved)
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(conflicts)
		}
		if len(conflicts) == 0 {
			fmt.Println("No conflicts.")
			return nil
		}
		for _, c := range conflicts {
			state := "open"
			if !c.Open() {
				state = string(c.Resolution)
			}
			fmt.Printf("%s  %-6s  %-10s  %s vs %s  [%s]\n",
				c.ID, c.ConflictType, c.FieldName, c.ClaimAID, c.ClaimBID, state)
		}
		return nil
	},
}

var conflictsResolveCmd = &cobra.Command{
	Use:   "resolve <conflict-id> <resolution>",
	Short: "Resolve a conflict",
	Long: `Resolve a conflict with one of: source_a, source_b, both_valid,
neither, merged. Merged resolutions require --value. With
--update-timeline the chosen value is propagated into an already
converted timeline event.`,
	Args: cobra.ExactArgs(2),
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

		conflict, err := eng.ResolveConflict(context.Background(), args[0], model.Resolution(args[1]), reviewUser, engine.ResolveOptions{
			ResolvedValue:  resolveValue,
			Notes:          resolveNotes,
			UpdateTimeline: updateTimeline,
		})
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(conflict)
		}
		fmt.Printf("✓ Conflict %s resolved as %s", conflict.ID, conflict.Resolution)
		if conflict.ResolvedValue != "" {
			fmt.Printf(" (value %q)", conflict.ResolvedValue)
		}
		fmt.Println()
		return nil
	},
}

var conflictsSuggestCmd = &cobra.Command{
	Use:   "suggest <conflict-id>",
	Short: "Suggest a resolution by comparing confidences",
	Args:  cobra.ExactArgs(1),
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

		suggestion, err := eng.SuggestResolution(context.Background(), args[0])
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(suggestion)
		}
		fmt.Printf("Recommended: %s\nReason: %s\n", suggestion.Recommended, suggestion.Reason)
		return nil
	},
}

var conflictsDetectCmd = &cobra.Command{
	Use:   "detect <location-id>",
	Short: "Re-run conflict detection for a location",
	Args:  cobra.ExactArgs(1),
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

		if err := eng.DetectConflicts(context.Background(), args[0]); err != nil {
			return err
		}
		conflicts, err := eng.ListConflicts(context.Background(), args[0], false)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Detection complete: %d open conflicts\n", len(conflicts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(conflictsCmd)

	conflictsListCmd.Flags().BoolVar(&includeResolved, "resolved", false, "include resolved conflicts")
	conflictsResolveCmd.Flags().StringVar(&resolveValue, "value", "", "synthesized value for merged resolutions")
	conflictsResolveCmd.Flags().StringVar(&resolveNotes, "notes", "", "resolution notes")
	conflictsResolveCmd.Flags().BoolVar(&updateTimeline, "update-timeline", false, "propagate the chosen value into a converted timeline event")
	conflictsResolveCmd.Flags().StringVar(&reviewUser, "user", "cli", "reviewer identity recorded on the resolution")

	conflictsCmd.AddCommand(conflictsListCmd)
	conflictsCmd.AddCommand(conflictsResolveCmd)
	conflictsCmd.AddCommand(conflictsSuggestCmd)
	conflictsCmd.AddCommand(conflictsDetectCmd)
}
