package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <location-id>",
	Short: "Show curation health for a location",
	Long: `Rate how well curated a location's record is: review progress,
source diversity, date precision, structural timeline coverage, and
open conflicts. The index is diagnostic only and never gates the
workflow.`,
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

		health, err := eng.Health(context.Background(), args[0])
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(health)
		}

		fmt.Printf("Curation index: %d/100 (confidence: %s)\n", health.Index, health.Confidence)
		if health.Conflict {
			fmt.Println("⚠️  Open conflicts need resolution")
		}
		fmt.Println()
		for _, sig := range health.Signals {
			fmt.Printf("  [%s] %-20s %s\n", sig.Severity, sig.Type, sig.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
