package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	reviewUser   string
	rejectReason string
)

// reviewCmd groups the claim review workflow
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review pending claims",
	Long: `Review claims: list what awaits a decision, approve or reject
individual claims, convert approved claims into permanent timeline
events, and undo conversions.`,
}

var reviewPendingCmd = &cobra.Command{
	Use:   "pending <location-id>",
	Short: "List pending claims for a location",
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

		claims, err := eng.ListPending(context.Background(), args[0])
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(claims)
		}
		if len(claims) == 0 {
			fmt.Println("No pending claims.")
			return nil
		}
		for _, c := range claims {
			marker := " "
			if c.ConflictID != "" && !c.ConflictResolved {
				marker = "!"
			}
			fmt.Printf("%s %s  %-10s  %-24q  conf=%.2f  src=%s\n",
				marker, c.ID, c.Category, c.ParsedDate.Display, c.Confidence, c.SourceRef)
		}
		return nil
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <claim-id>",
	Short: "Approve a pending claim",
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

		claim, err := eng.Approve(context.Background(), args[0], reviewUser)
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(claim)
		}
		fmt.Printf("✓ Claim %s approved\n", claim.ID)
		return nil
	},
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <claim-id>",
	Short: "Reject a claim",
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

		claim, err := eng.Reject(context.Background(), args[0], reviewUser, rejectReason)
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(claim)
		}
		fmt.Printf("✓ Claim %s rejected\n", claim.ID)
		return nil
	},
}

var reviewConvertCmd = &cobra.Command{
	Use:   "convert <claim-id>",
	Short: "Convert an approved claim into a timeline event",
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

		ev, err := eng.ConvertToTimeline(context.Background(), args[0], reviewUser)
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(ev)
		}
		fmt.Printf("✓ Timeline event %s (%s/%s) at %s\n", ev.ID, ev.EventType, ev.EventSubtype, ev.DateDisplay)
		return nil
	},
}

var reviewRevertCmd = &cobra.Command{
	Use:   "revert <claim-id>",
	Short: "Undo a claim's conversion",
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

		claim, err := eng.RevertConversion(context.Background(), args[0], reviewUser)
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(claim)
		}
		fmt.Printf("✓ Conversion of claim %s reverted\n", claim.ID)
		return nil
	},
}

var reviewPrimaryCmd = &cobra.Command{
	Use:   "primary <claim-id>",
	Short: "Promote a claim to primary within its duplicate group",
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

		claim, err := eng.OverridePrimary(context.Background(), args[0])
		if err != nil {
			return err
		}
		if cfg.Output.JSON {
			return emit(claim)
		}
		fmt.Printf("✓ Claim %s is now primary (merged: %d)\n", claim.ID, len(claim.MergedFromIDs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.PersistentFlags().StringVar(&reviewUser, "user", "cli", "reviewer identity recorded on decisions")
	reviewRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "rejection reason")

	reviewCmd.AddCommand(reviewPendingCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
	reviewCmd.AddCommand(reviewConvertCmd)
	reviewCmd.AddCommand(reviewRevertCmd)
	reviewCmd.AddCommand(reviewPrimaryCmd)
}
