package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okhose/annals/internal/model"
	"github.com/okhose/annals/internal/worker"
)

var (
	ingestLocationID string
	ingestCategory   string
	ingestSourceType string
	ingestSourceRef  string
	ingestConfidence float64
	ingestTimeout    time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [candidate-file...]",
	Short: "Ingest claim candidates",
	Long: `Ingest claim candidates from JSON or YAML files, or a single
candidate given entirely by flags.

Candidate files hold an array of candidates:

  - location_id: loc-001
    category: built
    raw_text: "ca. 1923"
    confidence: 0.8
    source_type: web
    source_ref: archive-4411

Files are processed concurrently with per-source rate limiting.
Redelivering a candidate is safe: ingestion is idempotent on
(location_id, source_ref, raw_text).

Example:
  annals ingest candidates.yaml
  annals ingest --location loc-001 --category built --source-type manual \
      --source-ref note-1 --confidence 0.9 "built in the 1920s"`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestLocationID, "location", "", "location ID for a single flag-built candidate")
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "fact", "claim category")
	ingestCmd.Flags().StringVar(&ingestSourceType, "source-type", "manual", "source type")
	ingestCmd.Flags().StringVar(&ingestSourceRef, "source-ref", "", "source reference")
	ingestCmd.Flags().Float64Var(&ingestConfidence, "confidence", 1.0, "candidate confidence in [0,1]")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 5*time.Minute, "overall ingest timeout")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, s, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	// Single candidate from flags: the last positional arg is the raw text.
	if ingestLocationID != "" {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one raw-text argument with --location")
		}
		conf := ingestConfidence
		claim, err := eng.Ingest(ctx, model.Candidate{
			LocationID: ingestLocationID,
			Category:   model.Category(ingestCategory),
			RawText:    args[0],
			Confidence: &conf,
			SourceType: model.SourceType(ingestSourceType),
			SourceRef:  ingestSourceRef,
		})
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
		if cfg.Output.JSON {
			return emit(claim)
		}
		fmt.Printf("✓ Claim %s (%s) status=%s date=%q\n", claim.ID, claim.Category, claim.Status, claim.ParsedDate.Display)
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("expected candidate files or --location flags")
	}

	limiter := worker.NewLimiter(cfg.Concurrency.SourceRatePerSecond, cfg.Concurrency.SourceBurst)
	proc := worker.NewBatchProcessor(eng, limiter, cfg.Concurrency.Workers)

	var all []*worker.IngestResult
	for _, path := range args {
		results, err := proc.ProcessFile(ctx, path)
		if err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}
		all = append(all, results...)
	}

	failed := 0
	for _, r := range all {
		if r.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s %q: %v\n", r.Candidate.LocationID, r.Candidate.RawText, r.Error)
		} else if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ %s -> claim %s\n", r.Candidate.RawText, r.Claim.ID)
		}
	}

	if cfg.Output.JSON {
		return emit(all)
	}

	_, _, completed, failedN := proc.Counters.Snapshot()
	fmt.Printf("Ingested %d candidates: %d completed, %d failed\n", len(all), completed, failedN)
	if failed > 0 {
		return fmt.Errorf("%d candidates failed", failed)
	}
	return nil
}
