package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inclusify/internal/history"
	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/score"
)

var (
	statsTop   int
	statsJSON  bool
	statsClear bool
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show KPIs over recorded analyses",
	Long: `Stats reads the analysis history and prints the total number of
analyses, issues found, the share of each severity, the average
inclusivity index and the most frequent terms.

Only analyses run with --private=false (or history.private: false) are
recorded.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsTop, "top", score.DefaultTopTerms, "number of top terms to show")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print stats as JSON")
	statsCmd.Flags().BoolVar(&statsClear, "clear", false, "delete all recorded analyses")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	if statsClear {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ History cleared\n")
		return nil
	}

	stats, err := store.Stats(statsTop)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	printStats(stats)
	return nil
}

func printStats(stats history.Stats) {
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Inclusify Dashboard")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Printf("  Total analyses:   %d\n", stats.TotalAnalyses)
	fmt.Printf("  Issues found:     %d\n", stats.IssuesFound)
	fmt.Printf("  Average score:    %.1f/100\n", stats.AverageScore)
	fmt.Println()

	if stats.TotalAnalyses == 0 {
		fmt.Println("  No analyses recorded yet. Run analyze with --private=false.")
		fmt.Println()
		return
	}

	fmt.Println("  Breakdown:")
	for _, sev := range model.Severities() {
		fmt.Printf("    %-10s %4d  %5.1f%%\n", sev, stats.Counts.Get(sev), stats.Breakdown[sev]*100)
	}
	fmt.Println()

	if len(stats.TopTerms) > 0 {
		fmt.Println("  Top terms:")
		for _, t := range stats.TopTerms {
			line := fmt.Sprintf("    %-20s %-10s x%d", t.Term, t.Severity, t.Count)
			if t.Suggestion != "" {
				line += fmt.Sprintf("  → %s", t.Suggestion)
			}
			fmt.Println(line)
		}
		fmt.Println()
	}
}
