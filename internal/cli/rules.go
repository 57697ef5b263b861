package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/render"
	"github.com/ppiankov/inclusify/internal/rules"
	"github.com/ppiankov/inclusify/internal/util"
	"github.com/ppiankov/inclusify/internal/validate"
)

var (
	checkLinks   bool
	exportFormat string
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the rule table",
	Long: `Inspect the term rule table in use: the built-in table, or the file
named by rules.path in the configuration.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every rule as a glossary",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, _, err := loadRules()
		if err != nil {
			return err
		}
		printGlossary(table)
		return nil
	},
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the rule table",
	Long: `Check loads and validates the rule table. With --links every reference
URL is requested and unreachable references are reported.`,
	RunE: runRulesCheck,
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the rule table as YAML or TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, _, err := loadRules()
		if err != nil {
			return err
		}
		data, err := rules.Marshal(table, rules.Format(exportFormat))
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesExportCmd)

	rulesCheckCmd.Flags().BoolVar(&checkLinks, "links", false, "check that reference URLs are reachable")
	rulesExportCmd.Flags().StringVar(&exportFormat, "format", string(rules.FormatYAML), "output format (yaml, toml)")
}

func loadRules() (*rules.Table, *model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	table, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("load rules: %w", err)
	}
	return table, cfg, nil
}

func printGlossary(table *rules.Table) {
	styles := render.NewStyles(nil)

	fmt.Printf("Rule table v%d (%d terms, fingerprint %s)\n\n", table.Version(), table.Len(), table.Fingerprint()[:12])
	for _, r := range table.Rules() {
		fmt.Printf("%s %s\n", styles.Title.Render(r.Term), styles.Badge(r.Severity))
		if r.Suggestion != "" {
			fmt.Printf("  Suggested: %s\n", r.Suggestion)
		}
		fmt.Printf("  %s\n", r.Explanation)
		for _, ref := range r.References {
			fmt.Printf("  %s\n", styles.Muted.Render(ref.Label+": "+ref.URL))
		}
		fmt.Println()
	}
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	table, cfg, err := loadRules()
	if err != nil {
		return err
	}

	source := "built-in"
	if cfg.Rules.Path != "" {
		source = cfg.Rules.Path
	}
	fmt.Fprintf(os.Stderr, "✓ %s: %d rules valid\n", source, table.Len())

	if !checkLinks {
		return nil
	}

	links := validate.LinksFromRules(table.Rules())
	fmt.Fprintf(os.Stderr, "⚙️  Checking %d reference links...\n", len(links))

	client := &http.Client{
		Timeout: cfg.HTTP.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		},
	}
	v := validate.NewValidator(client, cfg.Concurrency.LinkCheckWorkers, cfg.HTTP.UserAgent)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results := v.Validate(ctx, links)
	for _, r := range results {
		status := "✓"
		if !r.Reachable {
			status = "✗"
		}
		detail := fmt.Sprintf("%d", r.StatusCode)
		if r.Error != "" {
			detail = r.Error
		}
		fmt.Fprintf(os.Stderr, "%s %s (%s, %s)\n", status, r.URL, detail, r.Tier)
	}

	if broken := validate.Broken(results); len(broken) > 0 {
		return fmt.Errorf("%d of %d reference links unreachable", len(broken), len(results))
	}
	return nil
}
