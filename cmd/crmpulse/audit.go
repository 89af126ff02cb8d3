package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/crmpulse/crmpulse/internal/history"
	"github.com/crmpulse/crmpulse/internal/ingestion"
	"github.com/crmpulse/crmpulse/pkg/audit"
	"github.com/crmpulse/crmpulse/pkg/config"
	"github.com/crmpulse/crmpulse/pkg/crm"
	"github.com/crmpulse/crmpulse/pkg/surface"
)

func newAuditCmd() *cobra.Command {
	var opts auditOpts

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit a CRM dataset for missing fields",
		Long: `Loads contacts, companies and deals from JSON files, computes missing-field
signals, the overall health score and a prioritized remediation plan.

Either pass a combined --dataset file or any of --contacts, --companies and
--deals. Each per-object file may be a JSON array of records or a list page
of the form {"results": [...]}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), cmd.OutOrStdout(), loadConfig(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "Path to a combined dataset JSON file")
	cmd.Flags().StringVar(&opts.contactsPath, "contacts", "", "Path to a contacts JSON file")
	cmd.Flags().StringVar(&opts.companiesPath, "companies", "", "Path to a companies JSON file")
	cmd.Flags().StringVar(&opts.dealsPath, "deals", "", "Path to a deals JSON file")
	cmd.Flags().StringVar(&opts.outputFmt, "output", "", "Output format: text, json or markdown (default from config, else text)")
	cmd.Flags().StringVar(&opts.portal, "portal", "default", "Portal name used for history and saved reports")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save the dataset and report to the configured storage backend")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable ANSI colors in text output")

	return cmd
}

type auditOpts struct {
	datasetPath   string
	contactsPath  string
	companiesPath string
	dealsPath     string
	outputFmt     string
	portal        string
	save          bool
	noColor       bool
}

func runAudit(ctx context.Context, out io.Writer, cfg *config.Config, opts auditOpts) error {
	ds, err := loadInput(opts)
	if err != nil {
		return err
	}

	format := firstNonEmpty(opts.outputFmt, cfg.Output.Format, "text")
	renderer, err := surface.ForFormat(format)
	if err != nil {
		return err
	}
	if tr, ok := renderer.(*surface.TerminalRenderer); ok {
		tr.NoColor = opts.noColor || cfg.Output.NoColor
	}

	counts := ds.Counts()
	fmt.Fprintf(os.Stderr, "Auditing: %d contacts, %d companies, %d deals\n",
		counts.Contacts, counts.Companies, counts.Deals)

	result := audit.NewEngine().Audit(*ds)

	var reportRef string
	if opts.save {
		reportRef, err = saveAudit(ctx, cfg, opts.portal, *ds, result)
		if err != nil {
			return err
		}
	}

	if cfg.History.Enabled {
		recordHistory(cfg, opts.portal, result, reportRef)
	}

	if err := renderer.Render(out, result); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return nil
}

// loadInput builds the dataset from either a combined file or the
// per-object files. Omitted object files yield empty collections.
func loadInput(opts auditOpts) (*crm.Dataset, error) {
	if opts.datasetPath != "" {
		if opts.contactsPath != "" || opts.companiesPath != "" || opts.dealsPath != "" {
			return nil, fmt.Errorf("--dataset cannot be combined with --contacts, --companies or --deals")
		}
		return crm.LoadDataset(opts.datasetPath)
	}
	if opts.contactsPath == "" && opts.companiesPath == "" && opts.dealsPath == "" {
		return nil, fmt.Errorf("one of --dataset, --contacts, --companies or --deals is required")
	}

	var ds crm.Dataset
	inputs := []struct {
		path string
		dest *[]crm.Record
		name string
	}{
		{opts.contactsPath, &ds.Contacts, "contacts"},
		{opts.companiesPath, &ds.Companies, "companies"},
		{opts.dealsPath, &ds.Deals, "deals"},
	}
	for _, in := range inputs {
		if in.path == "" {
			continue
		}
		records, err := crm.LoadRecords(in.path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", in.name, err)
		}
		*in.dest = records
	}
	return &ds, nil
}

// saveAudit archives the dataset and report under a fresh audit ID and
// returns the report's object key.
func saveAudit(ctx context.Context, cfg *config.Config, portal string, ds crm.Dataset, result *audit.Result) (string, error) {
	storage, err := ingestion.OpenStorage(ctx, ingestion.BackendConfig{
		Backend:   cfg.Storage.Backend,
		LocalDir:  config.ReportDir(cfg),
		GCSBucket: cfg.Storage.Bucket,
		S3: ingestion.S3Config{
			Bucket:   cfg.Storage.Bucket,
			Region:   cfg.Storage.Region,
			Endpoint: cfg.Storage.Endpoint,
		},
	})
	if err != nil {
		return "", fmt.Errorf("opening storage: %w", err)
	}

	auditID := uuid.NewString()
	_, reportRef, err := ingestion.Archive(ctx, storage, config.PortalSlug(portal), auditID, ds, result)
	if err != nil {
		return "", fmt.Errorf("saving audit: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Report saved: %s (audit %s)\n", reportRef, auditID[:minInt(8, len(auditID))])
	return reportRef, nil
}

// recordHistory appends the run to the local history database. Failures
// are reported but never fail the audit.
func recordHistory(cfg *config.Config, portal string, result *audit.Result, reportRef string) {
	store, err := history.Open(config.HistoryPath(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open history: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(portal, result, reportRef); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", err)
	}
}
