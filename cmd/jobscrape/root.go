package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"example.com/actuaryjobs/internal/config"
	"example.com/actuaryjobs/internal/domain"
	"example.com/actuaryjobs/internal/scrape"
)

var (
	pageURL  string
	pageFile string
	endpoint string
	dryRun   bool
	debug    bool
)

var rootCmd = &cobra.Command{
	Use:   "jobscrape",
	Short: "Scrape actuarylist.com and push the listings to the jobs API",
	Long: "jobscrape parses one listings page (fetched or read from disk) into a raw batch " +
		"and posts it to the bulk ingestion endpoint. Already-stored jobs are skipped server side.",
	SilenceUsage: true,
	RunE:         runScrape,
}

func init() {
	_ = config.LoadDotEnv()

	defaultEndpoint := os.Getenv("JOBS_API_URL")
	if defaultEndpoint == "" {
		defaultEndpoint = "http://127.0.0.1:8080"
	}
	rootCmd.Flags().StringVar(&pageURL, "url", scrape.DefaultListingsURL, "listings page to fetch")
	rootCmd.Flags().StringVarP(&pageFile, "file", "f", "", "parse a saved listings page instead of fetching --url")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", defaultEndpoint, "jobs API base url (default: JOBS_API_URL env var)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the batch as JSON instead of posting it")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func setupLogger(dbg bool) (*zap.Logger, error) {
	if dbg {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger(debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := scrape.NewClient(endpoint)

	var jobs []domain.RawJob
	if pageFile != "" {
		jobs, err = parseFile(pageFile, pageURL)
	} else {
		logger.Info("fetching listings", zap.String("url", pageURL))
		jobs, err = client.FetchListings(ctx, pageURL)
	}
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	logger.Info("parsed listings", zap.Int("jobs", len(jobs)))
	for _, j := range jobs {
		logger.Debug("job", zap.String("title", j.Title), zap.String("company", j.Company))
	}

	if dryRun {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	}
	if len(jobs) == 0 {
		logger.Warn("no jobs found, nothing to send")
		return nil
	}

	resp, err := client.PostBatch(ctx, jobs)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	logger.Info("batch sent",
		zap.Int("sent", len(jobs)),
		zap.Int64("stored", resp.JobsStored),
		zap.String("message", resp.Message),
	)
	return nil
}

func parseFile(path, base string) ([]domain.RawJob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid --url: %w", err)
	}
	return scrape.ParseListings(f, u)
}
