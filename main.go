package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"mangascraper/internal/api"
	"mangascraper/internal/browser"
	"mangascraper/internal/config"
	"mangascraper/internal/extractor"
	"mangascraper/internal/fetcher"
	"mangascraper/internal/formatter"
	"mangascraper/internal/schema"
	"mangascraper/internal/scraper"
	"mangascraper/internal/store"
)

var version = "dev"

var (
	port         int
	sourcesFile  string
	platform     string
	pageType     string
	slug         string
	limit        int
	outputFormat string
	listFormat   string
	outputFile   string
	htmlFile     string
	timeout      time.Duration
	showUI       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mangascraper",
		Short:   "Schema-driven manga catalogue scraper",
		Version: version,
		Long: `mangascraper drives a headless browser through manga catalogue sites and
turns their pages into structured records using a declarative selector
catalogue. It runs as an HTTP service or as a one-shot command.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&sourcesFile, "sources", "", "YAML catalogue overriding the embedded one (env SOURCES_FILE)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&port, "port", 0, "Listen port (env PORT, default 5000)")

	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape one page and print the records",
		Example: `  # Top 5 hot updates as a Markdown table
  mangascraper scrape --platform weebcentral --page popular -n 5 -f markdown

  # Series details as JSON
  mangascraper scrape --page details --slug 01J76XY7E9FNDZ1DBBM6PBJPFK -f json

  # Extract from a saved page without starting a browser
  mangascraper scrape --page latest --html latest.html -o latest.csv`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}
	scrapeCmd.Flags().StringVar(&platform, "platform", scraper.DefaultPlatform, "Source platform")
	scrapeCmd.Flags().StringVar(&pageType, "page", scraper.DefaultPageType, "Page type")
	scrapeCmd.Flags().StringVar(&slug, "slug", "", "Slug for detail pages")
	scrapeCmd.Flags().IntVarP(&limit, "limit", "n", scraper.DefaultLimit, "Maximum number of listing items")
	scrapeCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format ("+strings.Join(formatter.Formats, ", ")+")")
	scrapeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	scrapeCmd.Flags().StringVar(&htmlFile, "html", "", "Extract from a saved HTML file instead of a live browser")
	scrapeCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Navigation timeout (env NAVIGATION_TIMEOUT, default 2m)")
	scrapeCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")

	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "List the configured platforms and page types",
		Args:  cobra.NoArgs,
		RunE:  runSources,
	}
	sourcesCmd.Flags().StringVarP(&listFormat, "format", "f", "text", "Output format (text, json)")

	rootCmd.AddCommand(serveCmd, scrapeCmd, sourcesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg := config.Load()
	if sourcesFile != "" {
		cfg.SourcesFile = sourcesFile
	}
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.Mode == config.ModeProduction {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func loadRegistry(cfg *config.Config) (*schema.Registry, error) {
	if cfg.SourcesFile != "" {
		return schema.LoadFile(cfg.SourcesFile)
	}
	return schema.Default()
}

func newService(cfg *config.Config, reg *schema.Registry, logger *slog.Logger) *scraper.Service {
	manager := browser.NewManager(browser.EnvFromConfig(cfg), logger)
	opts := fetcher.DefaultOptions()
	opts.NavigationTimeout = cfg.Browser.NavigationTimeout
	return scraper.NewService(reg, fetcher.NewLauncher(manager, opts), logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if port > 0 {
		cfg.Port = port
	}
	logger := newLogger(cfg)

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Mode != config.ModeDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := api.NewServer(newService(cfg, reg, logger), reg, st, api.Options{
		AllowedOrigin: cfg.HTTP.HostName,
		AuthToken:     cfg.HTTP.AuthToken,
		LogRequests:   cfg.Mode != config.ModeTest,
	}, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: srv.SetupRouter(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", httpServer.Addr,
			"mode", string(cfg.Mode),
			"browser_strategy", string(browser.Select(browser.EnvFromConfig(cfg))),
			"sources", reg.Sources(),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runScrape(cmd *cobra.Command, args []string) error {
	if outputFile != "" && !cmd.Flags().Changed("format") {
		if inferred := inferFormatFromExtension(outputFile); inferred != "" {
			outputFormat = inferred
		}
	}
	if !validFormat(outputFormat) {
		return fmt.Errorf("invalid output format: %s", outputFormat)
	}

	cfg := loadConfig()
	if timeout > 0 {
		cfg.Browser.NavigationTimeout = timeout
	}
	if showUI {
		cfg.Browser.ShowUI = true
	}
	logger := newLogger(cfg)

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	req := scraper.Request{Platform: platform, PageType: pageType, Slug: slug, NumberOfItems: &limit}
	svc := newService(cfg, reg, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var resp *scraper.Response
	if htmlFile != "" {
		resp, err = scrapeFile(ctx, svc, req, htmlFile)
	} else {
		resp, err = svc.Scrape(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("failed to scrape: %w", err)
	}

	out, err := formatter.Format(resp, outputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", outputFile)
		return nil
	}
	fmt.Println(out)
	return nil
}

// scrapeFile runs req against a saved copy of the target page.
func scrapeFile(ctx context.Context, svc *scraper.Service, req scraper.Request, path string) (*scraper.Response, error) {
	req, plan, err := svc.Prepare(req)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := extractor.FromHTML(f, plan.URL)
	if err != nil {
		return nil, err
	}
	return svc.Run(ctx, req, plan, doc)
}

func runSources(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(loadConfig())
	if err != nil {
		return err
	}

	type entry struct {
		Platform  string   `json:"platform"`
		BaseURL   string   `json:"baseUrl"`
		PageTypes []string `json:"pageTypes"`
	}
	var entries []entry
	for _, key := range reg.Sources() {
		src, err := reg.LookupSource(key)
		if err != nil {
			return err
		}
		entries = append(entries, entry{Platform: src.Key, BaseURL: src.BaseURL, PageTypes: src.PageTypes()})
	}

	switch listFormat {
	case "json":
		b, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	case "text":
		for _, e := range entries {
			fmt.Printf("%s\t%s\t%s\n", e.Platform, e.BaseURL, strings.Join(e.PageTypes, ", "))
		}
	default:
		return fmt.Errorf("invalid output format: %s", listFormat)
	}
	return nil
}

func validFormat(f string) bool {
	for _, v := range formatter.Formats {
		if v == f {
			return true
		}
	}
	return false
}

// inferFormatFromExtension infers output format from file extension
func inferFormatFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "text"
	case ".csv":
		return "csv"
	default:
		return ""
	}
}
