package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/psirt-checker/advisory"
	"github.com/aquasecurity/psirt-checker/aggregate"
	"github.com/aquasecurity/psirt-checker/config"
	"github.com/aquasecurity/psirt-checker/inventory"
	"github.com/aquasecurity/psirt-checker/report"
	"github.com/aquasecurity/psirt-checker/token"
	"github.com/aquasecurity/psirt-checker/utils"
)

const defaultConfigFile = "psirt-checker.yaml"

var (
	configPath  = flag.String("config", "", "YAML config file (default "+defaultConfigFile+" when present)")
	input       = flag.String("input", "", "device inventory CSV, local path or remote URL (default "+config.DefaultInput+")")
	output      = flag.String("output", "", "report CSV (default "+config.DefaultOutput+")")
	jsonOutput  = flag.String("json", "", "also write the aggregate as JSON to this file")
	concurrency = flag.Int("concurrency", 0, "number of advisory lookups in flight (default 1)")
	compare     = flag.String("compare", "", "release comparison for the suggested release (lexical, semantic)")
	detail      = flag.Bool("detail", true, "print per-advisory detail")
	debug       = flag.Bool("debug", false, "debug logging and JSON dump of the aggregate")
	insecure    = flag.Bool("insecure", false, "skip TLS certificate verification")
	proxy       = flag.String("proxy", "", "HTTP proxy URL")
	progress    = flag.Bool("progress", false, "show a progress bar while fetching")
	noColor     = flag.Bool("no-color", false, "disable colored output")
)

func main() {
	flag.Parse()

	fs := afero.NewOsFs()
	c, err := loadConfig(fs)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err = run(ctx, c, fs, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// loadConfig layers the config file, environment and explicitly set flags.
func loadConfig(fs afero.Fs) (config.Config, error) {
	path := *configPath
	if path == "" {
		ok, err := utils.NewFs(fs).Exists(defaultConfigFile)
		if err != nil {
			return config.Config{}, err
		}
		if ok {
			path = defaultConfigFile
		}
	}

	c, err := config.Load(fs, path)
	if err != nil {
		return config.Config{}, xerrors.Errorf("config error: %w", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			c.Input = *input
		case "output":
			c.Output = *output
		case "json":
			c.JSONOutput = *jsonOutput
		case "concurrency":
			c.Concurrency = *concurrency
		case "compare":
			c.VersionCompare = *compare
		case "detail":
			c.Detail = *detail
		case "debug":
			c.Debug = *debug
		case "insecure":
			c.VerifyTLS = !*insecure
		case "proxy":
			c.Proxy = *proxy
		case "progress":
			c.Progress = *progress
		}
	})

	if *noColor {
		color.NoColor = true
	}
	return c, nil
}

func run(ctx context.Context, c config.Config, fs afero.Fs, stdout io.Writer) error {
	if c.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := c.Validate(); err != nil {
		return xerrors.Errorf("config error: %w", err)
	}
	cmp, err := report.ComparatorFor(c.VersionCompare)
	if err != nil {
		return err
	}

	queries, err := readInventory(ctx, fs, c.Input)
	if err != nil {
		return err
	}
	log.Infof("Loaded %d devices (%d platforms) from %s", len(queries), len(inventory.Platforms(queries)), c.Input)

	if !c.VerifyTLS {
		log.Warn("TLS certificate verification is disabled")
	}

	acquirer := token.NewAcquirer(
		token.WithURL(c.TokenURL),
		token.WithProxy(c.Proxy),
		token.WithVerifyTLS(c.VerifyTLS),
	)
	tok, err := acquirer.Acquire(ctx, c.ClientID, c.ClientSecret)
	if err != nil {
		return err
	}

	fetcher, err := advisory.NewFetcher(tok,
		advisory.WithURL(c.AdvisoryURL),
		advisory.WithProxy(c.Proxy),
		advisory.WithVerifyTLS(c.VerifyTLS),
		advisory.WithConcurrency(c.Concurrency),
		advisory.WithProgress(c.Progress),
	)
	if err != nil {
		return err
	}

	log.Infof("Fetching advisories for %d devices", len(queries))
	results := fetcher.FetchAll(ctx, queries)

	console := report.NewConsole(stdout, report.WithDetail(c.Detail), report.WithComparator(cmp))
	if err = console.Print(results); err != nil {
		return xerrors.Errorf("failed to print summary: %w", err)
	}

	table := aggregate.Build(results)
	if c.Debug {
		if err = report.DumpJSON(stdout, table); err != nil {
			return err
		}
	}
	if c.JSONOutput != "" {
		if err = utils.NewFs(fs).WriteJSON(c.JSONOutput, table.Rows); err != nil {
			return xerrors.Errorf("failed to write %s: %w", c.JSONOutput, err)
		}
	}

	if err = report.SaveCSV(fs, c.Output, table); err != nil {
		return err
	}
	log.Infof("Wrote %d advisories for %d platforms to %s", len(table.Rows), len(table.Platforms), c.Output)

	return nil
}

func readInventory(ctx context.Context, fs afero.Fs, src string) ([]inventory.DeviceQuery, error) {
	if !utils.IsRemote(src) {
		return inventory.Load(fs, src)
	}

	log.Infof("Downloading inventory from %s", src)
	path, err := utils.DownloadToTempFile(ctx, src)
	if err != nil {
		return nil, &inventory.MalformedInputError{Path: src, Err: err}
	}
	defer os.Remove(path)

	return inventory.Load(afero.NewOsFs(), path)
}
