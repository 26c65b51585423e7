package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/config"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/verdict"
)

type options struct {
	name       string
	batch      string
	categories string
	threshold  string
	workers    int
	configPath string
	noViz      bool
	noVariants bool
	verbose    bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("bandcheck", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.name, "name", "", "Single band name to check")
	fs.StringVar(&opts.batch, "batch", "", "File with one band name per line (.txt) or in the first column (.csv)")
	fs.StringVar(&opts.categories, "categories", "", "Comma separated categories: Hate,SelfHarm,Sexual,Violence (default: config)")
	fs.StringVar(&opts.threshold, "threshold", "", "Blocking threshold: 0, 2, 4 or 6 (default: config)")
	fs.IntVar(&opts.workers, "workers", 0, "Concurrent classification workers (default: config)")
	fs.StringVar(&opts.configPath, "config", "", "Checker config path (default: "+config.DefaultConfigPath+")")
	fs.BoolVar(&opts.noViz, "no-viz", false, "Skip the visualization file in batch mode")
	fs.BoolVar(&opts.noVariants, "no-variants", false, "Check only the given name in single-name mode")
	fs.BoolVar(&opts.verbose, "verbose", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.name != "" && opts.batch != "" {
		return options{}, fmt.Errorf("-name and -batch are mutually exclusive")
	}
	return opts, nil
}

// apply narrows the checker policy with the command line overrides.
func (o options) apply(checker *config.Config) error {
	if o.categories != "" {
		var categories []string
		for _, c := range strings.Split(o.categories, ",") {
			if c = strings.TrimSpace(c); c != "" {
				categories = append(categories, c)
			}
		}
		checker.Checker.Categories = categories
	}

	if o.threshold != "" {
		threshold, err := verdict.ParseThreshold(o.threshold)
		if err != nil {
			return err
		}
		checker.Checker.Threshold = int(threshold)
	}

	if o.workers > 0 {
		checker.Checker.Workers = o.workers
	}
	if o.noVariants {
		checker.Checker.Variants = false
	}

	return checker.Validate()
}
