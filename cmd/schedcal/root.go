package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"schedcal/internal/config"
	"schedcal/internal/convert"
	"schedcal/internal/expand"
	appLog "schedcal/internal/log"
	"schedcal/internal/model"
	"schedcal/internal/sheet"
)

// rootOptions holds flag values shared by the convert and watch commands.
type rootOptions struct {
	configPath  string
	logLevel    string
	input       string
	destination string
	events      bool
	timezone    string
	sheet       string
	gridOrder   bool

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "schedcal",
		Short: "Convert a course schedule spreadsheet into an iCalendar file",
		Long: `schedcal reads an .xlsx course export and writes an .ics calendar.

Every row's "Meeting Patterns" cell holds one pattern per line:

  2024-01-08 - 2024-04-26 | Mon Wed | 9:30 AM - 10:45 AM | Room 101

By default each pattern becomes one weekly recurring event. With --events
every class meeting is written as its own event instead.

Examples:
  schedcal --input courses.xlsx
  schedcal --input courses.xlsx --destination spring --events
  schedcal --input courses.xlsx --timezone America/Chicago`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := opts.convertOptions()
			if err != nil {
				return err
			}
			stats, err := convert.File(cmd.Context(), opts.input, opts.destination, conv)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d events to %s\n", stats.Events, stats.Output)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to config file")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.StringVarP(&opts.input, "input", "i", "", "The input Excel (.xlsx) file")
	pf.StringVarP(&opts.destination, "destination", "d", "", "The destination file name (defaults to the input name)")
	pf.BoolVarP(&opts.events, "events", "e", false, "Save individual events instead of recurring ones")
	pf.StringVar(&opts.timezone, "timezone", "", "IANA timezone for event times (overrides config; empty writes floating times)")
	pf.StringVar(&opts.sheet, "sheet", "", "Worksheet name (defaults to the first sheet)")
	pf.BoolVar(&opts.gridOrder, "grid-order", false, "Keep calendar-grid order instead of sorting events by date")

	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newPreviewCommand())
	cmd.AddCommand(newConfigCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// load reads the config file and applies the log level.
func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	o.cfg = cfg

	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))
	appLog.Debug("effective config",
		"config_path", o.configPath,
		"timezone", cfg.Timezone,
		"mode", cfg.Mode,
		"order", cfg.Order,
		"sheet", cfg.Sheet,
	)
	return nil
}

// convertOptions merges flags over the config file.
func (o *rootOptions) convertOptions() (convert.Options, error) {
	if o.input == "" {
		return convert.Options{}, errors.New(`required flag "input" not set`)
	}
	if err := sheet.CheckInput(o.input); err != nil {
		return convert.Options{}, err
	}

	cfg := o.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	mode, err := model.ParseMode(cfg.Mode)
	if err != nil {
		return convert.Options{}, err
	}
	if o.events {
		mode = model.ModeExpanded
	}

	order, err := expand.ParseOrder(cfg.Order)
	if err != nil {
		return convert.Options{}, err
	}
	if o.gridOrder {
		order = expand.OrderGrid
	}

	tzCfg := *cfg
	if o.timezone != "" {
		tzCfg.Timezone = o.timezone
	}
	loc, err := tzCfg.Location()
	if err != nil {
		return convert.Options{}, fmt.Errorf("timezone %q: %w", tzCfg.Timezone, err)
	}

	sheetName := cfg.Sheet
	if o.sheet != "" {
		sheetName = o.sheet
	}

	return convert.Options{
		Mode:      mode,
		Order:     order,
		AlignSeed: cfg.AlignSeed,
		Location:  loc,
		ProductID: cfg.ProductID,
		Sheet:     sheetName,
		Columns: sheet.Columns{
			Section:  cfg.Columns.Section,
			Format:   cfg.Columns.Format,
			Patterns: cfg.Columns.Patterns,
		},
	}, nil
}
