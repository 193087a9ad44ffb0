package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"schedcal/internal/convert"
	"schedcal/internal/watch"
	"schedcal/internal/web"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the calendar whenever the spreadsheet changes",
		Long: `Convert once, then keep converting whenever the input file is saved and
on the "refresh" cron schedule from the config file. A failed conversion is
logged and leaves the previous calendar in place. Stop with Ctrl-C.

With --listen (or "listen" in the config file) the calendar is also served
over HTTP at /calendar.ics for subscription, with expanded meetings as JSON
at /api/events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := opts.convertOptions()
			if err != nil {
				return err
			}

			run := func(ctx context.Context) error {
				_, err := convert.File(ctx, opts.input, opts.destination, conv)
				return err
			}
			if err := run(cmd.Context()); err != nil {
				return err
			}

			w, err := watch.New(opts.input, run, watch.Options{Refresh: opts.cfg.Refresh})
			if err != nil {
				return err
			}

			if listen == "" {
				listen = opts.cfg.Listen
			}
			if listen == "" {
				return w.Run(cmd.Context())
			}

			var auth *web.BasicAuth
			if ba := opts.cfg.BasicAuth; ba != nil {
				auth = &web.BasicAuth{Username: ba.Username, Password: ba.Password}
			}
			srv := web.NewServer(convert.OutputPath(opts.input, opts.destination), auth)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return w.Run(ctx) })
			g.Go(func() error { return srv.ListenAndServe(ctx, listen) })
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Serve the calendar over HTTP on this address, e.g. 127.0.0.1:8080 (overrides config)")
	return cmd
}
