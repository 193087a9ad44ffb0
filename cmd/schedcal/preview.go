package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schedcal/internal/ics"
)

func newPreviewCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <file.ics>",
		Short: "List every class meeting in a calendar file",
		Long: `Read an .ics file, expand its recurring events and print one line per
meeting in date order. Useful to check a recurring calendar before importing it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := ics.Read(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			res, err := ics.Expand(entries, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, o := range res.Occurrences {
				line := fmt.Sprintf("%s  %s-%s  %s",
					o.Start.Format("2006-01-02 Mon"),
					o.Start.Format("15:04"),
					o.End.Format("15:04"),
					o.Title,
				)
				if o.Location != "" {
					line += "  @ " + o.Location
				}
				fmt.Fprintln(out, line)
			}
			for _, uid := range res.TruncatedEvents {
				fmt.Fprintf(out, "(truncated after %d meetings: %s)\n", limit, uid)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 1000, "Maximum meetings listed per recurring event")
	return cmd
}
