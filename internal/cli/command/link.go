// Package command provides CLI command definitions for linkgate-cli.
package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkgate-go/internal/cli/connection"
	"github.com/yndnr/linkgate-go/internal/cli/output"
)

// LinkCommand returns the link subcommand group.
func LinkCommand() *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "Issue and inspect links",
		Subcommands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "Issue a link to a resource",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "resource",
						Aliases:  []string{"r"},
						Usage:    "Resource ID (file name in the resource directory)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "contact",
						Aliases:  []string{"c"},
						Usage:    "Owner contact that receives verification codes",
						Required: true,
					},
					&cli.DurationFlag{
						Name:    "ttl",
						Aliases: []string{"t"},
						Usage:   "Link lifetime (server default when unset)",
					},
				},
				Action: linkIssue,
			},
			{
				Name:   "stats",
				Usage:  "Show store counters and live links (admin)",
				Action: linkStats,
			},
			{
				Name:   "sweep",
				Usage:  "Remove expired links now (admin)",
				Action: linkSweep,
			},
		},
	}
}

func linkIssue(c *cli.Context) error {
	client, flags, err := EnsureAuthenticated(c)
	if err != nil {
		return err
	}

	req := issueLinkRequest{
		ResourceID:   c.String("resource"),
		OwnerContact: c.String("contact"),
	}
	if ttl := c.Duration("ttl"); ttl != 0 {
		if ttl < time.Second {
			return fmt.Errorf("--ttl must be at least 1s")
		}
		req.TTLSeconds = int64(ttl / time.Second)
	}

	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Post(ctx, "/tokens", req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var link issuedLink
	if err := connection.ParseResponse(resp, &link); err != nil {
		return err
	}
	return render(c, flags, link)
}

func linkStats(c *cli.Context) error {
	client, flags, err := EnsureAuthenticated(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Get(ctx, "/tokens/stats")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var stats statsResult
	if err := connection.ParseResponse(resp, &stats); err != nil {
		return err
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, stats)
	}

	w := stdout(c)
	summary := &output.Table{Headers: []string{"LIVE", "ISSUED", "SWEPT", "DISCARDED", "EXPIRED", "LAST_SWEEP", "BYPASS"}}
	lastSweep := "-"
	if stats.Store.LastSweep > 0 {
		lastSweep = time.UnixMilli(stats.Store.LastSweep).Local().Format("2006-01-02 15:04:05")
	}
	summary.AddRow(
		fmt.Sprint(stats.Store.Live),
		fmt.Sprint(stats.Store.Issued),
		fmt.Sprint(stats.Store.Swept),
		fmt.Sprint(stats.Store.Discarded),
		fmt.Sprint(stats.Store.Expired),
		lastSweep,
		stats.BypassWindow,
	)
	if err := summary.Render(w); err != nil {
		return err
	}
	if len(stats.Links) == 0 {
		fmt.Fprintln(w, "\nNo live links.")
		return nil
	}
	fmt.Fprintln(w)
	return render(c, flags, stats.Links)
}

func linkSweep(c *cli.Context) error {
	client, flags, err := EnsureAuthenticated(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Post(ctx, "/tokens/sweep", nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result sweepResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, result)
	}
	fmt.Fprintf(stdout(c), "Removed %d expired link(s), %d live.\n", result.Removed, result.Live)
	return nil
}
