// Package command provides CLI command definitions for linkgate-cli.
package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkgate-go/internal/cli/connection"
	"github.com/yndnr/linkgate-go/internal/cli/output"
	"github.com/yndnr/linkgate-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server probes and version information",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check server readiness",
				Action: systemReady,
			},
			{
				Name:   "version",
				Usage:  "Show client and server versions",
				Action: systemVersion,
			},
		},
	}
}

// probe fetches a health endpoint. A 503 readiness report is returned with
// its data and a non-nil error.
func probe(c *cli.Context, path string) (*healthResult, *GlobalFlags, string, error) {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return nil, nil, "", err
	}

	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Get(ctx, path)
	if err != nil {
		return nil, flags, client.BaseURL(), fmt.Errorf("server unreachable: %w", err)
	}

	var result healthResult
	err = connection.ParseResponse(resp, &result)
	return &result, flags, client.BaseURL(), err
}

func systemHealth(c *cli.Context) error {
	result, flags, target, err := probe(c, "/health")
	if err != nil {
		return err
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, result)
	}

	w := stdout(c)
	fmt.Fprintf(w, "Server is %s\n", result.Status)
	fmt.Fprintf(w, "  Target:     %s\n", target)
	fmt.Fprintf(w, "  Version:    %s\n", result.Version)
	fmt.Fprintf(w, "  Uptime:     %s\n", time.Duration(result.UptimeSeconds)*time.Second)
	fmt.Fprintf(w, "  Live links: %d\n", result.LiveLinks)
	fmt.Fprintf(w, "  Swept:      %d\n", result.SweptTotal)
	if !result.LastSweepAt.IsZero() {
		fmt.Fprintf(w, "  Last sweep: %s\n", result.LastSweepAt.Local().Format(time.DateTime))
	}
	return nil
}

func systemReady(c *cli.Context) error {
	result, flags, _, err := probe(c, "/ready")

	var apiErr *connection.APIError
	if err != nil && !errors.As(err, &apiErr) {
		return err
	}
	if result != nil && result.Status != "" {
		if flags.Output != output.FormatTable {
			if rerr := render(c, flags, result); rerr != nil {
				return rerr
			}
		} else {
			fmt.Fprintf(stdout(c), "Server is %s\n", result.Status)
			for _, check := range result.Checks {
				fmt.Fprintf(stdout(c), "  failed check: %s\n", check)
			}
		}
	}
	if err != nil {
		return cli.Exit("server not ready", 1)
	}
	return nil
}

func systemVersion(c *cli.Context) error {
	w := stdout(c)
	fmt.Fprintf(w, "Client: %s\n", buildinfo.String())

	result, _, _, err := probe(c, "/health")
	if err != nil {
		fmt.Fprintf(w, "Server: unavailable (%v)\n", err)
		return nil
	}
	fmt.Fprintf(w, "Server: %s\n", result.Version)
	return nil
}
