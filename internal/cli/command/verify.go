// Package command provides CLI command definitions for linkgate-cli.
package command

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkgate-go/internal/cli/connection"
	"github.com/yndnr/linkgate-go/internal/cli/output"
)

// VerifyCommand returns the verify command.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Submit a verification code for a link",
		ArgsUsage: "SECRET CODE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "resource",
				Aliases: []string{"r"},
				Usage:   "Resource ID the link points to",
			},
		},
		Action: verifyAction,
	}
}

func verifyAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: verify SECRET CODE")
	}
	secret := strings.TrimSpace(c.Args().Get(0))
	code := strings.TrimSpace(c.Args().Get(1))

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Post(ctx, "/verify", verifyRequest{
		Secret:     secret,
		Code:       code,
		ResourceID: c.String("resource"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result verifyResult
	err = connection.ParseResponse(resp, &result)

	var apiErr *connection.APIError
	if errors.As(err, &apiErr) {
		var failure verifyFailure
		if apiErr.DecodeDetails(&failure) == nil && failure.Outcome != "" {
			if flags.Output != output.FormatTable {
				if rerr := render(c, flags, failure); rerr != nil {
					return rerr
				}
			} else if failure.Outcome == "invalid" {
				fmt.Fprintf(stdout(c), "Incorrect code, %d attempt(s) remaining.\n", failure.AttemptsRemaining)
			}
		}
		return err
	}
	if err != nil {
		return err
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, result)
	}
	fmt.Fprintf(stdout(c), "Verified. Access is open for %s.\n", time.Duration(result.BypassSeconds)*time.Second)
	return nil
}
