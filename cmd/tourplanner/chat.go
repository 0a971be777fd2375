package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hupe1980/tourmesh/client"
	"github.com/hupe1980/tourmesh/internal/config"
	"github.com/spf13/cobra"
)

const quitCommand = "/quit"

type chatFlags struct {
	country string
	city    string
	budget  string
	notes   string
	apiBase string
}

func chatCmd(load func() (*config.Config, error)) *cobra.Command {
	var f chatFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Plan a trip interactively against a running planning service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			budget, err := client.ResolveBudget(f.budget)
			if err != nil {
				return err
			}

			apiBase := f.apiBase
			if apiBase == "" {
				apiBase = cfg.Client.APIBase
			}

			c := client.New(apiBase, func(o *client.Options) {
				o.HealthTimeout = cfg.Client.HealthTimeout
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			trip := client.TripRequest{Country: f.country, City: f.city, Budget: budget, Notes: f.notes}

			return runChat(ctx, c, trip, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&f.country, "country", "", "destination country, e.g. "+strings.Join(client.Countries, ", "))
	cmd.Flags().StringVar(&f.city, "city", "", "city or tour points, e.g. Kyoto, Phuket, Golden Triangle")
	cmd.Flags().StringVar(&f.budget, "budget", "standard", "budget tier: backpacker, standard or luxury")
	cmd.Flags().StringVar(&f.notes, "notes", "", "additional requirements, e.g. vegetarian food, family friendly")
	cmd.Flags().StringVar(&f.apiBase, "api-base", "", "planning service address (overrides client.api_base)")

	return cmd
}

func runChat(ctx context.Context, c *client.Client, trip client.TripRequest, in io.Reader, out io.Writer) error {
	target := trip.City
	if target == "" {
		target = "..."
	}

	fmt.Fprintln(out, "✈️  Deep Tour Agent")
	fmt.Fprintf(out, "Target: %s, %s | Style: %s\n", target, trip.Country, trip.Budget)
	fmt.Fprintf(out, "Backend Status: %s at %s\n\n", c.Health(ctx), c.BaseURL())

	chat := client.NewChat(c, client.NewSession())
	r := &terminalRenderer{out: out}

	if trip.Country != "" || trip.City != "" {
		// Failures are rendered by the chat.
		_, _ = chat.Start(ctx, trip, r)
	}

	fmt.Fprintf(out, "Ask changes or details (%s to exit).\n", quitCommand)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")

		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}

		line := strings.TrimSpace(sc.Text())
		if line == quitCommand {
			return nil
		}

		if ctx.Err() != nil {
			return nil
		}

		_, _ = chat.Ask(ctx, line, r)
	}
}

// terminalRenderer prints progress lines indented and the answer as is.
type terminalRenderer struct {
	out io.Writer
}

func (r *terminalRenderer) Log(message string) {
	for _, line := range strings.Split(message, "\n") {
		fmt.Fprintf(r.out, "  │ %s\n", line)
	}
}

func (r *terminalRenderer) Answer(content string) {
	fmt.Fprintf(r.out, "\n%s\n\n", content)
}

func (r *terminalRenderer) Error(message string) {
	fmt.Fprintf(r.out, "✖ %s\n", message)
}
