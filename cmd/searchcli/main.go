package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ijalalfrz/flight-segment-search/internal/app/bootstrap"
	"github.com/ijalalfrz/flight-segment-search/internal/app/config"
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/app/service"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/logger"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/segment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

var errSearchTimeout = errors.New("search did not finish in time")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "searchcli",
		Usage: "Run a multi-segment flight search and follow its progress",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to the .env configuration file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search every segment and print the results once all of them settle",
				ArgsUsage: " ",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "segment",
						Aliases:  []string{"s"},
						Usage:    "Segment as ORIGIN:DESTINATION:YYYY-MM-DD, repeat for more legs",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "adults",
						Usage: "Number of adult passengers",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "children",
						Usage: "Number of child passengers",
					},
					&cli.IntFlag{
						Name:  "infants",
						Usage: "Number of infant passengers",
					},
					&cli.StringFlag{
						Name:  "cabin",
						Usage: "Cabin class (economy, premium, business, first)",
						Value: string(dto.CabinEconomy),
					},
					&cli.BoolFlag{
						Name:  "direct",
						Usage: "Only direct flights",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort field (best, price, duration, stops, departure_time, arrival_time)",
					},
					&cli.IntFlag{
						Name:  "reveal",
						Usage: "Reveal more results this many times before printing",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Give up if the search has not settled after this long",
						Value: time.Minute,
					},
					&cli.StringFlag{
						Name:  "fixture",
						Usage: "Override REMOTE_SEARCH_FIXTURE_PATH",
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "Override SEARCH_POLL_INTERVAL",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	level := config.LogLeveler(c.String("log-level"))
	handler := slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(&logger.StackTraceHandler{Handler: handler}))

	return nil
}

func searchCommand(c *cli.Context) error {
	req, err := batchFromFlags(c)
	if err != nil {
		return err
	}

	if err := dto.InitValidator(); err != nil {
		return fmt.Errorf("failed to init validator: %w", err)
	}

	if err := req.Validate(); err != nil {
		return err
	}

	listing := dto.ListSegmentsRequest{}
	if field := c.String("sort"); field != "" {
		listing.Sort = &dto.SortOption{Field: field, Order: "asc"}
		if err := listing.Validate(); err != nil {
			return err
		}
	}

	cfg := config.MustInitConfig(c.String("env"))
	if path := c.String("fixture"); path != "" {
		cfg.Remote.FixturePath = path
	}

	if interval := c.Duration("poll-interval"); interval > 0 {
		cfg.Search.PollInterval = interval
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
	defer cancel()

	limiter, cleanup := bootstrap.NewLimiter(ctx, &cfg)
	defer cleanup()

	remote, err := bootstrap.NewRemoteSearch(&cfg, limiter)
	if err != nil {
		return err
	}

	progress := newProgressPrinter(c.App.Writer)

	orchestrator, err := bootstrap.NewOrchestrator(ctx, &cfg, remote, prometheus.NewRegistry(),
		segment.WithListener(progress.observe))
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	if err := orchestrator.StartBatch(ctx, req); err != nil {
		return err
	}

	select {
	case <-progress.settled:
	case <-ctx.Done():
		return errSearchTimeout
	}

	for i := 0; i < c.Int("reveal"); i++ {
		for index := range req.Segments {
			if _, err := orchestrator.RevealMore(index); err != nil {
				return err
			}
		}
	}

	resp, err := service.NewSearchService(orchestrator).ListSegments(ctx, listing)
	if err != nil {
		return err
	}

	printResults(c.App.Writer, resp.Segments)

	return nil
}

func batchFromFlags(c *cli.Context) (dto.BatchRequest, error) {
	req := dto.BatchRequest{
		Passengers: dto.Passengers{
			Adults:   c.Int("adults"),
			Children: c.Int("children"),
			Infants:  c.Int("infants"),
		},
		Cabin:  dto.CabinClass(strings.ToLower(c.String("cabin"))),
		Direct: c.Bool("direct"),
	}

	for _, raw := range c.StringSlice("segment") {
		seg, err := parseSegment(raw)
		if err != nil {
			return dto.BatchRequest{}, err
		}

		req.Segments = append(req.Segments, seg)
	}

	return req, nil
}

// parseSegment reads ORIGIN:DESTINATION:YYYY-MM-DD.
func parseSegment(raw string) (dto.Segment, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return dto.Segment{}, fmt.Errorf("segment %q must be ORIGIN:DESTINATION:YYYY-MM-DD", raw)
	}

	return dto.Segment{
		Origin:      strings.ToUpper(strings.TrimSpace(parts[0])),
		Destination: strings.ToUpper(strings.TrimSpace(parts[1])),
		Date:        strings.TrimSpace(parts[2]),
	}, nil
}

// progressPrinter prints a line whenever a segment changes state, progress
// or result count, and closes settled once every segment is complete.
type progressPrinter struct {
	out     io.Writer
	settled chan struct{}

	mu   sync.Mutex
	last map[int]string
	once sync.Once
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{
		out:     out,
		settled: make(chan struct{}),
		last:    make(map[int]string),
	}
}

func (p *progressPrinter) observe(views []dto.SegmentView) {
	p.mu.Lock()
	defer p.mu.Unlock()

	complete := len(views) > 0

	for i, v := range views {
		line := fmt.Sprintf("[%d] %s->%s %3d%% %3d results %s",
			i+1, v.Query.Segment.Origin, v.Query.Segment.Destination,
			v.Progress, len(v.Results), v.State)
		if v.Error != "" {
			line += " (" + v.Error + ")"
		}

		if p.last[i] != line {
			p.last[i] = line
			fmt.Fprintln(p.out, line)
		}

		complete = complete && v.Complete
	}

	if complete {
		p.once.Do(func() { close(p.settled) })
	}
}

func printResults(out io.Writer, views []dto.SegmentView) {
	for i, v := range views {
		fmt.Fprintf(out, "\nSegment %d: %s -> %s on %s, %s (%d shown)\n",
			i+1, v.Query.Segment.Origin, v.Query.Segment.Destination, v.Query.Segment.Date,
			v.State, len(v.Results))

		if v.Error != "" {
			fmt.Fprintf(out, "  %s\n", v.Error)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, r := range v.Results {
			fmt.Fprintf(w, "  %s\t%s %s\t%s\t%s\t%d stop(s)\t%s\n",
				r.ID, r.Airline.Name, r.FlightNumber, r.Departure.Datetime,
				r.Duration.Formatted, r.Stops, r.Price.Formatted)
		}
		_ = w.Flush()
	}
}
