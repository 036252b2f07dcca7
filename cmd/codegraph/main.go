package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/graph"
	cgmcp "github.com/standardbeagle/codegraph/internal/mcp"
	"github.com/standardbeagle/codegraph/internal/render"
	"github.com/standardbeagle/codegraph/internal/scanner"
	"github.com/standardbeagle/codegraph/internal/types"
	"github.com/standardbeagle/codegraph/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("root"), c.String("config"))
	if err != nil {
		return nil, err
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludes...)
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Include = includes
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.Bool("verbose") {
		cfg.Verbose = true
	}
	return cfg, nil
}

// buildGraph runs a full scan and assembles the graph. Every reporting
// command starts here; there is no cached or persisted graph.
func buildGraph(ctx context.Context, cfg *config.Config) (*types.Graph, error) {
	res, err := scanner.Scan(ctx, cfg)
	if err != nil {
		return nil, err
	}
	g := graph.Build(res.RootDir, res.Nodes, res.ParseErrors)
	if cfg.Verbose {
		for _, u := range g.Unresolved {
			fmt.Fprintf(os.Stderr, "warning: %s: unresolved import %q\n", u.File, u.Specifier)
		}
	}
	return g, nil
}

func outputFormat(cfg *config.Config) (render.Format, error) {
	return render.ParseFormat(cfg.Format)
}

func emit(out string) error {
	_, err := fmt.Fprintln(os.Stdout, out)
	return err
}

func main() {
	app := &cli.App{
		Name:                   "codegraph",
		Usage:                  "Cross-language dependency graph for polyglot projects",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to scan (overrides config)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: .codegraph.toml in the root)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/fixtures/**')",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Only scan files matching glob patterns",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, markdown, mermaid, dot",
				Value:   "json",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Surface unresolved-import warnings on stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "report",
				Usage:  "Scan and print the full dependency report",
				Action: runReport,
			},
			{
				Name:      "trace",
				Usage:     "Show the neighborhood around a file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "depth",
						Aliases: []string{"d"},
						Usage:   "Maximum distance from the file",
						Value:   2,
					},
				},
				Action: runTrace,
			},
			{
				Name:      "impact",
				Usage:     "Show what breaks if the given files change",
				ArgsUsage: "<file>...",
				Action:    runImpact,
			},
			{
				Name:  "bridges",
				Usage: "List cross-language bridges (HTTP, MQTT, WebSocket, serial, env)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "anomalies-only",
						Usage: "Only unmatched or dead bridges",
					},
				},
				Action: runBridges,
			},
			{
				Name:   "clusters",
				Usage:  "Partition the project into connectivity clusters",
				Action: runClusters,
			},
			{
				Name:  "entries",
				Usage: "List entry points (files nothing imports)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "language",
						Aliases: []string{"l"},
						Usage:   "Restrict to one language",
					},
				},
				Action: runEntries,
			},
			{
				Name:   "stats",
				Usage:  "Print graph statistics",
				Action: runStats,
			},
			{
				Name:  "list",
				Usage: "List discovered files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "language",
						Aliases: []string{"l"},
						Usage:   "Restrict to one language",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Substring to match against relative paths",
					},
				},
				Action: runList,
			},
			{
				Name:   "mcp",
				Usage:  "Run as an MCP server over stdio",
				Action: runMCP,
			},
			{
				Name:  "config",
				Usage: "Manage configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write a starter .codegraph.toml to the root",
						Action: runConfigInit,
					},
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: runConfigShow,
					},
				},
			},
		},
		// Bare invocation behaves like `report`.
		Action: runReport,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func runReport(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}
	g, err := buildGraph(c.Context, cfg)
	if err != nil {
		return err
	}
	out, err := render.Graph(g, graph.ComputeStats(g), format)
	if err != nil {
		return err
	}
	return emit(out)
}

func runTrace(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("trace takes exactly one file identifier")
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}
	g, err := buildGraph(c.Context, cfg)
	if err != nil {
		return err
	}
	sub, err := graph.SubgraphAround(g, c.Args().First(), c.Int("depth"))
	if err != nil {
		return err
	}
	out, err := render.Subgraph(sub, format)
	if err != nil {
		return err
	}
	return emit(out)
}

func runImpact(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("impact takes one or more file identifiers")
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}
	g, err := buildGraph(c.Context, cfg)
	if err != nil {
		return err
	}
	impact, err := graph.ChangeImpact(g, c.Args().Slice())
	if err != nil {
		return err
	}
	out, err := render.Impact(impact, format)
	if err != nil {
		return err
	}
	return emit(out)
}

func runBridges(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}
	g, err := buildGraph(c.Context, cfg)
	if err != nil {
		return err
	}
	bridges := g.Bridges
	if c.Bool("anomalies-only") {
		var anomalies []types.Bridge
		for _, b := range bridges {
			if b.Unmatched() || b.Dead() {
				anomalies = append(anomalies, b)
			}
		}
		bridges = anomalies
	}
	out, err := render.Bridges(bridges, format)
	if err != nil {
		return err
	}
	return emit(out)
}

func runClusters(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}
	g, err := buildGraph(c.Context, cfg)
	if err != nil {
		return err
	}
	out, err := render.Clusters(graph.Clusters(g), format)
	if err != nil {
		return err
	}
	return emit(out)
}

func runEntries(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}
	g, err := buildGraph(c.Context, cfg)
	if err != nil {
		return err
	}
	refs := graph.FilterByLanguage(graph.EntryPoints(g), types.Language(c.String("language")))
	out, err := render.FileList("Entry points", refs, format)
	if err != nil {
		return err
	}
	return emit(out)
}

func runStats(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}
	g, err := buildGraph(c.Context, cfg)
	if err != nil {
		return err
	}
	out, err := render.Stats(graph.ComputeStats(g), format)
	if err != nil {
		return err
	}
	return emit(out)
}

func runList(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return err
	}
	g, err := buildGraph(c.Context, cfg)
	if err != nil {
		return err
	}
	refs := graph.FilterByLanguage(graph.FindByQuery(g, c.String("query")), types.Language(c.String("language")))
	out, err := render.FileList("Files", refs, format)
	if err != nil {
		return err
	}
	return emit(out)
}

// runMCP serves tools over stdio until the client disconnects or a
// shutdown signal arrives. stdout belongs to the transport here, so
// nothing else may print to it.
func runMCP(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	server := cgmcp.NewServer(cfg)
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		cancel()
		return <-errChan
	}
}

func runConfigInit(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	path := c.String("config")
	if path == "" {
		path = filepath.Join(cfg.RootDir, config.ConfigFileName)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(config.Example()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	out, err := render.JSON(cfg)
	if err != nil {
		return err
	}
	return emit(out)
}
