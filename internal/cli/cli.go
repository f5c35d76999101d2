package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cfgdot/pkg/buildinfo"
	"github.com/matzehuels/cfgdot/pkg/cache"
	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/config"
	"github.com/matzehuels/cfgdot/pkg/host"
	"github.com/matzehuels/cfgdot/pkg/observability"
	"github.com/matzehuels/cfgdot/pkg/raster"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "cfgdot"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	verbose    bool
	configPath string
	dotPath    string
	dpi        int
	noCache    bool
	redisAddr  string
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config config.Config

	flags globalFlags
}

// New creates a new CLI instance with a default logger and default config.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "cfgdot exports control-flow graphs as Graphviz DOT and images",
		Long: `cfgdot turns a disassembler's function export into Graphviz DOT text
and rendered images. Pick one of the Disassembly, LLIL, MLIL or HLIL views,
tune the node font, then copy or save the result.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cfgdot/config.toml)")
	pf.StringVar(&c.flags.dotPath, "dot-path", "", `Graphviz dot executable, or "builtin" for the in-process renderer`)
	pf.IntVar(&c.flags.dpi, "dpi", 0, "rasterizer DPI (72-300)")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "disable the render cache")
	pf.StringVar(&c.flags.redisAddr, "redis", "", "use a Redis render cache at host:port")

	root.AddCommand(c.dotCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config file and applies flag overrides.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.flags.verbose {
		c.SetLogLevel(LogDebug)
		observability.NewLogHooks(c.Logger).Install()
	}

	conf, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}
	c.applyFlags(cmd, &conf)
	if err := conf.Validate(); err != nil {
		return err
	}
	c.Config = conf
	c.Logger.Debug("config loaded", "dot_path", conf.DotPath, "dpi", conf.DPI, "font", conf.DefaultFont)
	return nil
}

// applyFlags overrides conf with the persistent flags the user actually set.
func (c *CLI) applyFlags(cmd *cobra.Command, conf *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dot-path") {
		conf.DotPath = c.flags.dotPath
	}
	if flags.Changed("dpi") {
		conf.DPI = c.flags.dpi
	}
	if flags.Changed("no-cache") {
		conf.NoCache = c.flags.noCache
	}
	if flags.Changed("redis") {
		conf.RedisAddr = c.flags.redisAddr
	}
}

// =============================================================================
// Shared Helpers
// =============================================================================

// loadFunction reads a function export.
func (c *CLI) loadFunction(path string) (*host.Function, error) {
	fn, err := host.Load(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded export", "function", fn.Name(), "views", fn.Kinds())
	return fn, nil
}

// openCache returns the render cache selected by the config. A file cache
// that cannot be created degrades to no cache.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	switch {
	case c.Config.NoCache:
		return cache.Null(), nil
	case c.Config.RedisAddr != "":
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.Config.RedisAddr})
	}

	dir, err := c.Config.CachePath()
	if err != nil {
		c.Logger.Debug("render cache disabled", "err", err)
		return cache.Null(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("render cache disabled", "err", err)
		return cache.Null(), nil
	}
	return fc, nil
}

// newRasterizer builds the configured backend for format on top of store.
func (c *CLI) newRasterizer(format raster.Format, store cache.Cache) raster.Rasterizer {
	return raster.New(c.Config, format, store, c.Logger)
}

// parseKindFlag resolves a --mode flag value.
func parseKindFlag(s string) (cfg.Kind, error) {
	if s == "" {
		return cfg.KindAsm, nil
	}
	return cfg.ParseKind(s)
}
