package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/seqkit/config"
	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/pipeline"
	"github.com/kbukum/seqkit/validation"
	"github.com/kbukum/seqkit/version"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitCanceled = 130
)

// options holds the parsed command line. Stages are applied in field order.
type options struct {
	grep           string
	invert         bool
	skip           int
	skipWhileBlank bool
	take           int
	distinct       bool
	upper          bool
	sort           bool
	reverse        bool
	step           int
	pool           int
	number         bool
	count          bool

	configFile string
	envFile    string
	version    bool
	paths      []string
}

// flagKeys binds flags to the configuration keys they override.
var flagKeys = map[string]string{
	"logging.level":              "log-level",
	"pipeline.materialize_limit": "materialize-limit",
}

func newFlagSet(o *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("seqkit", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: seqkit [flags] [file ...]\n\nReads lines from the files, or stdin, and writes the transformed lines to stdout.\n\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&o.grep, "grep", "g", "", "keep lines matching the regular expression")
	fs.BoolVarP(&o.invert, "invert", "v", false, "with --grep, keep lines that do not match")
	fs.IntVar(&o.skip, "skip", 0, "drop the first `n` lines")
	fs.BoolVar(&o.skipWhileBlank, "skip-while-blank", false, "drop leading blank lines")
	fs.IntVarP(&o.take, "take", "n", -1, "keep at most `n` lines (-1 keeps all)")
	fs.BoolVarP(&o.distinct, "distinct", "u", false, "drop repeated lines")
	fs.BoolVar(&o.upper, "upper", false, "upper-case every line")
	fs.BoolVarP(&o.sort, "sort", "s", false, "sort lines")
	fs.BoolVarP(&o.reverse, "reverse", "r", false, "reverse line order")
	fs.IntVar(&o.step, "step", 1, "keep every `n`th line, starting with the first")
	fs.IntVar(&o.pool, "pool", 0, "join every `n` lines with tabs")
	fs.BoolVar(&o.number, "number", false, "prefix lines with their output position")
	fs.BoolVarP(&o.count, "count", "c", false, "print the number of lines instead of the lines")

	fs.StringVar(&o.configFile, "config", "", "config file `path`")
	fs.StringVar(&o.envFile, "env-file", "", ".env file `path`")
	fs.String("log-level", "warn", "log `level` (trace, debug, info, warn, error)")
	fs.Int("materialize-limit", 0, "max lines buffered by --sort, --reverse and --distinct (0 is unlimited)")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	return fs
}

// validate checks the flag values that the pipeline would otherwise only
// reject at attachment.
func (o *options) validate() error {
	return validation.New().
		Regexp("grep", o.grep).
		Custom(!o.invert || o.grep != "", "invert", "requires --grep").
		Min("skip", o.skip, 0).
		Min("take", o.take, -1).
		Min("step", o.step, 1).
		Min("pool", o.pool, 0).
		Err()
}

// run executes seqkit and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var o options
	fs := newFlagSet(&o, stderr)
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	o.paths = fs.Args()

	if o.version {
		fmt.Fprintln(stdout, "seqkit", version.Get())
		return exitOK
	}

	cfg, err := config.Load(
		config.WithConfigFile(o.configFile),
		config.WithEnvFile(o.envFile),
		config.WithFlags(fs, flagKeys),
	)
	if err == nil {
		err = o.validate()
	}
	if err != nil {
		fmt.Fprintln(stderr, "seqkit:", err)
		return exitUsage
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}

	// Pipelines log through logger.Get("pipeline"), which follows the global logger.
	base := logger.NewWithWriter(&cfg.Logging, cfg.Name, stderr)
	logger.SetGlobalLogger(base)
	log := base.WithComponent("cli")

	start := time.Now()
	if err := execute(ctx, cfg, &o, stdin, stdout, log); err != nil {
		if stderrors.Is(err, context.Canceled) {
			return exitCanceled
		}
		log.WithError(err).Error("seqkit failed", logger.Fields(logger.FieldOperation, "run"))
		fmt.Fprintln(stderr, "seqkit:", err)
		if stderrors.Is(err, errors.ErrInvalidArgument) || stderrors.Is(err, errors.ErrInvalidConfig) {
			return exitUsage
		}
		return exitFailure
	}
	log.Debug("seqkit finished", logger.DurationFields("run", time.Since(start)))
	return exitOK
}

// execute sets up telemetry, builds the pipeline and drains it to stdout.
func execute(ctx context.Context, cfg *config.Config, o *options, stdin io.Reader, stdout io.Writer, log *logger.Logger) (err error) {
	popts := []pipeline.Option{
		pipeline.WithName(cfg.Name),
		pipeline.WithMaterializeLimit(cfg.Pipeline.MaterializeLimit),
	}

	shutdown, popts, err := setupTelemetry(ctx, cfg, popts)
	if err != nil {
		return err
	}
	defer func() {
		if serr := shutdown(context.WithoutCancel(ctx)); serr != nil {
			log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", serr))
		}
	}()

	p, err := build(newLineSource(stdin, o.paths), o, popts)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(stdout)
	defer func() {
		if ferr := w.Flush(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	if o.count {
		n, err := p.Count(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, n)
		return err
	}
	return p.ForEach(ctx, pipeline.DoCtx(func(_ context.Context, line string) error {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		return w.WriteByte('\n')
	}))
}

// build attaches one stage per flag, in a fixed order.
func build(src pipeline.Iterator[string], o *options, popts []pipeline.Option) (*pipeline.Pipeline[string], error) {
	p := pipeline.From(src, popts...)

	if o.grep != "" {
		re, err := regexp.Compile(o.grep)
		if err != nil {
			return nil, errors.InvalidArgument("grep", "pattern", o.grep).WithCause(err)
		}
		if o.invert {
			p = p.FilterFalse(pipeline.Fn(re.MatchString))
		} else {
			p = p.Filter(pipeline.Fn(re.MatchString))
		}
	}
	if o.skip > 0 {
		p = p.Skip(o.skip)
	}
	if o.skipWhileBlank {
		p = p.SkipWhile(pipeline.Fn(isBlank))
	}
	if o.take >= 0 {
		p = p.Take(o.take)
	}
	if o.distinct {
		p = pipeline.Distinct(p)
	}
	if o.upper {
		p = pipeline.Map(p, pipeline.Fn(strings.ToUpper))
	}
	if o.sort {
		p = pipeline.Sort(p)
	}
	if o.reverse {
		p = p.Reverse()
	}
	p = p.StepBy(o.step)
	if o.pool > 0 {
		p = pipeline.Map(pipeline.Pool(p, o.pool), pipeline.Fn(func(batch []string) string {
			return strings.Join(batch, "\t")
		}))
	}
	if o.number {
		p = pipeline.Map(pipeline.Enumerate(p), pipeline.Fn(func(e pipeline.Enumeration[string]) string {
			return strconv.Itoa(e.Index+1) + "\t" + e.Element
		}))
	}
	return p, p.Err()
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// setupTelemetry installs the exporters enabled in cfg and returns a
// function that flushes and stops them.
func setupTelemetry(ctx context.Context, cfg *config.Config, popts []pipeline.Option) (func(context.Context) error, []pipeline.Option, error) {
	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return stderrors.Join(errs...)
	}

	if cfg.Observability.Tracing {
		tp, err := observability.InitTracer(ctx, cfg.TracerConfig())
		if err != nil {
			return shutdown, popts, fmt.Errorf("tracing: %w", err)
		}
		shutdowns = append(shutdowns, tp.Shutdown)
		popts = append(popts, pipeline.WithTracer(tp.Tracer(observability.InstrumentationName)))
	}
	if cfg.Observability.Metrics {
		mp, err := observability.InitMeter(ctx, cfg.MeterConfig())
		if err != nil {
			_ = shutdown(ctx)
			return shutdown, popts, fmt.Errorf("metrics: %w", err)
		}
		shutdowns = append(shutdowns, mp.Shutdown)
		m, err := observability.NewMetrics(mp.Meter(observability.InstrumentationName))
		if err != nil {
			_ = shutdown(ctx)
			return shutdown, popts, fmt.Errorf("metrics: %w", err)
		}
		popts = append(popts, pipeline.WithMetrics(m))
	}
	return shutdown, popts, nil
}
