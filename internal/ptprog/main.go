// Public domain.

// Package ptprog implements the ptfit demonstration program.  It fits a
// two-parameter spin-down timing model to synthetic pulse arrival times
// and prints the fitted parameters, derived quantities, and information
// criteria.
package ptprog

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/soniakeys/exit"
	"go.uber.org/zap"
	xrand "golang.org/x/exp/rand"

	"github.com/LuluAgazie/PINT/fit"
	"github.com/LuluAgazie/PINT/mcmc"
	"github.com/LuluAgazie/PINT/noise"
	"github.com/LuluAgazie/PINT/param"
	"github.com/LuluAgazie/PINT/timescale"
	"github.com/LuluAgazie/PINT/toa"
)

const versionString = "ptfit version 0.1 Go source."
const copyrightString = "Public domain."

// config holds the demonstration fit settings.  Defaults may be
// overridden by a YAML file named by PTFIT_CONFIG and then by PTFIT_*
// environment variables.
type config struct {
	TimFile  string  `koanf:"tim_file"`
	NObs     int     `koanf:"nobs"`
	SpanDays float64 `koanf:"span_days"`
	SigmaUs  float64 `koanf:"sigma_us"`
	Seed     uint64  `koanf:"seed"`
	MaxIter  int     `koanf:"max_iter"`
	EFAC     float64 `koanf:"efac"`
	EQUADUs  float64 `koanf:"equad_us"`
	MCMC     bool    `koanf:"mcmc"`
	Samples  int     `koanf:"samples"`
	Burn     int     `koanf:"burn"`
	Verbose  bool    `koanf:"verbose"`
}

func defaults() config {
	return config{
		NObs:     100,
		SpanDays: 700,
		SigmaUs:  10,
		Seed:     3,
		MaxIter:  20,
		Samples:  20000,
		Burn:     2000,
	}
}

func loadConfig() (config, error) {
	cfg := defaults()
	k := koanf.New(".")
	if path := os.Getenv("PTFIT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, err
		}
	}
	envProvider := env.Provider("PTFIT_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "ptfit_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return cfg, err
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func Main() {
	defer exit.Handler()

	vers := flag.Bool("v", false, "display version and copyright")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: ptfit            fit a synthetic spin-down model
       ptfit -v         display version and copyright

Settings come from a YAML file named by PTFIT_CONFIG, then PTFIT_*
environment variables: tim_file, nobs, span_days, sigma_us, seed,
max_iter, efac, equad_us, mcmc, samples, burn, verbose.

With no tim_file, observations are synthesized from known pulsar spin
values.
`)
	}
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		exit.Log(err)
	}
	logger := zap.NewNop()
	if cfg.Verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			exit.Log(err)
		}
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		exit.Log(err)
	}
}

func run(cfg config, logger *zap.Logger) error {
	// PSR 1748-2021E spin values, a convenient realistic truth.
	const (
		trueF0 = 61.485476554
		trueF1 = -1.181e-15
		pepoch = 53750
	)
	model := spindown{pepoch: pepoch}

	var set *toa.Set
	if cfg.TimFile != "" {
		var err error
		set, err = toa.LoadTim(cfg.TimFile)
		if err != nil {
			return err
		}
		logger.Info("loaded observations",
			zap.String("file", cfg.TimFile), zap.Int("n", set.Len()))
	} else {
		rnd := xrand.New(&xrand.PCGSource{})
		rnd.Seed(cfg.Seed)
		toas, err := synthesize(model, trueF0, trueF1, cfg.NObs,
			cfg.SpanDays, cfg.SigmaUs*1e-6, rnd)
		if err != nil {
			return err
		}
		set, err = toa.NewSet(toas)
		if err != nil {
			return err
		}
	}

	// Start the fit off the truth, but close enough that no observation
	// slips a full phase wrap over the data span.
	reg, err := param.NewRegistry(
		&param.Parameter{Name: "F0", Value: trueF0 * (1 + 5e-11), Unit: "Hz", Scale: timescale.TDB},
		&param.Parameter{Name: "F1", Value: trueF1 * 1.05, Unit: "Hz/s", Scale: timescale.TDB},
		&param.Parameter{Name: "PEPOCH", Value: pepoch, Unit: "d", Frozen: true, Scale: timescale.TDB},
		&param.Parameter{Name: "RAJ", Value: raj, Unit: "rad", Frozen: true},
		&param.Parameter{Name: "DECJ", Value: decj, Unit: "rad", Frozen: true},
	)
	if err != nil {
		return err
	}

	opts := []fit.Option{
		fit.WithLogger(logger),
		fit.WithMaxIter(cfg.MaxIter),
	}
	if cfg.EFAC != 0 || cfg.EQUADUs != 0 {
		nm := noise.NewModel(nil,
			noise.GroupParams{EFAC: cfg.EFAC, EQUAD: cfg.EQUADUs * 1e-6})
		opts = append(opts, fit.WithNoise(nm))
	}
	session, err := fit.NewSession(model, reg, set, opts...)
	if err != nil {
		return err
	}
	res, err := session.Fit(context.Background())
	if err != nil {
		return err
	}

	printSummary(os.Stdout, res, set)
	printDerived(os.Stdout, reg, res)

	if cfg.MCMC {
		return runMCMC(cfg, logger, session, res)
	}
	return nil
}

func runMCMC(cfg config, logger *zap.Logger, session *fit.Session, res *fit.Result) error {
	lnL := session.LogLikelihood()
	scales := make([]float64, len(res.Uncertainties))
	priors := make([]mcmc.Prior, len(res.Values))
	for j, u := range res.Uncertainties {
		scales[j] = u
		priors[j] = mcmc.UniformPrior(res.Values[j]-1e3*u, res.Values[j]+1e3*u)
	}
	sampler, err := mcmc.New(mcmc.LogPosterior(lnL), res.Values, scales,
		mcmc.WithSeed(cfg.Seed),
		mcmc.WithPriors(priors),
	)
	if err != nil {
		return err
	}
	if err := sampler.Run(context.Background(), cfg.Samples); err != nil {
		return err
	}
	mean, err := sampler.Mean(cfg.Burn)
	if err != nil {
		return err
	}
	rhat, err := sampler.SplitRHat(cfg.Burn)
	if err != nil {
		return err
	}
	logger.Info("chain complete",
		zap.Int("samples", sampler.Len()),
		zap.Float64("acceptance", sampler.AcceptanceRate()))

	fmt.Println("\nPosterior (MCMC):")
	for j, name := range res.Names {
		fmt.Printf("%-8s mean %-22.15g Rhat %.3f\n", name, mean[j], rhat[j])
	}
	if mcmc.Converged(rhat, 1.1) {
		fmt.Println("chains converged (split R-hat < 1.1)")
	} else {
		fmt.Println("chains NOT converged; draw more samples")
	}
	return nil
}
