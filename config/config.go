// Package config assembles the exhaustive configuration surface named in
// spec.md §6 into a single immutable value, built with functional
// options (config.Option) in the same style as dijkstra.Option /
// builder.Option: each knob is validated once, at New(), rather than
// scattered through the pipeline.
//
// File/parser paths (verilog_file, liberty_file, lef_file) are accepted
// here only as plain strings for wiring purposes; parsing them is out of
// this repository's scope per spec.md §1.
package config

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by New's validation pass.
var (
	ErrEmptyVerilogFile       = errors.New("config: verilog_file is required")
	ErrBadUtilization         = errors.New("config: utilization must be in (0,1]")
	ErrBadRowHeight           = errors.New("config: row_height must be > 0")
	ErrBadSiteWidth           = errors.New("config: site_width must be > 0")
	ErrBadRoutingPitch        = errors.New("config: routing_pitch must be > 0")
	ErrBadClockPeriod         = errors.New("config: clock_period must be > 0")
	ErrNegativeUncertainty    = errors.New("config: clock_uncertainty must be >= 0")
	ErrNegativeIODelay        = errors.New("config: default_input_delay/default_output_delay must be >= 0")
	ErrNegativeCost           = errors.New("config: via_cost/wire_cost must be >= 0")
	ErrBadTargetDensity       = errors.New("config: target_density must be in (0,1]")
	ErrBadLambda              = errors.New("config: initial_lambda and lambda_growth_rate must be > 0")
	ErrBadLearningRate        = errors.New("config: learning_rate must be > 0")
	ErrBadMomentum            = errors.New("config: momentum must be in [0,1)")
	ErrBadConvergenceThresh   = errors.New("config: convergence_threshold must be > 0")
	ErrBadMaxIterations       = errors.New("config: max_placement_iterations must be > 0")
	ErrBadWarmupLambdaFactor  = errors.New("config: warmup_lambda_factor must be in (0,1]")
	ErrBadGradientClipFrac    = errors.New("config: gradient_clip_fraction must be in (0,1]")
	ErrNegativeSetupMargin    = errors.New("config: setup_margin must be >= 0")
	ErrNegativeParasitic      = errors.New("config: wire_cap_per_unit/wire_res_per_unit must be >= 0")
)

// Config is the fully-resolved, validated configuration for one run of
// the pipeline. Construct via New; the zero value is not guaranteed
// valid.
type Config struct {
	// Inputs (parsing itself is out of scope; paths are opaque here).
	VerilogFile string
	LibertyFile string
	LEFFile     string

	// Core sizing / placement quanta.
	Utilization float64
	RowHeight   float64
	SiteWidth   float64
	RoutingPitch float64

	// Timing constraints.
	ClockPeriodNs        float64
	ClockUncertaintyNs   float64
	DefaultInputDelayNs  float64
	DefaultOutputDelayNs float64
	SetupMarginNs        float64

	// Net parasitics for the Elmore NET_ARC approximation (§4.9).
	WireCapPerUnitFF   float64
	WireResPerUnitOhm  float64

	// Router cost weights.
	ViaCost  float64
	WireCost float64

	// Global placer (Nesterov) parameters.
	TargetDensity          float64
	InitialLambda          float64
	LambdaGrowthRate       float64
	LambdaMax              float64
	LearningRate           float64
	Momentum               float64
	ConvergenceThreshold   float64
	MaxPlacementIterations int
	WarmupLambdaFactor     float64
	GradientClipFraction   float64

	// Determinism.
	Seed int64
}

// Option mutates a Config during construction.
type Option func(*Config)

// defaults returns the baseline Config before options are applied.
// Defaults follow spec.md §4.4/§9: target_density 0.7, growth 1.05,
// lambda_max 1.0, site_width/routing_pitch 0.19 um (spec.md §9's open
// question on pitch is resolved to 0.19 here), gradient clip 5%.
func defaults() Config {
	return Config{
		Utilization:            1.0,
		RowHeight:              1.4,
		SiteWidth:              0.19,
		RoutingPitch:           0.19,
		ClockPeriodNs:          10.0,
		SetupMarginNs:          0.0,
		WireCapPerUnitFF:       0.2,
		WireResPerUnitOhm:      0.1,
		ViaCost:                2.0,
		WireCost:               1.0,
		TargetDensity:          0.7,
		InitialLambda:          1e-4,
		LambdaGrowthRate:       1.05,
		LambdaMax:              1.0,
		LearningRate:           0.01,
		Momentum:               0.9,
		ConvergenceThreshold:   1e-4,
		MaxPlacementIterations: 100,
		WarmupLambdaFactor:     0.3,
		GradientClipFraction:  0.05,
		Seed:                   1,
	}
}

// WithVerilogFile sets the (required) structural netlist input path.
func WithVerilogFile(path string) Option { return func(c *Config) { c.VerilogFile = path } }

// WithLibertyFile sets the NLDM timing library path.
func WithLibertyFile(path string) Option { return func(c *Config) { c.LibertyFile = path } }

// WithLEFFile sets the physical cell library path.
func WithLEFFile(path string) Option { return func(c *Config) { c.LEFFile = path } }

// WithUtilization sets core sizing: core_area = total_cell_area / utilization.
func WithUtilization(u float64) Option { return func(c *Config) { c.Utilization = u } }

// WithRowHeight sets the standard-cell row height.
func WithRowHeight(h float64) Option { return func(c *Config) { c.RowHeight = h } }

// WithSiteWidth sets the X legalization quantum.
func WithSiteWidth(w float64) Option { return func(c *Config) { c.SiteWidth = w } }

// WithRoutingPitch sets the routing grid pitch (both X and Y).
func WithRoutingPitch(p float64) Option { return func(c *Config) { c.RoutingPitch = p } }

// WithClockPeriodNs sets the clock period used to derive default RAT at POs.
func WithClockPeriodNs(ns float64) Option { return func(c *Config) { c.ClockPeriodNs = ns } }

// WithClockUncertaintyNs sets the margin subtracted from RAT.
func WithClockUncertaintyNs(ns float64) Option { return func(c *Config) { c.ClockUncertaintyNs = ns } }

// WithDefaultInputDelayNs sets the delay applied at primary inputs.
func WithDefaultInputDelayNs(ns float64) Option {
	return func(c *Config) { c.DefaultInputDelayNs = ns }
}

// WithDefaultOutputDelayNs sets the delay applied at primary outputs.
func WithDefaultOutputDelayNs(ns float64) Option {
	return func(c *Config) { c.DefaultOutputDelayNs = ns }
}

// WithSetupMarginNs sets the margin subtracted from the required time at
// primary outputs and, beyond the Liberty setup check, at sequential
// endpoints (spec.md §4.9).
func WithSetupMarginNs(ns float64) Option { return func(c *Config) { c.SetupMarginNs = ns } }

// WithWireCapPerUnitFF sets the net capacitance-per-unit-length used in
// the CELL_ARC load and NET_ARC Elmore approximation.
func WithWireCapPerUnitFF(f float64) Option { return func(c *Config) { c.WireCapPerUnitFF = f } }

// WithWireResPerUnitOhm sets the net resistance-per-unit-length used in
// the NET_ARC Elmore approximation.
func WithWireResPerUnitOhm(r float64) Option { return func(c *Config) { c.WireResPerUnitOhm = r } }

// WithViaCost sets the A* cost weight for crossing a via.
func WithViaCost(cost float64) Option { return func(c *Config) { c.ViaCost = cost } }

// WithWireCost sets the A* cost weight per unit of wire.
func WithWireCost(cost float64) Option { return func(c *Config) { c.WireCost = cost } }

// WithTargetDensity sets the global placer's density target.
func WithTargetDensity(d float64) Option { return func(c *Config) { c.TargetDensity = d } }

// WithInitialLambda sets the Nesterov density-penalty starting weight.
func WithInitialLambda(l float64) Option { return func(c *Config) { c.InitialLambda = l } }

// WithLambdaGrowthRate sets the per-iteration multiplicative growth of lambda.
func WithLambdaGrowthRate(r float64) Option { return func(c *Config) { c.LambdaGrowthRate = r } }

// WithLambdaMax caps the Nesterov density-penalty weight.
func WithLambdaMax(max float64) Option { return func(c *Config) { c.LambdaMax = max } }

// WithLearningRate sets the Nesterov step size (eta).
func WithLearningRate(eta float64) Option { return func(c *Config) { c.LearningRate = eta } }

// WithMomentum sets the Nesterov momentum coefficient (mu).
func WithMomentum(mu float64) Option { return func(c *Config) { c.Momentum = mu } }

// WithConvergenceThreshold sets the movement-to-core-diagonal stop ratio.
func WithConvergenceThreshold(t float64) Option {
	return func(c *Config) { c.ConvergenceThreshold = t }
}

// WithMaxPlacementIterations caps the Nesterov loop length.
func WithMaxPlacementIterations(n int) Option {
	return func(c *Config) { c.MaxPlacementIterations = n }
}

// WithWarmupLambdaFactor sets the lambda-growth tempering factor used in
// Hybrid strategy warm-up (spec.md §9 open question; exposed rather than
// hard-coded).
func WithWarmupLambdaFactor(f float64) Option {
	return func(c *Config) { c.WarmupLambdaFactor = f }
}

// WithGradientClipFraction sets the per-axis gradient clip as a fraction
// of core width/height.
func WithGradientClipFraction(f float64) Option {
	return func(c *Config) { c.GradientClipFraction = f }
}

// WithSeed sets the RNG seed for initial placement and router reshuffles.
func WithSeed(seed int64) Option { return func(c *Config) { c.Seed = seed } }

// New builds a Config from defaults() plus opts, then validates it.
// VerilogFile is the only option that is mandatory.
func New(opts ...Option) (Config, error) {
	c := defaults()
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.VerilogFile == "" {
		return ErrEmptyVerilogFile
	}
	if c.Utilization <= 0 || c.Utilization > 1 {
		return fmt.Errorf("%w: got %v", ErrBadUtilization, c.Utilization)
	}
	if c.RowHeight <= 0 {
		return fmt.Errorf("%w: got %v", ErrBadRowHeight, c.RowHeight)
	}
	if c.SiteWidth <= 0 {
		return fmt.Errorf("%w: got %v", ErrBadSiteWidth, c.SiteWidth)
	}
	if c.RoutingPitch <= 0 {
		return fmt.Errorf("%w: got %v", ErrBadRoutingPitch, c.RoutingPitch)
	}
	if c.ClockPeriodNs <= 0 {
		return fmt.Errorf("%w: got %v", ErrBadClockPeriod, c.ClockPeriodNs)
	}
	if c.ClockUncertaintyNs < 0 {
		return ErrNegativeUncertainty
	}
	if c.DefaultInputDelayNs < 0 || c.DefaultOutputDelayNs < 0 {
		return ErrNegativeIODelay
	}
	if c.SetupMarginNs < 0 {
		return ErrNegativeSetupMargin
	}
	if c.WireCapPerUnitFF < 0 || c.WireResPerUnitOhm < 0 {
		return ErrNegativeParasitic
	}
	if c.ViaCost < 0 || c.WireCost < 0 {
		return ErrNegativeCost
	}
	if c.TargetDensity <= 0 || c.TargetDensity > 1 {
		return fmt.Errorf("%w: got %v", ErrBadTargetDensity, c.TargetDensity)
	}
	if c.InitialLambda <= 0 || c.LambdaGrowthRate <= 0 {
		return ErrBadLambda
	}
	if c.LearningRate <= 0 {
		return ErrBadLearningRate
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return ErrBadMomentum
	}
	if c.ConvergenceThreshold <= 0 {
		return ErrBadConvergenceThresh
	}
	if c.MaxPlacementIterations <= 0 {
		return ErrBadMaxIterations
	}
	if c.WarmupLambdaFactor <= 0 || c.WarmupLambdaFactor > 1 {
		return ErrBadWarmupLambdaFactor
	}
	if c.GradientClipFraction <= 0 || c.GradientClipFraction > 1 {
		return ErrBadGradientClipFrac
	}
	return nil
}
