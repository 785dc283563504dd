package config_test

import (
	"testing"

	"github.com/minieda/minieda/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresVerilogFile(t *testing.T) {
	_, err := config.New()
	assert.ErrorIs(t, err, config.ErrEmptyVerilogFile)
}

func TestNewAppliesDefaults(t *testing.T) {
	c, err := config.New(config.WithVerilogFile("design.v"))
	require.NoError(t, err)

	assert.Equal(t, 1.0, c.Utilization)
	assert.Equal(t, 0.19, c.SiteWidth)
	assert.Equal(t, 0.19, c.RoutingPitch)
	assert.Equal(t, 10.0, c.ClockPeriodNs)
	assert.Equal(t, 0.7, c.TargetDensity)
	assert.Equal(t, 0.3, c.WarmupLambdaFactor)
}

func TestNewOptionsOverrideDefaults(t *testing.T) {
	c, err := config.New(
		config.WithVerilogFile("design.v"),
		config.WithUtilization(0.5),
		config.WithSeed(42),
		config.WithWarmupLambdaFactor(0.8),
	)
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.Utilization)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, 0.8, c.WarmupLambdaFactor)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		opts []config.Option
		want error
	}{
		{"utilization", []config.Option{config.WithUtilization(0)}, config.ErrBadUtilization},
		{"row height", []config.Option{config.WithRowHeight(-1)}, config.ErrBadRowHeight},
		{"site width", []config.Option{config.WithSiteWidth(0)}, config.ErrBadSiteWidth},
		{"routing pitch", []config.Option{config.WithRoutingPitch(0)}, config.ErrBadRoutingPitch},
		{"clock period", []config.Option{config.WithClockPeriodNs(0)}, config.ErrBadClockPeriod},
		{"uncertainty", []config.Option{config.WithClockUncertaintyNs(-1)}, config.ErrNegativeUncertainty},
		{"io delay", []config.Option{config.WithDefaultInputDelayNs(-1)}, config.ErrNegativeIODelay},
		{"setup margin", []config.Option{config.WithSetupMarginNs(-1)}, config.ErrNegativeSetupMargin},
		{"parasitic", []config.Option{config.WithWireCapPerUnitFF(-1)}, config.ErrNegativeParasitic},
		{"via cost", []config.Option{config.WithViaCost(-1)}, config.ErrNegativeCost},
		{"target density", []config.Option{config.WithTargetDensity(0)}, config.ErrBadTargetDensity},
		{"lambda", []config.Option{config.WithInitialLambda(0)}, config.ErrBadLambda},
		{"learning rate", []config.Option{config.WithLearningRate(0)}, config.ErrBadLearningRate},
		{"momentum", []config.Option{config.WithMomentum(1)}, config.ErrBadMomentum},
		{"convergence", []config.Option{config.WithConvergenceThreshold(0)}, config.ErrBadConvergenceThresh},
		{"max iterations", []config.Option{config.WithMaxPlacementIterations(0)}, config.ErrBadMaxIterations},
		{"warmup factor", []config.Option{config.WithWarmupLambdaFactor(0)}, config.ErrBadWarmupLambdaFactor},
		{"grad clip", []config.Option{config.WithGradientClipFraction(0)}, config.ErrBadGradientClipFrac},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := append([]config.Option{config.WithVerilogFile("design.v")}, tc.opts...)
			_, err := config.New(opts...)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
