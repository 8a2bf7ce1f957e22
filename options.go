// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package reactor

import (
	"errors"

	"github.com/joeycumines/logiface"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// reactorOptions holds configuration options for Reactor creation.
type reactorOptions struct {
	logger        *logiface.Logger[logiface.Event]
	meterProvider metric.MeterProvider
}

// --- Reactor Options ---

// ReactorOption configures a Reactor instance.
type ReactorOption interface {
	applyReactor(*reactorOptions) error
}

// reactorOptionImpl implements ReactorOption.
type reactorOptionImpl struct {
	applyReactorFunc func(*reactorOptions) error
}

func (r *reactorOptionImpl) applyReactor(opts *reactorOptions) error {
	return r.applyReactorFunc(opts)
}

// WithLogger attaches a structured logger. Poll failures are logged at error
// level, callback failures at warning level, lifecycle events at debug level.
// A nil logger (the default) disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) ReactorOption {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMeterProvider sets the OpenTelemetry meter provider used to create the
// reactor's instruments. Defaults to the global provider, see [otel.GetMeterProvider].
func WithMeterProvider(provider metric.MeterProvider) ReactorOption {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		if provider == nil {
			return errors.New("reactor: nil meter provider")
		}
		opts.meterProvider = provider
		return nil
	}}
}

// resolveReactorOptions applies ReactorOption instances to reactorOptions.
func resolveReactorOptions(opts []ReactorOption) (*reactorOptions, error) {
	cfg := &reactorOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyReactor(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.meterProvider == nil {
		cfg.meterProvider = otel.GetMeterProvider()
	}
	return cfg, nil
}
