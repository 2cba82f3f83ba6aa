package main

import (
	"fmt"

	"gopin/host/serial"
	"gopin/pins"
	"gopin/pins/pinsim"
	"gopin/targets/periphgpio"
	"gopin/targets/serialgpio"
)

type backendOptions struct {
	name   string
	device string
	baud   int
}

// backend is an opened pin backend. chip is set only for the simulator.
type backend struct {
	hw    pins.Hardware
	chip  *pinsim.Chip
	close func() error
}

func openBackend(opts backendOptions) (*backend, error) {
	switch opts.name {
	case "sim":
		chip := pinsim.New()
		return &backend{hw: chip, chip: chip, close: func() error { return nil }}, nil

	case "periph":
		d, err := periphgpio.Host()
		if err != nil {
			return nil, err
		}
		return &backend{hw: d, close: d.Close}, nil

	case "serial":
		cfg := serial.DefaultConfig(opts.device)
		if opts.baud > 0 {
			cfg.Baud = opts.baud
		}
		port, err := serial.Open(cfg)
		if err != nil {
			return nil, err
		}
		d := serialgpio.New(port)
		d.SetLogger(logger)
		return &backend{hw: d, close: d.Close}, nil
	}
	return nil, fmt.Errorf("unknown backend %q (sim, periph or serial)", opts.name)
}
