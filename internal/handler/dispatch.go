// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
	"github.com/jigworks/device-testjig-go/drivers/adcdev"
	"github.com/jigworks/device-testjig-go/drivers/gpiodev"
	"github.com/jigworks/device-testjig-go/drivers/i2cdev"
	"github.com/jigworks/device-testjig-go/drivers/pwmdev"
	"github.com/jigworks/device-testjig-go/drivers/spidev"
	"github.com/jigworks/device-testjig-go/drivers/uartdev"
	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/jigworks/device-testjig-go/internal/instances"
	"github.com/jigworks/device-testjig-go/pkg/models"
	"github.com/pkg/errors"
)

const noConnections = "No connections present"

// testEntry describes how one device of the jig is tested.
type testEntry struct {
	factory models.DriverFactory
	// timeout bounds a single cycle when set.
	timeout time.Duration
	// report formats a cycle error. The default logs the error and shows
	// noConnections.
	report func(err error) string
}

// Dispatcher maps protocol and device names onto test drivers and runs
// their cycles.
type Dispatcher struct {
	lc       logger.LoggingClient
	hw       common.HardwareInfo
	registry *instances.Registry
	interval time.Duration
	tests    map[string]map[string]testEntry
}

func NewDispatcher(lc logger.LoggingClient, hw common.HardwareInfo, tests common.TestsInfo, registry *instances.Registry) *Dispatcher {
	d := &Dispatcher{
		lc:       lc,
		hw:       hw,
		registry: registry,
		interval: tests.IntervalDuration(),
		tests:    make(map[string]map[string]testEntry),
	}
	d.registerDefaults(tests.RGBTimeoutDuration())
	return d
}

func driver(create func() models.TestDriver) models.DriverFactory {
	return func(lc logger.LoggingClient) (models.TestDriver, error) {
		return create(), nil
	}
}

func (d *Dispatcher) registerDefaults(rgbTimeout time.Duration) {
	hw := d.hw
	adc := adcdev.MCP3008{Port: hw.ADCPort}

	d.register(common.ProtocolI2C, "bh1750", testEntry{factory: driver(func() models.TestDriver { return i2cdev.NewBH1750(hw.I2CBus) })})
	d.register(common.ProtocolI2C, "oled", testEntry{factory: driver(func() models.TestDriver { return i2cdev.NewSSD1306(hw.I2CBus) })})
	d.register(common.ProtocolI2C, "mlx90614", testEntry{factory: driver(func() models.TestDriver { return i2cdev.NewMLX90614(hw.I2CBus) })})

	d.register(common.ProtocolSPI, "sd-card", testEntry{factory: driver(func() models.TestDriver { return spidev.SDCard{} })})
	d.register(common.ProtocolSPI, "oled", testEntry{factory: func(lc logger.LoggingClient) (models.TestDriver, error) {
		return spidev.NewSH1106(lc, hw.SPIOLEDPort, hw.OLEDDCPin, hw.OLEDResetPin), nil
	}})

	d.register(common.ProtocolUART, "pm sensor", testEntry{factory: driver(func() models.TestDriver {
		return uartdev.NewSDS011(hw.UARTPort, hw.UARTBaudRate)
	})})

	d.register(common.ProtocolPWM, "led-fading", testEntry{
		factory: driver(func() models.TestDriver { return pwmdev.NewLEDFader(hw.FadePin) }),
		report:  func(err error) string { return fmt.Sprintf("LED fading test error: %v", err) },
	})
	d.register(common.ProtocolPWM, "servo motor", testEntry{
		factory: driver(func() models.TestDriver { return pwmdev.NewServo(hw.ServoPin) }),
		report:  func(err error) string { return fmt.Sprintf("%s. Error: %v", noConnections, err) },
	})
	d.register(common.ProtocolPWM, "rgb led", testEntry{
		factory: driver(func() models.TestDriver { return pwmdev.NewRGBLED(hw.RGBPins) }),
		timeout: rgbTimeout,
		report: func(err error) string {
			if errors.Cause(err) == context.DeadlineExceeded {
				return "RGB LED test timed out (no connection?)"
			}
			return fmt.Sprintf("RGB LED test error: %v", err)
		},
	})

	d.register(common.ProtocolADC, "pot", testEntry{factory: driver(func() models.TestDriver {
		return &adcdev.Pot{ADC: adc, Channel: hw.ADCChannels["pot"]}
	})})
	d.register(common.ProtocolADC, "tds", testEntry{factory: driver(func() models.TestDriver {
		return &adcdev.TDS{ADC: adc, Channel: hw.ADCChannels["tds"]}
	})})
	d.register(common.ProtocolADC, "ldr", testEntry{factory: driver(func() models.TestDriver {
		return &adcdev.LDR{ADC: adc, Channel: hw.ADCChannels["ldr"]}
	})})

	d.register(common.ProtocolGPIO, "led", testEntry{factory: driver(func() models.TestDriver { return gpiodev.NewLED(hw.LEDPin) })})
	d.register(common.ProtocolGPIO, "button", testEntry{factory: driver(func() models.TestDriver { return &gpiodev.Button{Pin: hw.ButtonPin} })})
	d.register(common.ProtocolGPIO, "ultrasonic sensor", testEntry{factory: driver(func() models.TestDriver {
		return gpiodev.NewUltrasonic(hw.TriggerPin, hw.EchoPin)
	})})
	d.register(common.ProtocolGPIO, "dht11", testEntry{factory: driver(func() models.TestDriver { return gpiodev.NewDHT11(hw.DHT11Path) })})
	d.register(common.ProtocolGPIO, "ds18b20", testEntry{factory: driver(func() models.TestDriver {
		return &gpiodev.DS18B20{Devices: hw.OneWirePath}
	})})
}

func (d *Dispatcher) register(protocol, device string, e testEntry) {
	protocol, device = strings.ToLower(protocol), strings.ToLower(device)
	if d.tests[protocol] == nil {
		d.tests[protocol] = make(map[string]testEntry)
	}
	d.tests[protocol][device] = e
}

// Register adds or replaces the driver factory of a device.
func (d *Dispatcher) Register(protocol, device string, factory models.DriverFactory) {
	d.register(protocol, device, testEntry{factory: factory})
}

// HasProtocol reports whether any device of protocol can be tested.
func (d *Dispatcher) HasProtocol(protocol string) bool {
	_, ok := d.tests[strings.ToLower(protocol)]
	return ok
}

// Run streams cycles of the device test until ctx is done. Unknown
// protocols and devices are reported on every cycle, as the browser
// expects a steady stream of lines.
func (d *Dispatcher) Run(ctx context.Context, protocol, device string, emit models.Emitter) {
	p, dev := strings.ToLower(protocol), strings.ToLower(device)

	devices, known := d.tests[p]
	if !known {
		msg := fmt.Sprintf("Error: Pin mapping not defined for protocol '%s' and device '%s'.", protocol, device)
		d.repeat(ctx, func() { emit(msg) })
		return
	}
	if p == common.ProtocolI2C {
		d.scanI2C(emit)
	}
	e, found := devices[dev]
	if !found {
		msg := fmt.Sprintf("Unknown %s device", strings.ToUpper(p))
		d.repeat(ctx, func() { emit(msg) })
		return
	}

	drv, release, err := d.open(ctx, p, dev, e, emit)
	if err != nil {
		if ctx.Err() == nil {
			emit(d.describe(p, dev, e, err))
		}
		return
	}
	defer release()

	d.repeat(ctx, func() { d.cycle(ctx, p, dev, e, drv, emit) })
}

// RunOnce runs a single cycle of the device test outside any stream.
func (d *Dispatcher) RunOnce(ctx context.Context, protocol, device string, emit models.Emitter) error {
	p, dev := strings.ToLower(protocol), strings.ToLower(device)
	e, err := d.lookup(p, dev)
	if err != nil {
		return err
	}
	drv, release, err := d.open(ctx, p, dev, e, emit)
	if err != nil {
		return err
	}
	defer release()
	d.cycle(ctx, p, dev, e, drv, emit)
	return nil
}

// Schedulable checks that the device test can run unattended. Persistent
// drivers hold the hardware between runs and are refused.
func (d *Dispatcher) Schedulable(protocol, device string) error {
	e, err := d.lookup(strings.ToLower(protocol), strings.ToLower(device))
	if err != nil {
		return err
	}
	drv, err := e.factory(d.lc)
	if err != nil {
		return err
	}
	defer closeDriver(drv)
	if isPersistent(drv) {
		return errors.Errorf("%s %s keeps the hardware between runs and cannot be scheduled", protocol, device)
	}
	return nil
}

func (d *Dispatcher) lookup(p, dev string) (testEntry, error) {
	devices, known := d.tests[p]
	if !known {
		return testEntry{}, errors.Errorf("unknown protocol %q", p)
	}
	e, found := devices[dev]
	if !found {
		return testEntry{}, errors.Errorf("unknown %s device %q", strings.ToUpper(p), dev)
	}
	return e, nil
}

func (d *Dispatcher) repeat(ctx context.Context, f func()) {
	for ctx.Err() == nil {
		f()
		if hal.Sleep(ctx, d.interval) != nil {
			return
		}
	}
}

func (d *Dispatcher) scanI2C(emit models.Emitter) {
	found, err := i2cdev.ScanBus(d.hw.I2CBus)
	if err != nil {
		emit(fmt.Sprintf("Error scanning I2C bus: %v", err))
		return
	}
	emit("I2C devices found: " + i2cdev.FormatAddresses(found))
}

func isPersistent(drv models.TestDriver) bool {
	p, ok := drv.(models.Persistent)
	return ok && p.Persistent()
}

func closeDriver(drv models.TestDriver) error {
	if c, ok := drv.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// open builds the driver and runs its one time setup. Persistent drivers
// are kept in the registry under their protocol and only set up when
// they are new there.
func (d *Dispatcher) open(ctx context.Context, p, dev string, e testEntry, emit models.Emitter) (models.TestDriver, func(), error) {
	drv, err := e.factory(d.lc)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not create %s %s driver", p, dev)
	}

	if !isPersistent(drv) {
		if in, ok := drv.(models.Initializer); ok {
			if err := in.Initialize(ctx, emit); err != nil {
				closeDriver(drv)
				return nil, nil, err
			}
		}
		return drv, func() {
			if err := closeDriver(drv); err != nil {
				d.lc.Warn(fmt.Sprintf("Error closing %s %s driver: %v", p, dev, err))
			}
		}, nil
	}

	fingerprint := p + "/" + dev
	if f, ok := drv.(models.Fingerprinter); ok {
		fingerprint = f.Fingerprint()
	}
	v, reused, err := d.registry.Acquire(p, fingerprint, func() (interface{}, error) { return drv, nil })
	if err != nil {
		return nil, nil, err
	}
	live, ok := v.(models.TestDriver)
	if !ok {
		return nil, nil, errors.Errorf("%s instance is not a test driver", p)
	}
	if !reused {
		if in, ok := live.(models.Initializer); ok {
			if err := in.Initialize(ctx, emit); err != nil {
				if _, rerr := d.registry.ReleaseIfCurrent(p, v); rerr != nil {
					d.lc.Warn(rerr.Error())
				}
				return nil, nil, err
			}
		}
	}
	return live, func() {}, nil
}

func (d *Dispatcher) cycle(ctx context.Context, p, dev string, e testEntry, drv models.TestDriver, emit models.Emitter) {
	cctx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	err := drv.RunCycle(cctx, func(line string) {
		if strings.TrimSpace(line) == "" {
			line = noConnections
		}
		emit(line)
	})
	if err == nil || ctx.Err() != nil {
		return
	}
	emit(d.describe(p, dev, e, err))
}

func (d *Dispatcher) describe(p, dev string, e testEntry, err error) string {
	d.lc.Warn(fmt.Sprintf("%s %s test failed: %v", strings.ToUpper(p), dev, err))
	if e.report != nil {
		return e.report(err)
	}
	return noConnections
}
