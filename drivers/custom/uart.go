// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package custom

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jigworks/device-testjig-go/internal/common"
	"github.com/jigworks/device-testjig-go/internal/hal"
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

const maxReadAll = 4096

type uartConfig struct {
	Port     string   `json:"port"`
	Baudrate int      `json:"baudrate"`
	Bytesize int      `json:"bytesize"`
	Parity   string   `json:"parity"`
	Stopbits float64  `json:"stopbits"`
	Timeout  *float64 `json:"timeout"`
	Xonxoff  bool     `json:"xonxoff"`
	Rtscts   bool     `json:"rtscts"`
	Dsrdtr   bool     `json:"dsrdtr"`
}

var parities = map[string]serial.Parity{
	"N": serial.NoParity,
	"E": serial.EvenParity,
	"O": serial.OddParity,
	"M": serial.MarkParity,
	"S": serial.SpaceParity,
}

var stopBits = map[float64]serial.StopBits{
	1:   serial.OneStopBit,
	1.5: serial.OnePointFiveStopBits,
	2:   serial.TwoStopBits,
}

func (c uartConfig) mode() (*serial.Mode, error) {
	parity, found := parities[strings.ToUpper(c.Parity)]
	if !found {
		return nil, errors.Errorf("unsupported parity %q", c.Parity)
	}
	stop, found := stopBits[c.Stopbits]
	if !found {
		return nil, errors.Errorf("unsupported stop bits %v", c.Stopbits)
	}
	if c.Bytesize < 5 || c.Bytesize > 8 {
		return nil, errors.Errorf("unsupported byte size %d", c.Bytesize)
	}
	return &serial.Mode{BaudRate: c.Baudrate, DataBits: c.Bytesize, Parity: parity, StopBits: stop}, nil
}

// readTimeout maps a null timeout to blocking reads.
func (c uartConfig) readTimeout() time.Duration {
	if c.Timeout == nil {
		return serial.NoTimeout
	}
	return time.Duration(*c.Timeout * float64(time.Second))
}

type uartSession struct {
	cfg  uartConfig
	port serial.Port
}

func uartProtocol(hw common.HardwareInfo) protocol {
	return protocol{
		name: common.ProtocolUART,
		ops: []string{"write", "read", "read_line", "read_all", "flush", "in_waiting", "out_waiting",
			"write_read", "set_timeout", "set_dtr", "set_rts", "get_control_lines", "send_break",
			"set_baudrate", "get_config"},
		open: func(body []byte) (string, func() (interface{}, error), error) {
			timeout := 1.0
			cfg := uartConfig{Port: hw.UARTPort, Baudrate: 9600, Bytesize: 8, Parity: "N", Stopbits: 1, Timeout: &timeout}
			if err := json.Unmarshal(body, &cfg); err != nil {
				return "", nil, err
			}
			cfg.Parity = strings.ToUpper(cfg.Parity)
			// The baud rate is left out: set_baudrate changes it in place.
			fp := fmt.Sprintf("%s %d%s%v flow=%v/%v/%v", cfg.Port, cfg.Bytesize, cfg.Parity, cfg.Stopbits,
				cfg.Xonxoff, cfg.Rtscts, cfg.Dsrdtr)
			return fp, func() (interface{}, error) { return openUART(cfg) }, nil
		},
	}
}

func openUART(cfg uartConfig) (*uartSession, error) {
	if cfg.Xonxoff || cfg.Rtscts || cfg.Dsrdtr {
		return nil, errors.New("flow control is not supported by the serial backend")
	}
	mode, err := cfg.mode()
	if err != nil {
		return nil, err
	}
	port, err := hal.OpenSerial(cfg.Port, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(cfg.readTimeout()); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "could not set read timeout")
	}
	return &uartSession{cfg: cfg, port: port}, nil
}

func (s *uartSession) Close() error {
	return s.port.Close()
}

type uartArgs struct {
	Data     json.RawMessage `json:"data"`
	Size     *int            `json:"size"`
	ReadSize *int            `json:"read_size"`
	Delay    *float64        `json:"delay"`
	Timeout  *float64        `json:"timeout"`
	State    bool            `json:"state"`
	Duration *float64        `json:"duration"`
	Baudrate int             `json:"baudrate"`
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (s *uartSession) do(op string, body []byte) Result {
	var args uartArgs
	if err := decodeArgs(body, &args); err != nil {
		return fail(err)
	}

	switch op {
	case "write":
		msg, err := s.write(args.Data)
		if err != nil {
			return fail(err)
		}
		return ok(msg)
	case "read":
		return s.readResult(intOr(args.Size, 1), "No data received")
	case "read_line":
		line, err := s.readLine()
		if err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Read line: %s", line)).with("data", line)
	case "read_all":
		buf := make([]byte, maxReadAll)
		n, err := s.port.Read(buf)
		if err != nil {
			return fail(err)
		}
		if n == 0 {
			return ok("No data available").with("data", "")
		}
		h := hex.EncodeToString(buf[:n])
		return ok(fmt.Sprintf("Read %d bytes: %s", n, h)).with("data", h)
	case "flush":
		if err := s.port.Drain(); err != nil {
			return fail(err)
		}
		if err := s.port.ResetInputBuffer(); err != nil {
			return fail(err)
		}
		if err := s.port.ResetOutputBuffer(); err != nil {
			return fail(err)
		}
		return ok("Buffers flushed")
	case "in_waiting", "out_waiting":
		return fail(errors.Errorf("%s is not supported by the serial backend", op))
	case "write_read":
		msg, err := s.write(args.Data)
		if err != nil {
			return fail(err)
		}
		time.Sleep(seconds(floatOr(args.Delay, 0.1)))
		read := s.readResult(intOr(args.ReadSize, 1024), "No data received")
		if read["success"] != true {
			return read
		}
		return ok(fmt.Sprintf("Write: %s, Read: %s", msg, read["message"])).with("data", read["data"])
	case "set_timeout":
		s.cfg.Timeout = args.Timeout
		if err := s.port.SetReadTimeout(s.cfg.readTimeout()); err != nil {
			return fail(err)
		}
		t := "None"
		if args.Timeout != nil {
			t = number(*args.Timeout)
		}
		return ok(fmt.Sprintf("Timeout changed to: %ss", t))
	case "set_dtr":
		if err := s.port.SetDTR(args.State); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("DTR set to: %s", level(args.State)))
	case "set_rts":
		if err := s.port.SetRTS(args.State); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("RTS set to: %s", level(args.State)))
	case "get_control_lines":
		bits, err := s.port.GetModemStatusBits()
		if err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("CD: %s, CTS: %s, DSR: %s", level(bits.DCD), level(bits.CTS), level(bits.DSR))).
			with("cd", bits.DCD).
			with("cts", bits.CTS).
			with("dsr", bits.DSR)
	case "send_break":
		d := floatOr(args.Duration, 0.25)
		if err := s.port.Break(seconds(d)); err != nil {
			return fail(err)
		}
		return ok(fmt.Sprintf("Break sent for %ss", number(d)))
	case "set_baudrate":
		if args.Baudrate <= 0 {
			return fail(errors.Errorf("invalid baudrate %d", args.Baudrate))
		}
		cfg := s.cfg
		cfg.Baudrate = args.Baudrate
		mode, err := cfg.mode()
		if err != nil {
			return fail(err)
		}
		if err := s.port.SetMode(mode); err != nil {
			return fail(err)
		}
		s.cfg = cfg
		return ok(fmt.Sprintf("Baud rate changed to: %d", cfg.Baudrate))
	case "get_config":
		var timeout interface{}
		if s.cfg.Timeout != nil {
			timeout = *s.cfg.Timeout
		}
		return Result{
			"success":  true,
			"message":  fmt.Sprintf("UART %s at %d baud", s.cfg.Port, s.cfg.Baudrate),
			"port":     s.cfg.Port,
			"baudrate": s.cfg.Baudrate,
			"bytesize": s.cfg.Bytesize,
			"parity":   s.cfg.Parity,
			"stopbits": s.cfg.Stopbits,
			"timeout":  timeout,
			"xonxoff":  false,
			"rtscts":   false,
			"dsrdtr":   false,
			"is_open":  true,
		}
	}
	return fail(ErrUnknownOperation)
}

// write sends data, given either as a string or as a list of byte values.
func (s *uartSession) write(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		n, err := s.port.Write([]byte(text))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Written %d bytes: %s", n, text), nil
	}
	data, err := bytesArg(raw)
	if err != nil {
		return "", errors.New("data must be a string or a list of integers")
	}
	n, err := s.port.Write(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Written %d bytes: %s", n, hexList(data)), nil
}

// readN reads until size bytes arrived or the read timeout expired.
func (s *uartSession) readN(size int) ([]byte, error) {
	var out []byte
	buf := make([]byte, size)
	deadline := time.Now().Add(s.cfg.readTimeout())
	for len(out) < size {
		n, err := s.port.Read(buf[:size-len(out)])
		if err != nil {
			return out, err
		}
		out = append(out, buf[:n]...)
		if n == 0 && s.expired(deadline) {
			break
		}
	}
	return out, nil
}

func (s *uartSession) expired(deadline time.Time) bool {
	return s.cfg.Timeout == nil || !time.Now().Before(deadline)
}

func (s *uartSession) readResult(size int, empty string) Result {
	if size <= 0 {
		return fail(errors.Errorf("invalid size %d", size))
	}
	data, err := s.readN(size)
	if err != nil {
		return fail(err)
	}
	if len(data) == 0 {
		return ok(empty).with("data", "")
	}
	h := hex.EncodeToString(data)
	return ok(fmt.Sprintf("Read %d bytes: %s", len(data), h)).with("data", h)
}

// readLine reads one byte at a time so that nothing past the newline is
// consumed.
func (s *uartSession) readLine() (string, error) {
	var line []byte
	b := make([]byte, 1)
	deadline := time.Now().Add(s.cfg.readTimeout())
	for len(line) < maxReadAll {
		n, err := s.port.Read(b)
		if err != nil {
			return "", err
		}
		if n == 1 {
			line = append(line, b[0])
			if b[0] == '\n' {
				break
			}
			continue
		}
		if s.expired(deadline) {
			break
		}
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(line), "")), nil
}
