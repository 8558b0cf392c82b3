// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 TestJig Contributors
//
// SPDX-License-Identifier: Apache-2.0

package cache

// builtinCatalog is used when no devices.yaml can be loaded. It mirrors
// res/devices.yaml.
const builtinCatalog = `
protocols:
  i2c:
    bh1750:
      name: BH1750
      pins:
        - {label: VCC, pin: "3.3V (Pin 1)"}
        - {label: GND, pin: "GND (Pin 6)"}
        - {label: SDA, pin: "GPIO2 / SDA1 (Pin 3)"}
        - {label: SCL, pin: "GPIO3 / SCL1 (Pin 5)"}
        - {label: ADDR, pin: "GND (0x23)"}
    oled:
      name: OLED
      pins:
        - {label: VCC, pin: "3.3V (Pin 1)"}
        - {label: GND, pin: "GND (Pin 9)"}
        - {label: SDA, pin: "GPIO2 / SDA1 (Pin 3)"}
        - {label: SCL, pin: "GPIO3 / SCL1 (Pin 5)"}
    mlx90614:
      name: MXL90614
      pins:
        - {label: VIN, pin: "3.3V (Pin 17)"}
        - {label: GND, pin: "GND (Pin 14)"}
        - {label: SDA, pin: "GPIO2 / SDA1 (Pin 3)"}
        - {label: SCL, pin: "GPIO3 / SCL1 (Pin 5)"}
  spi:
    sd-card:
      name: SD Card MOdule
      pins:
        - {label: VCC, pin: "5V (Pin 2)"}
        - {label: GND, pin: "GND (Pin 6)"}
        - {label: MISO, pin: "GPIO9 / MISO (Pin 21)"}
        - {label: MOSI, pin: "GPIO10 / MOSI (Pin 19)"}
        - {label: SCK, pin: "GPIO11 / SCLK (Pin 23)"}
        - {label: CS, pin: "GPIO8 / CE0 (Pin 24)"}
    oled:
      name: SPI OLED
      pins:
        - {label: VCC, pin: "3.3V (Pin 1)"}
        - {label: GND, pin: "GND (Pin 6)"}
        - {label: DIN, pin: "GPIO10 / MOSI (Pin 19)"}
        - {label: CLK, pin: "GPIO11 / SCLK (Pin 23)"}
        - {label: CS, pin: "GPIO8 / CE0 (Pin 24)"}
        - {label: DC, pin: "GPIO24 (Pin 18)"}
        - {label: RST, pin: "GPIO25 (Pin 22)"}
  uart:
    pm sensor:
      name: PM Sensor
      pins:
        - {label: 5V, pin: "5V (Pin 4)"}
        - {label: GND, pin: "GND (Pin 6)"}
        - {label: TXD, pin: "GPIO15 / RXD (Pin 10)"}
        - {label: RXD, pin: "GPIO14 / TXD (Pin 8)"}
  pwm:
    led-fading:
      name: LED_FADE
      pins:
        - {label: Anode, pin: "GPIO18 / PWM0 (Pin 12)"}
        - {label: Cathode, pin: "GND (Pin 14)"}
    servo motor:
      name: Servo Motor
      pins:
        - {label: VCC, pin: "5V (Pin 2)"}
        - {label: GND, pin: "GND (Pin 6)"}
        - {label: Signal, pin: "GPIO25 (Pin 22)"}
    rgb led:
      name: RGB LED
      pins:
        - {label: R, pin: "GPIO23 (Pin 16)"}
        - {label: G, pin: "GPIO24 (Pin 18)"}
        - {label: B, pin: "GPIO22 (Pin 15)"}
        - {label: Common, pin: "GND (Pin 20)"}
  adc:
    pot:
      name: Potentiometer
      pins:
        - {label: VCC, pin: "3.3V (Pin 1)"}
        - {label: GND, pin: "GND (Pin 6)"}
        - {label: Wiper, pin: "MCP3008 CH1"}
    tds:
      name: tds
      pins:
        - {label: VCC, pin: "3.3V (Pin 1)"}
        - {label: GND, pin: "GND (Pin 6)"}
        - {label: AOUT, pin: "MCP3008 CH0"}
    ldr:
      name: ldr
      pins:
        - {label: VCC, pin: "3.3V (Pin 1)"}
        - {label: GND, pin: "GND (Pin 6)"}
        - {label: AOUT, pin: "MCP3008 CH2"}
  gpio:
    led:
      name: LED
      pins:
        - {label: Anode, pin: "GPIO5 (Pin 29)"}
        - {label: Cathode, pin: "GND (Pin 30)"}
    button:
      name: BUTTON
      pins:
        - {label: Signal, pin: "GPIO6 (Pin 31)"}
        - {label: GND, pin: "GND (Pin 34)"}
    ultrasonic sensor:
      name: ultrasonic sensor
      pins:
        - {label: VCC, pin: "5V (Pin 2)"}
        - {label: Trig, pin: "GPIO26 (Pin 37)"}
        - {label: Echo, pin: "GPIO19 (Pin 35) via divider"}
        - {label: GND, pin: "GND (Pin 39)"}
    dht11:
      name: DHT11
      pins:
        - {label: VCC, pin: "3.3V (Pin 1)"}
        - {label: Data, pin: "GPIO13 (Pin 33)"}
        - {label: GND, pin: "GND (Pin 39)"}
    ds18b20:
      name: DS18B20
      pins:
        - {label: VDD, pin: "3.3V (Pin 1)"}
        - {label: DQ, pin: "GPIO4 / 1-Wire (Pin 7)"}
        - {label: GND, pin: "GND (Pin 9)"}
`
