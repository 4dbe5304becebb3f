package controller

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

var ErrNoUSBSerial = errors.New("no USB serial ports found")

// GetSerialPorts lists the USB serial ports, which is where a Pico's UART bridge shows up
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, port := range ports {
		if port.IsUSB {
			result = append(result, port.Name)
		}
	}
	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}
	return result, nil
}

func openSerial(cfg Config) (serial.Port, string, error) {
	name := cfg.SerialPort
	if name == "" {
		ports, err := GetSerialPorts()
		if err != nil {
			return nil, "", err
		}
		name = ports[0]
	}

	rate, err := cfg.baudRate()
	if err != nil {
		return nil, "", err
	}

	port, err := serial.Open(name, &serial.Mode{
		BaudRate: rate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, "", fmt.Errorf("error opening %s: %w", name, err)
	}
	return port, name, nil
}
