package serial

import (
	"fmt"

	bugst "go.bug.st/serial"
)

// portablePort adapts a go.bug.st/serial port. That library reports a read
// timeout as (0, nil), which callers already treat as an empty read.
type portablePort struct {
	bugst.Port
	name string
}

func (p *portablePort) Name() string { return p.name }

func (p *portablePort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if err != nil {
		if code, ok := portErrorCode(err); ok && code == bugst.PortClosed {
			return n, ErrClosed
		}
	}
	return n, err
}

// OpenPortable opens cfg.Device through go.bug.st/serial with 8N1 framing.
// It works on every platform that library supports.
func OpenPortable(cfg Config) (Port, error) {
	cfg = cfg.withDefaults()
	mode := &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	p, err := bugst.Open(cfg.Device, mode)
	if err != nil {
		return nil, &OpenError{Device: cfg.Device, Class: Classify(err), Err: err}
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, &OpenError{Device: cfg.Device, Class: Fatal, Err: fmt.Errorf("set read timeout: %w", err)}
	}
	return &portablePort{Port: p, name: cfg.Device}, nil
}

// ListPorts returns the serial ports the system currently exposes.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	return ports, nil
}
