package serial

import (
	"bytes"
	"sync"
)

// fakePort records writes and closes; reads always time out.
type fakePort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed int
}

func (p *fakePort) Read([]byte) (int, error) { return 0, ErrTimeout }

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(b)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func (p *fakePort) closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// scriptedOpener returns the scripted errors in order, then succeeds.
type scriptedOpener struct {
	mu     sync.Mutex
	script []error
	calls  int
	port   *fakePort
}

func (o *scriptedOpener) Open(cfg Config) (Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if len(o.script) > 0 {
		err := o.script[0]
		o.script = o.script[1:]
		if err != nil {
			return nil, &OpenError{Device: cfg.Device, Class: Classify(err), Err: err}
		}
	}
	o.port = &fakePort{}
	return o.port, nil
}
