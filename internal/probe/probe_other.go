//go:build !darwin

package probe

import "context"

// The OS scripting probes are only implemented for macOS. Other platforms
// report empty observations so the monitor keeps a uniform loop.

func (c *Clipboard) Read(ctx context.Context) (string, error) {
	return "", nil
}

func (b *Browser) Tabs(ctx context.Context) ([]Tab, error) {
	return nil, nil
}

func (p *Processes) Poll(ctx context.Context) ([]Process, error) {
	return nil, nil
}
