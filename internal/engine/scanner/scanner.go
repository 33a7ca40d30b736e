// Package scanner defines the port for hardware that produces decoded code
// strings. The sequence is lazy, restartable and unbounded; each value is an
// independent scan request, and rapid duplicates are harmless because all
// commits are conditional.
package scanner

import "context"

type Source interface {
	// Next blocks until a code is scanned or ctx is done.
	Next(ctx context.Context) (string, error)
}

// ChannelSource adapts any code-producing goroutine (camera decoder, serial
// reader, test fixture) into a Source.
type ChannelSource struct {
	codes <-chan string
}

func NewChannelSource(codes <-chan string) *ChannelSource {
	return &ChannelSource{codes: codes}
}

func (s *ChannelSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case code, ok := <-s.codes:
		if !ok {
			return "", context.Canceled
		}
		return code, nil
	}
}

// Pump feeds every scanned code into handle until the source or context
// ends. It is the engine's event loop for non-HTTP hosts.
func Pump(ctx context.Context, src Source, handle func(ctx context.Context, code string)) error {
	for {
		code, err := src.Next(ctx)
		if err != nil {
			return err
		}
		handle(ctx, code)
	}
}
