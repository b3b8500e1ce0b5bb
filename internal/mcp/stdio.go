package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// maxMessageSize bounds a single request line
const maxMessageSize = 10 * 1024 * 1024

// Serve reads line-delimited JSON-RPC from r and writes one response line
// per request to w. It returns nil on EOF or when ctx is cancelled.
// Requests are handled one at a time in arrival order.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
		for scanner.Scan() {
			line := bytes.Clone(scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	out := bufio.NewWriter(w)
	s.logger.Info("serving on stdio", "server", ServerName, "version", s.version)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down", "reason", ctx.Err())
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read request: %w", err)
				}
				s.logger.Info("input closed")
				return nil
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			resp := s.HandleMessage(ctx, line)
			if resp == nil {
				continue
			}
			if _, err := out.Write(append(resp, '\n')); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
			if err := out.Flush(); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
}
