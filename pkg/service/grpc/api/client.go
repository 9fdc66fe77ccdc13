// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
)

// Session is the client end of an open watchdog session.
type Session struct {
	mu     sync.Mutex
	stream WatchdogService_SessionClient
}

// Open starts a session and waits for the server to acknowledge it. It
// fails with codes.FailedPrecondition while another session is open.
func Open(ctx context.Context, cc grpc.ClientConnInterface) (*Session, error) {
	stream, err := NewWatchdogServiceClient(cc).Session(ctx)
	if err != nil {
		return nil, err
	}
	ack, err := stream.Recv()
	if err != nil {
		return nil, err
	}
	if ack.Op != OpOpen {
		stream.CloseSend()
		return nil, fmt.Errorf("expected %v acknowledgement, got %v", OpOpen, ack.Op)
	}
	return &Session{stream: stream}, nil
}

// Do sends one request and waits for its response. A per-request failure is
// returned as a status error alongside the response.
func (s *Session) Do(req *Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.stream.Send(req); err != nil {
		return nil, err
	}
	resp, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	return resp, resp.Error.Err()
}

func (s *Session) value(op Op, arg *uint32) (uint32, error) {
	resp, err := s.Do(&Request{Op: op, Arg: arg})
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// Write sends p to the watchdog. Writing the magic character allows the
// next Close to stop the timer.
func (s *Session) Write(p []byte) (int, error) {
	resp, err := s.Do(&Request{Op: OpWrite, Data: p})
	if err != nil {
		return 0, err
	}
	return resp.Written, nil
}

func (s *Session) Support() (*Info, error) {
	resp, err := s.Do(&Request{Op: OpSupport})
	if err != nil {
		return nil, err
	}
	return resp.Info, nil
}

func (s *Session) Status() (uint32, error) {
	return s.value(OpStatus, nil)
}

func (s *Session) BootStatus() (uint32, error) {
	return s.value(OpBootStatus, nil)
}

func (s *Session) SetOptions(o uint32) error {
	_, err := s.value(OpSetOptions, &o)
	return err
}

func (s *Session) Keepalive() error {
	_, err := s.value(OpKeepalive, nil)
	return err
}

// SetTimeout programs a new heartbeat and returns the one in effect.
func (s *Session) SetTimeout(seconds uint32) (uint32, error) {
	return s.value(OpSetTimeout, &seconds)
}

func (s *Session) Timeout() (uint32, error) {
	return s.value(OpGetTimeout, nil)
}

func (s *Session) TimeLeft() (uint32, error) {
	return s.value(OpTimeLeft, nil)
}

// Close ends the session and waits for the server to finish it.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.stream.CloseSend(); err != nil {
		return err
	}
	for {
		_, err := s.stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
