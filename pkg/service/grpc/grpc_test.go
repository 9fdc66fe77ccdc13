// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"testing"

	"github.com/jmhodges/clock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	reflectpb "google.golang.org/grpc/reflection/grpc_reflection_v1alpha"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/u-root/u-wdt/pkg/hardware/simdev"
	"github.com/u-root/u-wdt/pkg/service/grpc/api"
	"github.com/u-root/u-wdt/pkg/watchdog"
)

var (
	addr = ""
	dev  = simdev.New(clock.NewFake())
	wdt  *watchdog.Watchdog
)

func startServer() {
	var err error
	wdt, err = watchdog.New(dev, watchdog.Options{Heartbeat: 60})
	if err != nil {
		panic(err)
	}
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		panic(fmt.Sprintf("net.Listen: %v", err))
	}
	addr = l.Addr().String()
	go New(wdt).Serve(l)
}

func NewClient(t *testing.T) *grpc.ClientConn {
	t.Helper()
	c, err := grpc.Dial(addr, grpc.WithInsecure())
	if err != nil {
		t.Fatalf("grpc.Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func open(t *testing.T, ctx context.Context) *api.Session {
	t.Helper()
	s, err := api.Open(ctx, NewClient(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

// release stops the timer again with a magic close.
func release(t *testing.T, s *api.Session) {
	t.Helper()
	if _, err := s.Write([]byte("V")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if dev.Started() {
		t.Errorf("Expected magic close to stop the timer")
	}
}

func TestMain(m *testing.M) {
	startServer()
	os.Exit(m.Run())
}

func TestSessionRoundTrip(t *testing.T) {
	s := open(t, context.Background())
	if !dev.Started() {
		t.Errorf("Expected timer started by session open")
	}

	i, err := s.Support()
	if err != nil {
		t.Fatalf("Support: %v", err)
	}
	if i.Identity != watchdog.Identity || i.Options != 0x8180 {
		t.Errorf("Unexpected support info %+v", i)
	}
	v, err := s.SetTimeout(30)
	if err != nil || v != 30 {
		t.Errorf("SetTimeout(30) = %d, %v", v, err)
	}
	if v, _ := s.Timeout(); v != 30 {
		t.Errorf("Expected timeout 30, got %d", v)
	}
	if v, _ := s.TimeLeft(); v != 30 {
		t.Errorf("Expected 30s left, got %d", v)
	}
	st, err := s.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st&(watchdog.StatusActive|watchdog.StatusDevOpen) != watchdog.StatusActive|watchdog.StatusDevOpen {
		t.Errorf("Expected active and open status, got %#x", st)
	}
	if err := s.Keepalive(); err != nil {
		t.Errorf("Keepalive: %v", err)
	}
	if v, _ := s.BootStatus(); v != 0 {
		t.Errorf("Expected clean boot status, got %#x", v)
	}
	if _, err := s.SetTimeout(60); err != nil {
		t.Fatalf("SetTimeout(60): %v", err)
	}
	release(t, s)
}

func TestSecondSessionRejected(t *testing.T) {
	s := open(t, context.Background())
	defer release(t, s)

	_, err := api.Open(context.Background(), NewClient(t))
	if status.Code(err) != codes.FailedPrecondition {
		t.Errorf("Expected FailedPrecondition for second session, got %v", err)
	}
}

func TestRequestErrors(t *testing.T) {
	s := open(t, context.Background())
	defer release(t, s)

	for _, tc := range []struct {
		req  *api.Request
		code codes.Code
	}{
		{&api.Request{Op: api.OpSetTimeout, Arg: u32(0)}, codes.InvalidArgument},
		{&api.Request{Op: api.OpSetTimeout, Arg: u32(0x10000)}, codes.InvalidArgument},
		{&api.Request{Op: api.OpSetTimeout}, codes.DataLoss},
		{&api.Request{Op: api.OpSetOptions, Arg: u32(0)}, codes.InvalidArgument},
		{&api.Request{Op: api.Op(42)}, codes.Unimplemented},
		{&api.Request{Op: api.OpUnspecified}, codes.Unimplemented},
	} {
		_, err := s.Do(tc.req)
		if status.Code(err) != tc.code {
			t.Errorf("%s(%v): expected %v, got %v", tc.req.Op, tc.req.Arg, tc.code, err)
		}
	}
	// Errors do not end the session
	if err := s.Keepalive(); err != nil {
		t.Errorf("Keepalive after errors: %v", err)
	}
}

func TestDisconnectLeavesTimerRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := open(t, ctx)
	if _, err := s.Write([]byte("ping")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cancel()
	for wdt.Status().Open {
		runtime.Gosched()
	}
	if !dev.Started() {
		t.Errorf("Expected timer to keep running after a client vanished")
	}
	release(t, open(t, context.Background()))
}

func TestReflection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := reflectpb.NewServerReflectionClient(NewClient(t)).ServerReflectionInfo(ctx)
	if err != nil {
		t.Fatalf("ServerReflectionInfo: %v", err)
	}
	for _, sym := range []string{"wdt.WatchdogService", "wdt.Request", "wdt.Op"} {
		err := stream.Send(&reflectpb.ServerReflectionRequest{
			MessageRequest: &reflectpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: sym},
		})
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		resp, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if e := resp.GetErrorResponse(); e != nil {
			t.Fatalf("%s: %s", sym, e.GetErrorMessage())
		}
		files := resp.GetFileDescriptorResponse().GetFileDescriptorProto()
		if len(files) == 0 {
			t.Fatalf("%s: no file descriptor", sym)
		}
		fdp := &descriptorpb.FileDescriptorProto{}
		if err := proto.Unmarshal(files[0], fdp); err != nil {
			t.Fatalf("%s: %v", sym, err)
		}
		if fdp.GetName() != api.FileName || fdp.GetPackage() != "wdt" {
			t.Errorf("%s: got file %q package %q", sym, fdp.GetName(), fdp.GetPackage())
		}
		svc := fdp.GetService()
		if len(svc) != 1 || svc[0].GetName() != "WatchdogService" || len(svc[0].GetMethod()) != 1 {
			t.Fatalf("%s: unexpected services %v", sym, svc)
		}
		m := svc[0].GetMethod()[0]
		if m.GetName() != "Session" || !m.GetClientStreaming() || !m.GetServerStreaming() {
			t.Errorf("%s: unexpected method %v", sym, m)
		}
	}
}

func TestCode(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code codes.Code
	}{
		{nil, codes.OK},
		{watchdog.ErrAlreadyOpen, codes.FailedPrecondition},
		{fmt.Errorf("x: %w", watchdog.ErrInvalidArgument), codes.InvalidArgument},
		{watchdog.ErrUnsupported, codes.Unimplemented},
		{watchdog.ErrTransferFault, codes.DataLoss},
		{watchdog.ErrNoWayOut, codes.PermissionDenied},
		{watchdog.ErrSessionClosed, codes.FailedPrecondition},
		{errors.New("other"), codes.Unknown},
	} {
		if c := Code(tc.err); c != tc.code {
			t.Errorf("Code(%v) = %v, expected %v", tc.err, c, tc.code)
		}
	}
}

func u32(v uint32) *uint32 {
	return &v
}
