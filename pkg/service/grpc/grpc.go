// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grpc serves watchdog sessions over gRPC.
package grpc

import (
	"errors"
	"io"
	"net"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/u-root/u-wdt/pkg/logger"
	"github.com/u-root/u-wdt/pkg/service/grpc/api"
	"github.com/u-root/u-wdt/pkg/watchdog"
)

var (
	log = logger.LogContainer.GetSimpleLogger()
)

// watchdogSystem is the part of the watchdog the server needs.
type watchdogSystem interface {
	Open() (*watchdog.Session, error)
}

var commands = map[api.Op]watchdog.Command{
	api.OpSupport:    watchdog.GetSupport,
	api.OpStatus:     watchdog.GetStatus,
	api.OpBootStatus: watchdog.GetBootStatus,
	api.OpSetOptions: watchdog.SetOptions,
	api.OpKeepalive:  watchdog.Keepalive,
	api.OpSetTimeout: watchdog.SetTimeout,
	api.OpGetTimeout: watchdog.GetTimeout,
	api.OpTimeLeft:   watchdog.GetTimeLeft,
}

// Code maps watchdog errors to gRPC status codes.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, watchdog.ErrAlreadyOpen):
		return codes.FailedPrecondition
	case errors.Is(err, watchdog.ErrInvalidArgument):
		return codes.InvalidArgument
	case errors.Is(err, watchdog.ErrUnsupported):
		return codes.Unimplemented
	case errors.Is(err, watchdog.ErrTransferFault):
		return codes.DataLoss
	case errors.Is(err, watchdog.ErrNoWayOut):
		return codes.PermissionDenied
	case errors.Is(err, watchdog.ErrSessionClosed):
		return codes.FailedPrecondition
	}
	return codes.Unknown
}

func apiError(err error) *api.Error {
	if err == nil {
		return nil
	}
	return &api.Error{Code: Code(err), Message: err.Error()}
}

type wdtServer struct {
	wdt watchdogSystem
}

func (m *wdtServer) handle(s *watchdog.Session, req *api.Request) *api.Response {
	resp := &api.Response{Op: req.Op}
	if req.Op == api.OpWrite {
		n, err := s.Write(req.Data)
		resp.Written = n
		resp.Error = apiError(err)
		return resp
	}
	cmd, ok := commands[req.Op]
	if !ok {
		resp.Error = &api.Error{Code: codes.Unimplemented, Message: "unknown op " + req.Op.String()}
		return resp
	}
	r, err := s.Ioctl(cmd, req.Arg)
	resp.Value = r.Value
	if r.Info != nil {
		resp.Info = &api.Info{
			Options:         r.Info.Options,
			FirmwareVersion: r.Info.FirmwareVersion,
			Identity:        r.Info.Identity,
		}
	}
	resp.Error = apiError(err)
	return resp
}

// Session holds the watchdog open for the lifetime of the stream.
func (m *wdtServer) Session(stream api.WatchdogService_SessionServer) error {
	s, err := m.wdt.Open()
	if err != nil {
		log.Warnf("Rejected session: %v", err)
		return status.Error(Code(err), err.Error())
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Errorf("Closing session: %v", err)
		}
	}()

	if err := stream.Send(&api.Response{Op: api.OpOpen}); err != nil {
		return err
	}
	for {
		req, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := stream.Send(m.handle(s, req)); err != nil {
			return err
		}
	}
}

// Server is the gRPC front of one watchdog.
type Server struct {
	g *grpc.Server
}

func New(w watchdogSystem) *Server {
	opts := []grpc.ServerOption{
		grpc.StreamInterceptor(grpc_prometheus.StreamServerInterceptor),
		grpc.UnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
	}
	g := grpc.NewServer(opts...)
	api.RegisterWatchdogServiceServer(g, &wdtServer{wdt: w})
	grpc_prometheus.Register(g)
	reflection.Register(g)
	return &Server{g: g}
}

// Serve blocks until l fails or Stop is called.
func (s *Server) Serve(l net.Listener) error {
	log.Infof("Serving watchdog sessions on %s", l.Addr())
	return s.g.Serve(l)
}

// Stop ends all streams, which closes any open session.
func (s *Server) Stop() {
	s.g.Stop()
}
