// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"
)

const sessionMethod = "/wdt.WatchdogService/Session"

// WatchdogServiceServer is implemented by the daemon.
type WatchdogServiceServer interface {
	Session(WatchdogService_SessionServer) error
}

type WatchdogService_SessionServer interface {
	Send(*Response) error
	Recv() (*Request, error)
	grpc.ServerStream
}

type sessionServer struct {
	grpc.ServerStream
}

func (x *sessionServer) Send(m *Response) error {
	return x.ServerStream.SendMsg(m.Message())
}

func (x *sessionServer) Recv() (*Request, error) {
	m := dynamicpb.NewMessage(requestDesc)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return RequestFrom(m), nil
}

func sessionHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(WatchdogServiceServer).Session(&sessionServer{stream})
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "wdt.WatchdogService",
	HandlerType: (*WatchdogServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Session",
			Handler:       sessionHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: FileName,
}

func RegisterWatchdogServiceServer(s grpc.ServiceRegistrar, srv WatchdogServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type WatchdogServiceClient interface {
	Session(ctx context.Context, opts ...grpc.CallOption) (WatchdogService_SessionClient, error)
}

type WatchdogService_SessionClient interface {
	Send(*Request) error
	Recv() (*Response, error)
	grpc.ClientStream
}

type watchdogServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewWatchdogServiceClient(cc grpc.ClientConnInterface) WatchdogServiceClient {
	return &watchdogServiceClient{cc}
}

func (c *watchdogServiceClient) Session(ctx context.Context, opts ...grpc.CallOption) (WatchdogService_SessionClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], sessionMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &sessionClient{stream}, nil
}

type sessionClient struct {
	grpc.ClientStream
}

func (x *sessionClient) Send(m *Request) error {
	return x.ClientStream.SendMsg(m.Message())
}

func (x *sessionClient) Recv() (*Response, error) {
	m := dynamicpb.NewMessage(responseDesc)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return ResponseFrom(m), nil
}
