// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// FileName is the path wdt.proto is registered under. It is the service
// metadata, so server reflection can describe the service.
const FileName = "wdt.proto"

// File is the descriptor of wdt.proto:
//
//	syntax = "proto3";
//	package wdt;
//
//	enum Op {
//	  OP_UNSPECIFIED = 0;
//	  OP_OPEN = 1;
//	  OP_WRITE = 2;
//	  OP_SUPPORT = 3;
//	  OP_STATUS = 4;
//	  OP_BOOT_STATUS = 5;
//	  OP_SET_OPTIONS = 6;
//	  OP_KEEPALIVE = 7;
//	  OP_SET_TIMEOUT = 8;
//	  OP_GET_TIMEOUT = 9;
//	  OP_TIME_LEFT = 10;
//	}
//
//	message Request {
//	  Op op = 1;
//	  bytes data = 2;
//	  optional uint32 arg = 3;
//	}
//
//	message Info {
//	  uint32 options = 1;
//	  uint32 firmware_version = 2;
//	  string identity = 3;
//	}
//
//	message Error {
//	  uint32 code = 1;
//	  string message = 2;
//	}
//
//	message Response {
//	  Op op = 1;
//	  uint32 written = 2;
//	  uint32 value = 3;
//	  Info info = 4;
//	  Error error = 5;
//	}
//
//	service WatchdogService {
//	  rpc Session(stream Request) returns (stream Response);
//	}
var File protoreflect.FileDescriptor

var (
	opDesc       protoreflect.EnumDescriptor
	requestDesc  protoreflect.MessageDescriptor
	responseDesc protoreflect.MessageDescriptor
)

var opNames = []string{
	"OP_UNSPECIFIED",
	"OP_OPEN",
	"OP_WRITE",
	"OP_SUPPORT",
	"OP_STATUS",
	"OP_BOOT_STATUS",
	"OP_SET_OPTIONS",
	"OP_KEEPALIVE",
	"OP_SET_TIMEOUT",
	"OP_GET_TIMEOUT",
	"OP_TIME_LEFT",
}

func field(name string, number int32, t descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   t.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

func fileProto() *descriptorpb.FileDescriptorProto {
	op := &descriptorpb.EnumDescriptorProto{Name: proto.String("Op")}
	for i, n := range opNames {
		op.Value = append(op.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(n),
			Number: proto.Int32(int32(i)),
		})
	}

	arg := field("arg", 3, descriptorpb.FieldDescriptorProto_TYPE_UINT32, "")
	arg.OneofIndex = proto.Int32(0)
	arg.Proto3Optional = proto.Bool(true)

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(FileName),
		Package: proto.String("wdt"),
		Syntax:  proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/u-root/u-wdt/pkg/service/grpc/api"),
		},
		EnumType: []*descriptorpb.EnumDescriptorProto{op},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Request"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("op", 1, descriptorpb.FieldDescriptorProto_TYPE_ENUM, ".wdt.Op"),
					field("data", 2, descriptorpb.FieldDescriptorProto_TYPE_BYTES, ""),
					arg,
				},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String("_arg")}},
			},
			{
				Name: proto.String("Info"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("options", 1, descriptorpb.FieldDescriptorProto_TYPE_UINT32, ""),
					field("firmware_version", 2, descriptorpb.FieldDescriptorProto_TYPE_UINT32, ""),
					field("identity", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
				},
			},
			{
				Name: proto.String("Error"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("code", 1, descriptorpb.FieldDescriptorProto_TYPE_UINT32, ""),
					field("message", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
				},
			},
			{
				Name: proto.String("Response"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("op", 1, descriptorpb.FieldDescriptorProto_TYPE_ENUM, ".wdt.Op"),
					field("written", 2, descriptorpb.FieldDescriptorProto_TYPE_UINT32, ""),
					field("value", 3, descriptorpb.FieldDescriptorProto_TYPE_UINT32, ""),
					field("info", 4, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".wdt.Info"),
					field("error", 5, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".wdt.Error"),
				},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("WatchdogService"),
				Method: []*descriptorpb.MethodDescriptorProto{
					{
						Name:            proto.String("Session"),
						InputType:       proto.String(".wdt.Request"),
						OutputType:      proto.String(".wdt.Response"),
						ClientStreaming: proto.Bool(true),
						ServerStreaming: proto.Bool(true),
					},
				},
			},
		},
	}
}

func init() {
	fd, err := protodesc.NewFile(fileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("wdt.proto: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register wdt.proto: %v", err))
	}
	File = fd
	opDesc = fd.Enums().ByName("Op")
	requestDesc = fd.Messages().ByName("Request")
	responseDesc = fd.Messages().ByName("Response")
}
