// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package api declares the wdt.WatchdogService messages and stream.
//
// Messages are protobuf, described by File and carried as dynamic
// messages. A Session stream is one watchdog session: the server opens
// the watchdog when the stream starts and closes it when the stream ends.
package api

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Op is the wdt.Op enum.
type Op int32

const (
	OpUnspecified Op = iota
	// OpOpen is only sent by the server, to acknowledge the session.
	OpOpen
	OpWrite
	OpSupport
	OpStatus
	OpBootStatus
	OpSetOptions
	OpKeepalive
	OpSetTimeout
	OpGetTimeout
	OpTimeLeft
)

func (o Op) String() string {
	if v := opDesc.Values().ByNumber(protoreflect.EnumNumber(o)); v != nil {
		return string(v.Name())
	}
	return fmt.Sprintf("OP_%d", int32(o))
}

type Request struct {
	Op   Op
	Data []byte
	// Arg is required by setoptions and settimeout.
	Arg *uint32
}

type Info struct {
	Options         uint32
	FirmwareVersion uint32
	Identity        string
}

type Error struct {
	Code    codes.Code
	Message string
}

// Err returns the error as a gRPC status error.
func (e *Error) Err() error {
	if e == nil {
		return nil
	}
	return status.Error(e.Code, e.Message)
}

type Response struct {
	Op      Op
	Written int
	Value   uint32
	Info    *Info
	Error   *Error
}

func set(m protoreflect.Message, name protoreflect.Name, v protoreflect.Value) {
	m.Set(m.Descriptor().Fields().ByName(name), v)
}

func get(m protoreflect.Message, name protoreflect.Name) protoreflect.Value {
	return m.Get(m.Descriptor().Fields().ByName(name))
}

func has(m protoreflect.Message, name protoreflect.Name) bool {
	return m.Has(m.Descriptor().Fields().ByName(name))
}

// nested returns a new message of the type of field name of m.
func nested(m protoreflect.Message, name protoreflect.Name) *dynamicpb.Message {
	return dynamicpb.NewMessage(m.Descriptor().Fields().ByName(name).Message())
}

// Message encodes r as a wdt.Request.
func (r *Request) Message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(requestDesc)
	set(m, "op", protoreflect.ValueOfEnum(protoreflect.EnumNumber(r.Op)))
	if len(r.Data) > 0 {
		set(m, "data", protoreflect.ValueOfBytes(r.Data))
	}
	if r.Arg != nil {
		set(m, "arg", protoreflect.ValueOfUint32(*r.Arg))
	}
	return m
}

// RequestFrom decodes a wdt.Request.
func RequestFrom(m protoreflect.Message) *Request {
	r := &Request{
		Op:   Op(get(m, "op").Enum()),
		Data: get(m, "data").Bytes(),
	}
	if has(m, "arg") {
		arg := uint32(get(m, "arg").Uint())
		r.Arg = &arg
	}
	return r
}

// Message encodes r as a wdt.Response.
func (r *Response) Message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(responseDesc)
	set(m, "op", protoreflect.ValueOfEnum(protoreflect.EnumNumber(r.Op)))
	set(m, "written", protoreflect.ValueOfUint32(uint32(r.Written)))
	set(m, "value", protoreflect.ValueOfUint32(r.Value))
	if r.Info != nil {
		i := nested(m, "info")
		set(i, "options", protoreflect.ValueOfUint32(r.Info.Options))
		set(i, "firmware_version", protoreflect.ValueOfUint32(r.Info.FirmwareVersion))
		set(i, "identity", protoreflect.ValueOfString(r.Info.Identity))
		set(m, "info", protoreflect.ValueOfMessage(i))
	}
	if r.Error != nil {
		e := nested(m, "error")
		set(e, "code", protoreflect.ValueOfUint32(uint32(r.Error.Code)))
		set(e, "message", protoreflect.ValueOfString(r.Error.Message))
		set(m, "error", protoreflect.ValueOfMessage(e))
	}
	return m
}

// ResponseFrom decodes a wdt.Response.
func ResponseFrom(m protoreflect.Message) *Response {
	r := &Response{
		Op:      Op(get(m, "op").Enum()),
		Written: int(get(m, "written").Uint()),
		Value:   uint32(get(m, "value").Uint()),
	}
	if has(m, "info") {
		i := get(m, "info").Message()
		r.Info = &Info{
			Options:         uint32(get(i, "options").Uint()),
			FirmwareVersion: uint32(get(i, "firmware_version").Uint()),
			Identity:        get(i, "identity").String(),
		}
	}
	if has(m, "error") {
		e := get(m, "error").Message()
		r.Error = &Error{
			Code:    codes.Code(get(e, "code").Uint()),
			Message: get(e, "message").String(),
		}
	}
	return r
}
