// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fullstorydev/grpcurl"
	dpb "github.com/golang/protobuf/protoc-gen-go/descriptor"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	reflectpb "google.golang.org/grpc/reflection/grpc_reflection_v1alpha"
)

const service = "wdt.WatchdogService"

// describe prints the session protocol as served by the daemon.
func describe(ctx context.Context, w io.Writer, cc *grpc.ClientConn) error {
	refClient := grpcreflect.NewClient(ctx, reflectpb.NewServerReflectionClient(cc))
	defer refClient.Reset()
	ds := grpcurl.DescriptorSourceFromServer(ctx, refClient)

	methods, err := grpcurl.ListMethods(ds, service)
	if err != nil {
		return fmt.Errorf("list %s: %w", service, err)
	}
	for _, m := range methods {
		s := m
		if !strings.HasPrefix(s, service+".") {
			s = service + "." + m
		}
		dsc, err := ds.FindSymbol(s)
		if err != nil {
			return fmt.Errorf("find %s: %w", s, err)
		}
		mp, ok := dsc.(*desc.MethodDescriptor)
		if !ok {
			return fmt.Errorf("%s is not a method", s)
		}

		fmt.Fprintf(w, "Method: %s\n", mp.GetName())
		fmt.Fprintf(w, " Request%s:\n", streaming(mp.IsClientStreaming()))
		if err := printMessage(w, ds, mp.GetInputType(), 1); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n Response%s:\n", streaming(mp.IsServerStreaming()))
		if err := printMessage(w, ds, mp.GetOutputType(), 1); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n")
	}
	return nil
}

func streaming(s bool) string {
	if s {
		return " (stream)"
	}
	return ""
}

func printMessage(w io.Writer, ds grpcurl.DescriptorSource, md *desc.MessageDescriptor, depth int) error {
	dsc, err := ds.FindSymbol(md.GetFullyQualifiedName())
	if err != nil {
		return fmt.Errorf("find %s: %w", md.GetFullyQualifiedName(), err)
	}
	mp := dsc.(*desc.MessageDescriptor)
	ml := 0
	for _, f := range mp.GetFields() {
		if ml < len(f.GetName()) {
			ml = len(f.GetName())
		}
	}
	pad := strings.Repeat("  ", depth)
	if len(mp.GetFields()) == 0 {
		fmt.Fprintf(w, "%s(empty)\n", pad)
	}
	for _, f := range mp.GetFields() {
		if f.GetType() == dpb.FieldDescriptorProto_TYPE_MESSAGE {
			fmt.Fprintf(w, "%s%s {\n", pad, f.GetName())
			if err := printMessage(w, ds, f.GetMessageType(), depth+1); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s}\n", pad)
			continue
		}
		fmt.Fprintf(w, "%s%-*s: ", pad, ml, f.GetName())
		switch f.GetType() {
		case dpb.FieldDescriptorProto_TYPE_ENUM:
			if err := printEnum(w, ds, f.GetEnumType()); err != nil {
				return err
			}
		case dpb.FieldDescriptorProto_TYPE_UINT32:
			fmt.Fprintf(w, "[number (>= 0)]\n")
		case dpb.FieldDescriptorProto_TYPE_STRING:
			fmt.Fprintf(w, "[string]\n")
		case dpb.FieldDescriptorProto_TYPE_BYTES:
			fmt.Fprintf(w, "[bytes]\n")
		default:
			fmt.Fprintf(w, "[%s]\n", strings.ToLower(strings.TrimPrefix(f.GetType().String(), "TYPE_")))
		}
	}
	return nil
}

func printEnum(w io.Writer, ds grpcurl.DescriptorSource, ed *desc.EnumDescriptor) error {
	dsc, err := ds.FindSymbol(ed.GetFullyQualifiedName())
	if err != nil {
		return fmt.Errorf("find %s: %w", ed.GetFullyQualifiedName(), err)
	}
	s := make([]string, 0)
	for _, e := range dsc.(*desc.EnumDescriptor).GetValues() {
		// 0 is the unset value and never sent.
		if e.GetNumber() == 0 {
			continue
		}
		s = append(s, e.GetName())
	}
	fmt.Fprintf(w, "[%s]\n", strings.Join(s, " | "))
	return nil
}
