// Package scheduler implements the gRPC transport of the alarm scheduler
// control plane.
//
// The service descriptor is written by hand over protobuf well-known types
// (Struct, ListValue, Int64Value, Empty), so no generated code is needed.
// Server adapts a Service to the wire; Client is the matching stub.
package scheduler
