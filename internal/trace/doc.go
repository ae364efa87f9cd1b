// Package trace records where compilation time goes.
//
// Spans nest session → stage → module → node. The program builder opens a
// stage span per builder step; the analyze and finalize passes open one
// node span per top-level declaration, which makes a stuck or slow
// declaration easy to spot.
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeStage, "analyze")
//	defer span.End("")
//
// StreamTracer writes text or NDJSON immediately; RingTracer keeps the tail
// in memory for dumping after an internal error.
package trace
