// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package workshop talks to the Steam Web API and Steam Community for
// workshop item details, catalog search and collection contents.
//
// Every outbound request goes through the same stack: rate limiter,
// circuit breaker, retries with exponential backoff, and an OpenTelemetry
// instrumented transport. Results are cached per operation.
package workshop
