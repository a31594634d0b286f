// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Parley packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with a real-clock fallback) so
// a test waiting on a session event channel fails with a message
// instead of hanging the suite. These helpers are the only place the
// test suite touches wall-clock timeouts; everything else drives time
// through lib/clock's fake.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
