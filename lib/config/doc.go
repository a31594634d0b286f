// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the Parley client configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. [Default] -- the built-in baseline (local server, guest token)
//  2. a YAML file passed to [Load] -- missing is fine, typos are not:
//     unknown keys fail the load
//  3. PARLEY_* environment variables -- one per field, see the env
//     struct tags
//
// Command-line flags are a fourth layer owned by the caller: [Load]
// deliberately skips validation so the caller can merge flags and then
// run [Config.Validate] over the final result. Validation errors name
// the offending field by its YAML path ("reconnect.base_delay") so the
// message points at the file the user has open.
//
// The only generated value is Identity.ID: left empty it becomes a
// fresh UUID per load, trading identity stability for zero-setup use.
package config
