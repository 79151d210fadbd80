// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the headless sync engine runtime.
//
// It wires engine services and the background scheduler into a single
// process lifecycle driven by OS signals.
package client
