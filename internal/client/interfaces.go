// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

// Client is the lifecycle contract of the engine runtime: Run blocks until
// the process is told to exit.
type Client interface {
	Run() error
}
