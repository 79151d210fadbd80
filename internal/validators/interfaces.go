// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks wire-level request models at the transport
// boundary before they reach the service layer.
//
// The Validator interface is injected into the HTTP handlers; its concrete
// implementation here is [SyncRequestValidator], which knows the push and
// credential request shapes. Semantic rules, version conflicts, credential
// checks, and the like stay in the services.
package validators

import "context"

// Validator validates an arbitrary input value. The optional field names
// restrict the check to a subset of the value's fields; with none given,
// every field is validated.
type Validator interface {
	Validate(context.Context, any, ...string) error
}
