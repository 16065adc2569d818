// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scm

import "github.com/gogpu/gpucontext"

// DeviceHandle provides GPU device access from the host application.
//
// The cache is self-contained: it owns its loader goroutines and its
// atlas. It does not have to own the GPU device, though. A host built on
// gogpu implements gpucontext.DeviceProvider (and the HAL access methods)
// and passes it to [NewCacheFromProvider], so the planet layers share the
// application's device and queue instead of creating their own.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing an
// scm-specific name for the interface while staying compatible with the
// gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider
