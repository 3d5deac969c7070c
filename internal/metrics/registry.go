// chessmesh - peer-to-peer authenticated chess messaging
// Copyright (C) 2025 chessmesh contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package metrics exposes chessmesh's Prometheus instrumentation: handshake
// outcomes, connection lifecycle, message throughput, rate-limit rejections,
// delivery retries, and signing operations.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "chessmesh"

// Registry is the collector registry every metric in this package is
// registered against. Handler and StartServer expose it; a binary that
// wants its own process-level collectors (go_*, process_*) alongside these
// can register them here too.
var Registry = prometheus.NewRegistry()
