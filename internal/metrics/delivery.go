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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeliveryRetries tracks retry attempts made by the delivery manager,
	// by message kind.
	DeliveryRetries = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "retries_total",
			Help:      "Total number of send retries attempted",
		},
		[]string{"kind"},
	)

	// DeliveryExhausted tracks messages that ran out of retries and were
	// queued as pending rather than delivered.
	DeliveryExhausted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "retries_exhausted_total",
			Help:      "Total number of messages queued as pending after exhausting retries",
		},
		[]string{"kind"},
	)

	// PendingMessages tracks the current size of the pending-message buffer
	// across all peers.
	PendingMessages = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "pending_messages",
			Help:      "Number of messages currently buffered awaiting delivery",
		},
	)

	// PeerLivenessChecks tracks IsPeerOnline probes, deduplicated by
	// singleflight, by outcome.
	PeerLivenessChecks = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "peer_liveness_checks_total",
			Help:      "Total number of peer liveness checks performed",
		},
		[]string{"result"}, // online, offline
	)
)
