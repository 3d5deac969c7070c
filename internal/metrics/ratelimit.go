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
	// RateLimitRejections tracks requests rejected by the sliding-window
	// rate limiter, by which limit was exceeded.
	RateLimitRejections = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
		[]string{"limit"}, // move, invitation, sync, active_games
	)

	// InjectionAttemptsBlocked tracks text fields rejected by the safe-text
	// validator for control characters, denylisted patterns, or whitespace
	// padding heuristics.
	InjectionAttemptsBlocked = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "injection_attempts_blocked_total",
			Help:      "Total number of message fields rejected by safe-text validation",
		},
	)
)
