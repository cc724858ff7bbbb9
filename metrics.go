// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckarchive

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the objects handled by a Codec, labelled by class name.
type Metrics struct {
	Decoded *prometheus.CounterVec
	Encoded *prometheus.CounterVec
	Failed  *prometheus.CounterVec
	// ArenaBytes is the number of arena bytes in use.
	ArenaBytes prometheus.GaugeFunc
}

func newMetrics(arenaBytes func() float64) *Metrics {
	const namespace = "ckarchive"
	return &Metrics{
		Decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_decoded_total",
			Help:      "The number of objects decoded. Broken down by class.",
		}, []string{"class"}),
		Encoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_encoded_total",
			Help:      "The number of objects encoded. Broken down by class.",
		}, []string{"class"}),
		Failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_failed_total",
			Help:      "The number of objects that failed to decode, encode or finish loading. Broken down by class and operation.",
		}, []string{"class", "op"}),
		ArenaBytes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "arena_bytes",
			Help:      "The number of arena bytes in use.",
		}, arenaBytes),
	}
}

// collectors returns the metrics as collectors.
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Decoded, m.Encoded, m.Failed, m.ArenaBytes}
}
