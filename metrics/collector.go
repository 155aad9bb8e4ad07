/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics exposes a prometheus.Collector reporting per-operation
// outcomes from the MAO Facade. The collector is not self-registering;
// the host process registers it with its own prometheus.Registerer.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "mlmd"

// Collector counts Store operations by name and resulting status code.
type Collector struct {
	namespace string

	mu     sync.Mutex
	counts map[[2]string]uint64

	opsDesc *prometheus.Desc
}

// NewCollector builds a Collector. An empty namespace falls back to
// "mlmd".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Collector{
		namespace: namespace,
		counts:    make(map[[2]string]uint64),
		opsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "operations_total"),
			"Total MAO Facade operations by operation name and result status code.",
			[]string{"op", "code"}, nil,
		),
	}
}

// ObserveOperation records one occurrence of op completing with code.
func (c *Collector) ObserveOperation(op, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[[2]string{op, code}]++
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.opsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, count := range c.counts {
		ch <- prometheus.MustNewConstMetric(c.opsDesc, prometheus.CounterValue, float64(count), key[0], key[1])
	}
}
