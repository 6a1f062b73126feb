// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	loggingMetricSubsystem = "logging"
	levelLabelName         = "level"
)

var (
	LoggingMetricsRegisterOnce sync.Once

	// LoggingRatedDropped 统计限流日志被丢弃的条数。
	LoggingRatedDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dguiNamespace,
		Subsystem: loggingMetricSubsystem,
		Name:      "rated_dropped_total",
		Help:      "因限流而被丢弃的日志条数",
	}, []string{levelLabelName})

	// 以下指标由异步写日志 Core 维护。
	LoggingPendingWriteLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: dguiNamespace,
		Subsystem: loggingMetricSubsystem,
		Name:      "pending_write_length",
		Help:      "异步写队列中等待写出的日志条数",
	})

	LoggingPendingWriteBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: dguiNamespace,
		Subsystem: loggingMetricSubsystem,
		Name:      "pending_write_bytes",
		Help:      "异步写队列中等待写出的日志字节数",
	})

	LoggingTruncatedWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: dguiNamespace,
		Subsystem: loggingMetricSubsystem,
		Name:      "truncated_writes_total",
		Help:      "因超过单条上限而被截断的日志条数",
	})

	LoggingTruncatedWriteBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: dguiNamespace,
		Subsystem: loggingMetricSubsystem,
		Name:      "truncated_write_bytes_total",
		Help:      "被截断丢弃的日志字节数",
	})

	LoggingDroppedWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: dguiNamespace,
		Subsystem: loggingMetricSubsystem,
		Name:      "dropped_writes_total",
		Help:      "异步写队列已满而被丢弃的日志条数",
	})

	LoggingIOFailure = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: dguiNamespace,
		Subsystem: loggingMetricSubsystem,
		Name:      "io_failures_total",
		Help:      "写出日志时发生的 IO 错误次数",
	})
)

// RegisterLoggingMetrics 将日志相关的指标注册到 Prometheus Registry 中。
func RegisterLoggingMetrics(registry prometheus.Registerer) {
	LoggingMetricsRegisterOnce.Do(func() {
		registry.MustRegister(LoggingRatedDropped)
		registry.MustRegister(LoggingPendingWriteLength)
		registry.MustRegister(LoggingPendingWriteBytes)
		registry.MustRegister(LoggingTruncatedWrites)
		registry.MustRegister(LoggingTruncatedWriteBytes)
		registry.MustRegister(LoggingDroppedWrites)
		registry.MustRegister(LoggingIOFailure)
	})
}
