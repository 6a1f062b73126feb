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
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// dguiNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	dguiNamespace = "dgui"

	pickleSubsystem  = "pickle"
	archiveSubsystem = "archive"
	windowSubsystem  = "window"

	// 以下为当前使用的通用标签名。
	opLabelName     = "op"
	statusLabelName = "status"
	codeLabelName   = "code"
	// RegistryLabelName 区分进程内多个窗口注册表。
	RegistryLabelName = "registry"

	// op 标签取值。
	OpPickle        = "pickle"
	OpUnpickle      = "unpickle"
	OpWindowSave    = "window_save"
	OpWindowLoad    = "window_load"
	OpArchiveEncode = "archive_encode"
	OpArchiveDecode = "archive_decode"

	// status 标签取值。
	SuccessLabel = "success"
	FailLabel    = "fail"
)

var (
	// sizeBuckets 为单次编解码数据大小的桶划分，单位为字节。
	// [16 64 256 1024 4096 16384 65536 262144 1.048576e+06 4.194304e+06 1.6777216e+07]
	sizeBuckets = prometheus.ExponentialBuckets(16, 4, 11)

	PickleOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: dguiNamespace,
			Subsystem: pickleSubsystem,
			Name:      "ops_total",
			Help:      "编解码操作次数",
		}, []string{opLabelName, statusLabelName})

	PickleBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: dguiNamespace,
			Subsystem: pickleSubsystem,
			Name:      "bytes_total",
			Help:      "成功写入或读取的字节总数",
		}, []string{opLabelName})

	PickleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: dguiNamespace,
			Subsystem: pickleSubsystem,
			Name:      "failures_total",
			Help:      "按错误码统计的编解码失败次数",
		}, []string{opLabelName, codeLabelName})

	PickleSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: dguiNamespace,
			Subsystem: pickleSubsystem,
			Name:      "record_size_bytes",
			Help:      "单次编解码涉及的字节数分布",
			Buckets:   sizeBuckets,
		}, []string{opLabelName})

	ArchiveSections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: dguiNamespace,
			Subsystem: archiveSubsystem,
			Name:      "sections",
			Help:      "最近一次编码或解码的存档包含的分段数",
		})

	WindowRegistrySize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: dguiNamespace,
			Subsystem: windowSubsystem,
			Name:      "registry_size",
			Help:      "各活动窗口注册表中的窗口数量",
		}, []string{RegistryLabelName})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，通常在进程启动时调用一次。
func Register(r prometheus.Registerer) {
	r.MustRegister(PickleOps)
	r.MustRegister(PickleBytes)
	r.MustRegister(PickleFailures)
	r.MustRegister(PickleSize)
	r.MustRegister(ArchiveSections)
	r.MustRegister(WindowRegistrySize)
	metricRegisterer = r
}
