package hardware

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/pkg/log"
)

// GetCPUNum 返回当前主机的逻辑 CPU 数，无法探测时退化为 runtime.NumCPU。
//
// 在容器中运行时 GOMAXPROCS 可能已被 automaxprocs 调低，返回值取两者中较小的一个。
func GetCPUNum() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Warn("failed to detect cpu count, fallback to runtime.NumCPU", zap.Error(err))
		n = runtime.NumCPU()
	}
	if procs := runtime.GOMAXPROCS(0); procs > 0 && procs < n {
		n = procs
	}
	return n
}
