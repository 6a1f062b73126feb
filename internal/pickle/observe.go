package pickle

import (
	"strconv"

	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// ObserveOp 记录一次编解码操作的结果，n 为成功时处理的字节数。
func ObserveOp(op string, n int, err error) {
	if err != nil {
		metrics.PickleOps.WithLabelValues(op, metrics.FailLabel).Inc()
		metrics.PickleFailures.WithLabelValues(op, strconv.Itoa(int(merr.Code(err)))).Inc()
		return
	}
	metrics.PickleOps.WithLabelValues(op, metrics.SuccessLabel).Inc()
	metrics.PickleBytes.WithLabelValues(op).Add(float64(n))
	metrics.PickleSize.WithLabelValues(op).Observe(float64(n))
}
