package serializer

import (
	"github.com/bytedance/sonic"
)

// JSONSerializer 基于 bytedance/sonic，使用与标准库兼容且按键排序的配置。
type JSONSerializer struct{}

var _ Serializer = (*JSONSerializer)(nil)

func (JSONSerializer) Name() string { return FormatJSON }

func (JSONSerializer) Marshal(v any) ([]byte, error) {
	return sonic.ConfigStd.Marshal(v)
}

func (JSONSerializer) Unmarshal(data []byte, v any) error {
	return sonic.ConfigStd.Unmarshal(data, v)
}
