package serializer

import (
	"strings"

	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// Serializer 抽象了“对象 <-> 字节”的序列化能力，用于把解码后的值导出给外部工具。
type Serializer interface {
	// Name 返回格式名，与 ForFormat 的参数一致。
	Name() string

	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节解码到 v，v 通常为指针。
	Unmarshal(data []byte, v any) error
}

const (
	FormatJSON  = "json"
	FormatCBOR  = "cbor"
	FormatProto = "proto"
)

// Formats 返回所有支持的格式名。
func Formats() []string {
	return []string{FormatJSON, FormatCBOR, FormatProto}
}

// ForFormat 按格式名返回对应的 Serializer，名字不区分大小写。
func ForFormat(name string) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatJSON:
		return JSONSerializer{}, nil
	case FormatCBOR:
		return CBORSerializer{}, nil
	case FormatProto, "protobuf":
		return ProtoSerializer{}, nil
	default:
		return nil, merr.WrapErrParameterInvalid(strings.Join(Formats(), "|"), name, "unknown export format")
	}
}
