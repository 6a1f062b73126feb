package serializer

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode 使用 Core Deterministic Encoding：相同的值总是得到相同的字节。
var encMode cbor.EncMode

// decMode 把任意类型目标中的 map 解码为 map[string]any。
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("serializer: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("serializer: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORSerializer 基于 fxamacker/cbor。
type CBORSerializer struct{}

var _ Serializer = (*CBORSerializer)(nil)

func (CBORSerializer) Name() string { return FormatCBOR }

func (CBORSerializer) Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func (CBORSerializer) Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
