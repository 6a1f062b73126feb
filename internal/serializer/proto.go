package serializer

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoSerializer 使用 Protobuf 二进制格式。
//
// proto.Message 直接编码；其它值先转换为 google.protobuf.Value，
// 因此只支持 structpb.NewValue 能表示的类型（nil、布尔、数值、字符串、[]byte、[]any、map[string]any）。
type ProtoSerializer struct{}

var _ Serializer = (*ProtoSerializer)(nil)

func (ProtoSerializer) Name() string { return FormatProto }

func (ProtoSerializer) Marshal(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return proto.Marshal(msg)
	}
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("serializer: convert %T to protobuf value failed: %w", v, err)
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(pv)
}

// Unmarshal 支持 proto.Message 与 *any 两种目标；后者得到 structpb.Value.AsInterface 的结果。
func (ProtoSerializer) Unmarshal(data []byte, v any) error {
	switch target := v.(type) {
	case proto.Message:
		return proto.Unmarshal(data, target)
	case *any:
		pv := &structpb.Value{}
		if err := proto.Unmarshal(data, pv); err != nil {
			return err
		}
		*target = pv.AsInterface()
		return nil
	default:
		return fmt.Errorf("serializer: ProtoSerializer requires proto.Message or *any, got %T", v)
	}
}
