package pickle

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/lk2023060901/danmu-garden-ui/internal/pool/streampool"
	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// ObjectCodec 负责一种已注册对象类型的 payload 编解码。
type ObjectCodec interface {
	// PickleObject 把 v 写入 s，s 中的内容即为 Object 记录的 payload。
	PickleObject(v any, s *stream.Stream) error
	// UnpickleObject 从 payload 还原对象，并返回消耗的字节数。
	UnpickleObject(payload []byte) (any, int, error)
}

// TypeRegistry 维护类型名到 ObjectCodec 的映射，支持并发访问。
type TypeRegistry struct {
	mu     sync.RWMutex
	codecs map[string]ObjectCodec
}

var defaultRegistry = NewTypeRegistry()

// DefaultRegistry 返回进程级默认注册表，各对象类型在 init 中注册到这里。
func DefaultRegistry() *TypeRegistry {
	return defaultRegistry
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{codecs: make(map[string]ObjectCodec)}
}

// Register 注册一个对象类型，同名类型重复注册会返回错误。
func (r *TypeRegistry) Register(typeName string, codec ObjectCodec) error {
	if typeName == "" {
		return merr.WrapErrParameterMissing("typeName", "object type name is empty")
	}
	if codec == nil {
		return merr.WrapErrParameterMissing("codec", "object codec is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codecs[typeName]; ok {
		return merr.WrapErrParameterInvalidMsg("object type %s already registered", typeName)
	}
	r.codecs[typeName] = codec
	return nil
}

// MustRegister 与 Register 相同，但失败时 panic。
func (r *TypeRegistry) MustRegister(typeName string, codec ObjectCodec) {
	if err := r.Register(typeName, codec); err != nil {
		panic(err)
	}
}

func (r *TypeRegistry) Lookup(typeName string) (ObjectCodec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codec, ok := r.codecs[typeName]
	return codec, ok
}

// Names 返回已注册的类型名，按字典序排列。
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.codecs)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Wrap 使用 typeName 对应的 codec 序列化 obj，返回 Object 值。
func (r *TypeRegistry) Wrap(typeName string, obj any) (Value, error) {
	codec, ok := r.Lookup(typeName)
	if !ok {
		return Value{}, merr.WrapErrPickleUnencodable(KindObject, "object type not registered: "+typeName)
	}
	tmp := streampool.Get()
	defer streampool.Put(tmp)
	if err := codec.PickleObject(obj, tmp); err != nil {
		return Value{}, errors.Wrapf(err, "pickle object %s", typeName)
	}
	payload := make([]byte, tmp.Size())
	copy(payload, tmp.Bytes())
	return Object(typeName, payload), nil
}

// Resolve 把 Object 值还原为具体的 Go 对象。
// 未注册的类型返回 ErrPickleSchemaMismatch，payload 未被完整消费同样视为不匹配。
func (r *TypeRegistry) Resolve(v Value) (any, error) {
	typeName, payload, ok := v.AsObject()
	if !ok {
		return nil, merr.WrapErrPickleSchemaMismatch("object", KindObject.String(), v.Kind().String())
	}
	codec, ok := r.Lookup(typeName)
	if !ok {
		return nil, merr.WrapErrPickleSchemaMismatch("object", "registered type", typeName)
	}
	obj, consumed, err := codec.UnpickleObject(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "unpickle object %s", typeName)
	}
	if consumed != len(payload) {
		return nil, merr.WrapErrPickleSchemaMismatch(typeName+".payload", "fully consumed", len(payload)-consumed)
	}
	return obj, nil
}
