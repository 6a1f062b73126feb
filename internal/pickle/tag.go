package pickle

// 记录标签，每条记录以一个标签字节开头。多字节数值一律为小端序。
const (
	tagNone    byte = 'N'
	tagTrue    byte = 'T'
	tagFalse   byte = 'F'
	tagInt     byte = 'I' // int64, 8 字节
	tagFloat   byte = 'D' // float64 位模式, 8 字节
	tagString  byte = 'S' // uint32 长度 + 字节 + 0x00 结束符
	tagTuple   byte = '(' // uint32 元素个数 + 元素记录
	tagMapping byte = '{' // uint32 键值对个数 + (键记录, 值记录)
	tagObject  byte = 'O' // String 记录(类型名) + uint32 长度 + payload

	// Sentinel 是顶层记录之后的分隔字节。
	Sentinel byte = 0x00
)

// KindOfTag 返回标签字节对应的记录类型，未知标签返回 (KindInvalid, false)。
func KindOfTag(tag byte) (Kind, bool) {
	switch tag {
	case tagNone:
		return KindNone, true
	case tagTrue, tagFalse:
		return KindBool, true
	case tagInt:
		return KindInt, true
	case tagFloat:
		return KindFloat, true
	case tagString:
		return KindString, true
	case tagTuple:
		return KindTuple, true
	case tagMapping:
		return KindMapping, true
	case tagObject:
		return KindObject, true
	default:
		return KindInvalid, false
	}
}
