package utils

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"

	"github.com/near/borsh-go"
)

const eventTypePrefixLen = 4

// EncodeEvent 将事件编码为带事件类型前缀的二进制数据：
// - 前 4 字节为事件类型（uint32，小端序）
// - 后续为 borsh 序列化数据
//
// payload 为指针时先解引用，borsh 会把顶层指针编码为 Option。
func EncodeEvent(eventType uint32, payload interface{}) ([]byte, error) {
	v := reflect.ValueOf(payload)
	if !v.IsValid() {
		return nil, errors.New("EncodeEvent: nil payload")
	}
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, errors.New("EncodeEvent: nil payload")
		}
		v = v.Elem()
	}
	body, err := borsh.Serialize(v.Interface())
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: serialize %T: %w", payload, err)
	}

	buf := make([]byte, eventTypePrefixLen, eventTypePrefixLen+len(body))
	binary.LittleEndian.PutUint32(buf, eventType)
	return append(buf, body...), nil
}

// DecodeEvent 解析 EncodeEvent 的输出，out 必须为指针
func DecodeEvent(data []byte, out interface{}) (uint32, error) {
	if len(data) < eventTypePrefixLen {
		return 0, fmt.Errorf("DecodeEvent: data too short: %d", len(data))
	}
	eventType := binary.LittleEndian.Uint32(data[:eventTypePrefixLen])
	if err := borsh.Deserialize(out, data[eventTypePrefixLen:]); err != nil {
		return eventType, fmt.Errorf("DecodeEvent: deserialize %T: %w", out, err)
	}
	return eventType, nil
}

// PeekEventType 只读取事件类型
func PeekEventType(data []byte) (uint32, bool) {
	if len(data) < eventTypePrefixLen {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[:eventTypePrefixLen]), true
}
