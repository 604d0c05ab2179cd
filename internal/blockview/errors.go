package blockview

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange 指令引用的账户索引超出 accountKeys + loadedWritable + loadedReadonly 的总长度
	ErrIndexOutOfRange = errors.New("account index out of range")

	// ErrMissingStructure 协议保证存在的结构缺失（如 Transaction 或 Message 为空）
	ErrMissingStructure = errors.New("missing required structure")
)

// IndexOutOfRangeError 携带越界索引以及三段地址池的长度，便于定位异常数据。
type IndexOutOfRangeError struct {
	Index          uint32
	AccountKeys    int
	LoadedWritable int
	LoadedReadonly int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("account index %d out of range: account_keys=%d loaded_writable=%d loaded_readonly=%d",
		e.Index, e.AccountKeys, e.LoadedWritable, e.LoadedReadonly)
}

func (e *IndexOutOfRangeError) Unwrap() error {
	return ErrIndexOutOfRange
}

// MissingStructureError 表示某个必需结构缺失，Structure 为结构名（transaction / message / signature）。
type MissingStructureError struct {
	Structure string
}

func (e *MissingStructureError) Error() string {
	return fmt.Sprintf("missing required structure: %s", e.Structure)
}

func (e *MissingStructureError) Unwrap() error {
	return ErrMissingStructure
}

func missing(structure string) error {
	return &MissingStructureError{Structure: structure}
}

// ErrInstructionNotFound 按主指令下标查找时下标超出 message.instructions 范围
var ErrInstructionNotFound = errors.New("top-level instruction not found")

func instructionNotFound(topIndex, count int) error {
	return fmt.Errorf("%w: index=%d, instructions=%d", ErrInstructionNotFound, topIndex, count)
}
