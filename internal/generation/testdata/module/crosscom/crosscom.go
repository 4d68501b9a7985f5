// Package crosscom is the smallest runtime generated bindings link against.
// Handles do not count references and arrays only carry a length.
package crosscom

import "unsafe"

type Guid [16]byte

type ComInterface interface {
	IID() Guid
}

type ResultCode int32

const (
	ResultCodeOk           ResultCode = 0
	ResultCodeENoInterface ResultCode = -0x7fffbffe // 0x80004002
)

type RawPointer unsafe.Pointer

var IUnknownIID = Guid{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xc0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46}

type IUnknownVirtualTable struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
}

type IUnknownVirtualTableCcw struct {
	Offset int
	Vtable IUnknownVirtualTable
}

type IUnknown struct {
	vtable *IUnknownVirtualTable
}

func (*IUnknown) IID() Guid {
	return IUnknownIID
}

type ComRc[T any] struct {
	ptr unsafe.Pointer
}

func FromRawPointer[T any](ptr unsafe.Pointer) *ComRc[T] {
	if ptr == nil {
		return nil
	}
	return &ComRc[T]{ptr: ptr}
}

func FromBorrowedPointer[T any](ptr unsafe.Pointer) *ComRc[T] {
	return FromRawPointer[T](ptr)
}

func (rc *ComRc[T]) Raw() unsafe.Pointer {
	if rc == nil {
		return nil
	}
	return rc.ptr
}

func (rc *ComRc[T]) IntoRaw() unsafe.Pointer {
	return rc.Raw()
}

type ObjectArray[T any] struct {
	Len int
}

func NewObjectArray[T any](n int) *ObjectArray[T] {
	return &ObjectArray[T]{Len: n}
}

func (a *ObjectArray[T]) Raw() unsafe.Pointer {
	return unsafe.Pointer(a)
}

func (a *ObjectArray[T]) IntoRaw() unsafe.Pointer {
	return unsafe.Pointer(a)
}

func ObjectArrayFromRawPointer[T any](ptr unsafe.Pointer) *ObjectArray[T] {
	return (*ObjectArray[T])(ptr)
}

func ObjectArrayFromBorrowedPointer[T any](ptr unsafe.Pointer) *ObjectArray[T] {
	return (*ObjectArray[T])(ptr)
}

type Option[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Option[T] {
	return Option[T]{Value: v, Valid: true}
}

type handle interface {
	Raw() unsafe.Pointer
	IntoRaw() unsafe.Pointer
}

func OptionToRaw[T handle](o Option[T]) RawPointer {
	if !o.Valid {
		return nil
	}
	return RawPointer(o.Value.Raw())
}

func OptionIntoRaw[T handle](o Option[T]) RawPointer {
	if !o.Valid {
		return nil
	}
	return RawPointer(o.Value.IntoRaw())
}

func OptionFromRawPointer[T any](ptr RawPointer) Option[*ComRc[T]] {
	if ptr == nil {
		return Option[*ComRc[T]]{}
	}
	return Some(FromRawPointer[T](unsafe.Pointer(ptr)))
}

func OptionFromBorrowedPointer[T any](ptr RawPointer) Option[*ComRc[T]] {
	return OptionFromRawPointer[T](ptr)
}

// GetObject recovers the object from a pointer to one of its vtable slots.
// The int stored right before the vtable is the slot's negated index.
func GetObject[T any](this unsafe.Pointer) *T {
	vtable := *(*unsafe.Pointer)(this)
	offset := *(*int)(unsafe.Add(vtable, -int(unsafe.Sizeof(int(0)))))
	return (*T)(unsafe.Add(this, offset*int(unsafe.Sizeof(uintptr(0)))))
}
