package classhier

import "fmt"

// ClassFileNotFoundError, FieldNotFoundError, MethodNotFoundError,
// FieldNotAccessibleError, MethodNotAccessibleError, InvalidIndexError and
// AttributeNotFoundError are the oracle's named failure kinds. The
// algorithm catalog's schema (c) (field/method access) maps these onto
// the hosted exceptions NoClassDefFoundError, NoSuchFieldError and
// IllegalAccessError.
type ClassFileNotFoundError struct {
	ClassName string
}

func (e *ClassFileNotFoundError) Error() string {
	return fmt.Sprintf("classhier: class file not found: %s", e.ClassName)
}

type FieldNotFoundError struct {
	ClassName string
	Member    string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("classhier: field not found: %s.%s", e.ClassName, e.Member)
}

type MethodNotFoundError struct {
	ClassName string
	Member    string
	Descriptor string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("classhier: method not found: %s.%s%s", e.ClassName, e.Member, e.Descriptor)
}

type FieldNotAccessibleError struct {
	ClassName string
	Member    string
}

func (e *FieldNotAccessibleError) Error() string {
	return fmt.Sprintf("classhier: field not accessible: %s.%s", e.ClassName, e.Member)
}

type MethodNotAccessibleError struct {
	ClassName string
	Member    string
}

func (e *MethodNotAccessibleError) Error() string {
	return fmt.Sprintf("classhier: method not accessible: %s.%s", e.ClassName, e.Member)
}

type InvalidIndexError struct {
	Index int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("classhier: invalid constant pool index: %d", e.Index)
}

type AttributeNotFoundError struct {
	Attribute string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("classhier: attribute not found: %s", e.Attribute)
}
