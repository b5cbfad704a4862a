package typesig

import (
	"fmt"
	"strings"
)

// Signature is the (class, descriptor, member) triple used to name both
// fields and methods throughout the engine.
type Signature struct {
	ClassName      string
	Descriptor     string
	MemberName     string
}

func (s Signature) String() string {
	return fmt.Sprintf("%s.%s:%s", s.ClassName, s.MemberName, s.Descriptor)
}

// IsMethod reports whether the descriptor has the "(args)ret" shape of a
// method signature, as opposed to a bare field-type descriptor.
func (s Signature) IsMethod() bool {
	return strings.HasPrefix(s.Descriptor, "(")
}

// FieldType returns the tag of a field signature's descriptor. Reference
// and array descriptors both report their outer tag (L or [); callers
// needing the class name should consult ReferenceTypeName.
func (s Signature) FieldType() Tag {
	if len(s.Descriptor) == 0 {
		return Undefined
	}
	return Tag(s.Descriptor[0])
}

// ReferenceTypeName extracts "java/lang/Object" out of "Ljava/lang/Object;"
// style descriptors and returns an array descriptor unchanged. It
// returns "" if the descriptor does not describe a reference type.
func ReferenceTypeName(descriptor string) string {
	if len(descriptor) == 0 {
		return ""
	}
	switch descriptor[0] {
	case byte(Class):
		if i := strings.IndexByte(descriptor, ';'); i > 0 {
			return descriptor[1:i]
		}
		return ""
	case byte(Array):
		return descriptor
	default:
		return ""
	}
}

// ParamTypes splits a method descriptor "(args)ret" into its parameter
// descriptor slices, in declaration order.
func ParamTypes(descriptor string) ([]string, error) {
	if !strings.HasPrefix(descriptor, "(") {
		return nil, fmt.Errorf("typesig: not a method descriptor: %q", descriptor)
	}
	end := strings.IndexByte(descriptor, ')')
	if end < 0 {
		return nil, fmt.Errorf("typesig: unterminated parameter list: %q", descriptor)
	}
	body := descriptor[1:end]
	var out []string
	for len(body) > 0 {
		n := descriptorLen(body)
		if n == 0 {
			return nil, fmt.Errorf("typesig: malformed descriptor element in %q", descriptor)
		}
		out = append(out, body[:n])
		body = body[n:]
	}
	return out, nil
}

// ReturnType returns the descriptor substring after the closing paren of a
// method descriptor.
func ReturnType(descriptor string) (string, error) {
	end := strings.IndexByte(descriptor, ')')
	if end < 0 {
		return "", fmt.Errorf("typesig: unterminated parameter list: %q", descriptor)
	}
	return descriptor[end+1:], nil
}

// descriptorLen returns the length in bytes of the single type descriptor
// at the start of s (e.g. "I" -> 1, "[I" -> 2, "Ljava/lang/Object;" -> full
// length including the semicolon).
func descriptorLen(s string) int {
	if len(s) == 0 {
		return 0
	}
	arrayPrefix := 0
	for arrayPrefix < len(s) && s[arrayPrefix] == byte(Array) {
		arrayPrefix++
	}
	if arrayPrefix >= len(s) {
		return 0
	}
	switch s[arrayPrefix] {
	case byte(Class):
		if i := strings.IndexByte(s[arrayPrefix:], ';'); i >= 0 {
			return arrayPrefix + i + 1
		}
		return 0
	default:
		return arrayPrefix + 1
	}
}
