package hserve

import "reflect"

// Target is the result of reflecting a prototype object for unmarshaling.
// It distinguishes the value to unmarshal into from the value handed back
// to callers as the finished component.
type Target struct {
	// Component refers to the value that should be handed to application code
	// after unmarshaling.  It has the same type as the original prototype.
	Component reflect.Value

	// UnmarshalTo is the value that should be unmarshaled.  This value is
	// always a pointer.  If Component is a pointer, UnmarshalTo is the same
	// value.  Otherwise, UnmarshalTo is a pointer to the Component value.
	UnmarshalTo reflect.Value
}

// NewTarget reflects a prototype object that describes the target for an
// unmarshaling operation.
//
// The prototype may be a struct value, a non-nil pointer to struct, or a nil
// pointer to struct.  In every case a fresh struct is allocated, initialized
// from the prototype when one was given, and unmarshaling happens into that
// fresh struct.  The component preserves the prototype's pointerness.
func NewTarget(prototype interface{}) (t Target) {
	pvalue := reflect.ValueOf(prototype)
	if pvalue.Kind() == reflect.Ptr {
		t.UnmarshalTo = reflect.New(pvalue.Type().Elem())
		if !pvalue.IsNil() {
			t.UnmarshalTo.Elem().Set(pvalue.Elem())
		}

		t.Component = t.UnmarshalTo
	} else {
		t.UnmarshalTo = reflect.New(pvalue.Type())
		t.UnmarshalTo.Elem().Set(pvalue)
		t.Component = t.UnmarshalTo.Elem()
	}

	return
}
