package repo

import (
	"fmt"
	"reflect"
)

// EmptiableStringFieldIndex indexes a string field like
// memdb.StringFieldIndex, but treats the empty string as a legal value.
// Database is empty on server-scope rows and ObjectName is empty on
// scope-level grants; the stock indexer would drop those rows from the
// index entirely.
type EmptiableStringFieldIndex struct {
	Field string
}

func (s *EmptiableStringFieldIndex) FromObject(obj interface{}) (bool, []byte, error) {
	v := reflect.ValueOf(obj)
	v = reflect.Indirect(v)

	fv := v.FieldByName(s.Field)
	if !fv.IsValid() {
		return false, nil, fmt.Errorf("field %q for %#v is invalid", s.Field, obj)
	}
	if fv.Kind() != reflect.String {
		return false, nil, fmt.Errorf("field %q for %#v is not a string", s.Field, obj)
	}

	// Add the null character as a terminator
	return true, []byte(fv.String() + "\x00"), nil
}

func (s *EmptiableStringFieldIndex) FromArgs(args ...interface{}) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("must provide only a single argument")
	}
	arg, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("argument must be a string: %#v", args[0])
	}
	// Add the null character as a terminator
	return []byte(arg + "\x00"), nil
}
