package clicfg

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/urfave/cli/v3"
)

var (
	ErrCannotParseFlags = errors.New("cannot parse flags")

	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// ParseFlags fills the fields of the struct s points to from the flags of c. A field is bound by its `flag` tag,
// fields of embedded structs are included.
func ParseFlags(c *cli.Command, s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("%w: expected pointer to struct, got %T", ErrCannotParseFlags, s)
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: expected pointer to struct, got pointer to %s", ErrCannotParseFlags, v.Kind())
	}

	for _, field := range reflect.VisibleFields(v.Type()) {
		name := field.Tag.Get("flag")
		if name == "" || !field.IsExported() {
			continue
		}

		if err := setField(c, name, v.FieldByIndex(field.Index)); err != nil {
			return fmt.Errorf("%w: field %s: %w", ErrCannotParseFlags, field.Name, err)
		}
	}

	return nil
}

func setField(c *cli.Command, name string, value reflect.Value) error {
	if value.Type() == durationType {
		value.SetInt(int64(c.Duration(name)))
		return nil
	}

	if reflect.PointerTo(value.Type()).Implements(textUnmarshalerType) {
		text := c.String(name)
		if text == "" {
			return nil
		}
		return value.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text))
	}

	switch value.Kind() {
	case reflect.String:
		value.SetString(c.String(name))
	case reflect.Bool:
		value.SetBool(c.Bool(name))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value.SetInt(int64(c.Int(name)))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value.SetUint(uint64(c.Uint(name)))
	case reflect.Float32, reflect.Float64:
		value.SetFloat(c.Float64(name))
	case reflect.Slice:
		if value.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", value.Type())
		}
		value.Set(reflect.ValueOf(c.StringSlice(name)).Convert(value.Type()))
	default:
		return fmt.Errorf("unsupported type %s", value.Type())
	}

	return nil
}
