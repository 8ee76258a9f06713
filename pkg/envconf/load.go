// Package envconf fills tagged structs from environment variables.
//
//	type Config struct {
//		Port    uint16        `env:"APP_PORT" envDefault:"8080"`
//		Brokers []string      `env:"KAFKA_BROKERS" envDefault:""`
//		Timeout time.Duration `env:"APP_TIMEOUT"`
//	}
//
// A tagged field without envDefault is required. Untagged struct fields are
// loaded recursively. Load reports every missing or malformed variable, not
// just the first one.
package envconf

import (
	"encoding"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingRequired = errors.New("missing required environment variable")
	ErrUnsupportedType = errors.New("unsupported field type")
	ErrInvalidTarget   = errors.New("destination must be a non-nil pointer to a struct")
)

const (
	tagName    = "env"
	tagDefault = "envDefault"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

func Load(dst any) error {
	v := reflect.ValueOf(dst)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}

	var errs []error

	loadStruct(v.Elem(), "", &errs)

	return errors.Join(errs...)
}

func loadStruct(v reflect.Value, path string, errs *[]error) {
	t := v.Type()

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		fv := v.Field(i)
		name := path + sf.Name

		key := sf.Tag.Get(tagName)
		if key == "" || key == "-" {
			if nested, ok := nestedStruct(fv); ok {
				loadStruct(nested, name+".", errs)
			}

			continue
		}

		raw, ok := os.LookupEnv(key)
		if !ok {
			raw, ok = sf.Tag.Lookup(tagDefault)
		}

		if !ok {
			*errs = append(*errs, fmt.Errorf("%w: %s (field %s)", ErrMissingRequired, key, name))
			continue
		}

		err := setValue(fv, raw)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("parse %s for field %s: %w", key, name, err))
		}
	}
}

// nestedStruct returns the struct behind an untagged field, allocating nil
// struct pointers.
func nestedStruct(fv reflect.Value) (reflect.Value, bool) {
	switch {
	case fv.Kind() == reflect.Struct && fv.Type() != durationType:
		return fv, true
	case fv.Kind() == reflect.Pointer && fv.Type().Elem().Kind() == reflect.Struct:
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}

		return fv.Elem(), true
	default:
		return reflect.Value{}, false
	}
}

func setValue(fv reflect.Value, raw string) error {
	if fv.CanAddr() && fv.Addr().Type().Implements(textUnmarshalerType) {
		u, _ := fv.Addr().Interface().(encoding.TextUnmarshaler)

		err := u.UnmarshalText([]byte(raw))
		if err != nil {
			return fmt.Errorf("unmarshal text: %w", err)
		}

		return nil
	}

	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}

		fv.SetInt(int64(d))

		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse bool: %w", err)
		}

		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse int: %w", err)
		}

		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse uint: %w", err)
		}

		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse float: %w", err)
		}

		fv.SetFloat(f)
	case reflect.Slice:
		return setSlice(fv, raw)
	case reflect.Pointer:
		elem := reflect.New(fv.Type().Elem())

		err := setValue(elem.Elem(), raw)
		if err != nil {
			return err
		}

		fv.Set(elem)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, fv.Type())
	}

	return nil
}

// setSlice parses a comma-separated list. Empty items are skipped, so an
// empty value yields an empty slice.
func setSlice(fv reflect.Value, raw string) error {
	parts := strings.Split(raw, ",")
	out := reflect.MakeSlice(fv.Type(), 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		elem := reflect.New(fv.Type().Elem()).Elem()

		err := setValue(elem, p)
		if err != nil {
			return fmt.Errorf("item %q: %w", p, err)
		}

		out = reflect.Append(out, elem)
	}

	fv.Set(out)

	return nil
}
