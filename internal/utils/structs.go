package utils

import (
	"fmt"
	"reflect"
	"strings"
)

var ColumnTag = "db"

func columnName(tag string) (string, bool) {
	if tag == "" || tag == "-" {
		return "", false
	}

	name, _, _ := strings.Cut(tag, ",")
	return name, true
}

func structValue(input any) reflect.Value {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	return v
}

// StructTagValues lists the column names of a row type in field order.
func StructTagValues(input any) []string {
	v := structValue(input)
	t := v.Type()

	result := make([]string, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}

		name, ok := columnName(t.Field(i).Tag.Get(ColumnTag))
		if !ok {
			continue
		}

		result = append(result, name)
	}

	return result
}

// StructToMap maps columns to field values for squirrel SetMap, leaving out
// the columns named in skip.
func StructToMap(input any, skip ...string) map[string]any {
	v := structValue(input)
	t := v.Type()

	result := make(map[string]any)

fields:
	for i := 0; i < v.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}

		name, ok := columnName(t.Field(i).Tag.Get(ColumnTag))
		if !ok {
			continue
		}

		for _, s := range skip {
			if s == name {
				continue fields
			}
		}

		result[name] = v.Field(i).Interface()
	}

	return result
}

func ErrorWrapOrNil(err error, msg string) error {
	if err == nil {
		return nil
	}

	if msg == "" {
		return err
	}

	return fmt.Errorf("%s: %w", msg, err)
}
