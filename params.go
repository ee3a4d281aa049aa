// Copyright (c) 2024 tgkit

package tgkit

import (
	"encoding/json"
	"net/url"
	"reflect"
	"strconv"

	"github.com/fatih/structtag"
	"github.com/pkg/errors"
)

// encodeParams flattens a request struct into form values. Fields are
// named by their `tg` tag; `omitempty` skips zero values, `-` skips the
// field entirely. Slices, maps and nested structs are sent as JSON, the
// way the Bot API expects composite parameters.
func encodeParams(params any) (url.Values, error) {
	values := url.Values{}
	if params == nil {
		return values, nil
	}

	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return values, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errors.Errorf("params must be a struct, got %T", params)
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tags, err := structtag.Parse(string(field.Tag))
		if err != nil {
			return nil, errors.Wrapf(err, "field %s has a malformed tag", field.Name)
		}
		tag, err := tags.Get("tg")
		if err != nil || tag.Name == "" || tag.Name == "-" {
			continue
		}

		fv := v.Field(i)
		if tag.HasOption("omitempty") && fv.IsZero() {
			continue
		}

		encoded, err := encodeValue(fv)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding field %s", field.Name)
		}
		values.Set(tag.Name, encoded)
	}

	return values, nil
}

func encodeValue(v reflect.Value) (string, error) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Slice, reflect.Map, reflect.Struct, reflect.Interface:
		raw, err := json.Marshal(v.Interface())
		if err != nil {
			return "", err
		}
		return string(raw), nil
	default:
		return "", errors.Errorf("unsupported kind %s", v.Kind())
	}
}
