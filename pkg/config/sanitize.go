/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

const redacted = "[redacted]"

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// Redact renders cfg as JSON with every non-empty field tagged
// sensitive:"true" replaced, so configs can be logged.
func Redact(cfg interface{}) ([]byte, error) {
	return json.Marshal(sanitize(reflect.ValueOf(cfg)))
}

func sanitize(v reflect.Value) interface{} {
	if !v.IsValid() {
		return nil
	}

	if v.Type().Implements(marshalerType) {
		if v.Kind() == reflect.Ptr && v.IsNil() {
			return nil
		}

		return v.Interface()
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}

		return sanitize(v.Elem())
	case reflect.Struct:
		return sanitizeStruct(v)
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}

		out := make([]interface{}, v.Len())
		for i := range out {
			out[i] = sanitize(v.Index(i))
		}

		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}

		out := make(map[string]interface{}, v.Len())

		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = sanitize(iter.Value())
		}

		return out
	default:
		return v.Interface()
	}
}

func sanitizeStruct(v reflect.Value) map[string]interface{} {
	t := v.Type()
	out := make(map[string]interface{}, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}

		if name == "" {
			name = f.Name
		}

		fv := v.Field(i)
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}

		if f.Tag.Get("sensitive") == "true" && !fv.IsZero() {
			out[name] = redacted
			continue
		}

		out[name] = sanitize(fv)
	}

	return out
}
