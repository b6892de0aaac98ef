// Package conv 提供类型转换、map/slice 转换等泛型工具，用于宽松解析请求 payload 与 YAML 配置。
package conv

import (
	"strconv"
	"strings"
)

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32、数字字符串；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ToInt64 将 any 转为 int64。
// 支持整型、整数值的浮点数（JSON 解码结果）以及十进制整数字符串；其他情况返回 false。
func ToInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case float64:
		if val != float64(int64(val)) {
			return 0, false
		}
		return int64(val), true
	case float32:
		if val != float32(int64(val)) {
			return 0, false
		}
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ToString 将 any 转为 string。
// 仅支持 string 类型，否则返回 ("", false)。
func ToString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// TypeAssert 对 v 做类型断言为 T，等价于 v.(T) 的 (val, ok) 形式。
func TypeAssert[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}

// ConvertSlice 将 []any 按 convert 转为 []T，convert 返回 false 的元素被跳过。
// v 也可以是单个标量，此时视为只有一个元素的切片。
func ConvertSlice[T any](v any, convert func(any) (T, bool)) []T {
	if v == nil {
		return nil
	}
	var raw []any
	switch val := v.(type) {
	case []any:
		raw = val
	case []string:
		raw = make([]any, len(val))
		for i, s := range val {
			raw[i] = s
		}
	case []int64:
		raw = make([]any, len(val))
		for i, n := range val {
			raw[i] = n
		}
	case []int:
		raw = make([]any, len(val))
		for i, n := range val {
			raw[i] = n
		}
	default:
		raw = []any{val}
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		if t, ok := convert(item); ok {
			out = append(out, t)
		}
	}
	return out
}

// SliceAnyToInt64 将 []any 转为 []int64，非法元素被丢弃。
func SliceAnyToInt64(v any) []int64 {
	return ConvertSlice(v, ToInt64)
}

// SliceAnyToString 将 []any 转为 []string，非字符串或空白元素被丢弃。
func SliceAnyToString(v any) []string {
	return ConvertSlice(v, func(item any) (string, bool) {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", false
		}
		return strings.TrimSpace(s), true
	})
}

// MapToString 将 map[string]any 转为 map[string]string，仅保留字符串 value。
func MapToString(m map[string]any) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// ConfigGet 从 map[string]any（如 YAML/JSON 解析结果）按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt64 从 config 取 int64。YAML/JSON 常得到 int、float64 或字符串，此处兼容并统一为 int64。
func ConfigGetInt64(m map[string]any, key string, defaultVal int64) int64 {
	if m == nil {
		return defaultVal
	}
	if n, ok := ToInt64(m[key]); ok {
		return n
	}
	return defaultVal
}
