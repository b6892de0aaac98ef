package text

import "strings"

// Normalize 规范化任意 Unicode 文本：
//   - 转小写
//   - [a-z0-9\s] 之外的字符替换为空格
//   - 连续空白折叠为一个空格并去掉首尾空白
//
// 空串返回空串。
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		keep := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !keep {
			// 非法字符与空白同样视为分隔
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Join 规范化每个片段并以单个空格拼接，空片段被跳过。
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}

// Tokenize 对文本做规范化后按空格切分，只保留长度 >= 2 的 token。
// 与 sklearn 默认的 token_pattern `(?u)\b\w\w+\b` 在规范化文本上的行为一致。
func Tokenize(s string) []string {
	fields := strings.Fields(Normalize(s))
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}
