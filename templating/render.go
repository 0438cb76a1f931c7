package templating

import "strings"

// Personalize 用填写的值替换所有已声明的占位符，生成最终可复制的文本
// 值为空或缺失时使用 [标签]；未声明的占位符原样保留；值中的换行和空白原样保留
func Personalize(content string, placeholders []string, values map[string]string) string {
	var b strings.Builder
	b.Grow(len(content))
	substitute(content, placeholders,
		func(text string) { b.WriteString(text) },
		func(name string) { b.WriteString(ValueOrFallback(name, values)) },
	)
	return b.String()
}

// ValueOrFallback 返回占位符的填写值，未填写时返回 [标签]
func ValueOrFallback(name string, values map[string]string) string {
	if v, ok := values[name]; ok && v != "" {
		return v
	}
	return Fallback(name)
}

// substitute 单次扫描内容：普通文本交给 literal，命中已声明占位符时交给 token
// 替换结果不会被再次扫描，所以占位符的处理顺序不影响结果
func substitute(content string, placeholders []string, literal func(string), token func(name string)) {
	tokens := declaredTokens(placeholders)
	if len(tokens) == 0 {
		literal(content)
		return
	}

	last, i := 0, 0
	for i < len(content) {
		j := strings.Index(content[i:], tokenOpen)
		if j < 0 {
			break
		}
		pos := i + j

		// 同一位置命中多个时取最长的 token
		matched := ""
		for _, name := range tokens {
			if len(name) > len(matched) && strings.HasPrefix(content[pos:], Token(name)) {
				matched = name
			}
		}
		if matched == "" {
			i = pos + 1
			continue
		}

		literal(content[last:pos])
		token(matched)
		i = pos + len(Token(matched))
		last = i
	}
	literal(content[last:])
}

// declaredTokens 去掉空名称和重复名称
func declaredTokens(placeholders []string) []string {
	names := make([]string, 0, len(placeholders))
	seen := make(map[string]struct{}, len(placeholders))
	for _, name := range placeholders {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
