package templating

import "strings"

const (
	tokenOpen  = "{{"
	tokenClose = "}}"
)

// Token 构造占位符的字面量形式 {{name}}
func Token(name string) string {
	return tokenOpen + name + tokenClose
}

// ScanTokens 按出现顺序扫描内容中的所有占位符名称（保留重复项）
// 规则：{{ 之后直到第一个 }}，名称非空且不含 }，大小写和空白原样保留
func ScanTokens(content string) []string {
	var names []string
	rest := content
	for {
		start := strings.Index(rest, tokenOpen)
		if start < 0 {
			return names
		}
		body := rest[start+len(tokenOpen):]
		end := strings.Index(body, tokenClose)
		if end < 0 {
			// 未闭合的 {{，后面不会再有匹配
			return names
		}

		name := body[:end]
		if name == "" || strings.Contains(name, "}") {
			// {{}} 或 {{a}b}} 这类不合法写法：跳过一个字符继续扫描
			rest = rest[start+1:]
			continue
		}

		// 名称可以包含 {，例如 {{{x}} 的名称是 "{x"
		names = append(names, name)
		rest = body[end+len(tokenClose):]
	}
}

// DetectPlaceholders 检测内容中的占位符，并与已声明的占位符合并
// 已有名称保持原顺序在前，新检测到的名称按首次出现顺序追加，结果无重复
// 已声明但内容中不存在的名称不会被移除
func DetectPlaceholders(content string, existing []string) []string {
	merged := make([]string, 0, len(existing))
	seen := make(map[string]struct{}, len(existing))

	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		merged = append(merged, name)
	}

	for _, name := range existing {
		add(name)
	}
	for _, name := range ScanTokens(content) {
		add(name)
	}
	return merged
}

// UndeclaredTokens 返回内容中出现但未声明的占位符（替换时会原样保留）
func UndeclaredTokens(content string, placeholders []string) []string {
	declared := make(map[string]struct{}, len(placeholders))
	for _, name := range placeholders {
		declared[name] = struct{}{}
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, name := range ScanTokens(content) {
		if _, ok := declared[name]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		missing = append(missing, name)
	}
	return missing
}
