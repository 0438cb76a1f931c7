package templating

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultHighlightClass 预览中占位符高亮的 CSS class
const DefaultHighlightClass = "placeholder-highlight"

var (
	previewPolicyOnce sync.Once
	previewPolicy     *bluemonday.Policy

	classPattern   = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)
	lineBreakValue = strings.NewReplacer("\r\n", "<br>", "\n", "<br>")
)

// Previewer 生成仅用于展示的高亮预览（不能作为复制内容）
type Previewer struct {
	highlightClass string
}

// NewPreviewer 创建预览器，class 不合法时使用默认值
func NewPreviewer(highlightClass string) *Previewer {
	highlightClass = strings.TrimSpace(highlightClass)
	if highlightClass == "" || !classPattern.MatchString(highlightClass) {
		highlightClass = DefaultHighlightClass
	}
	return &Previewer{highlightClass: highlightClass}
}

var defaultPreviewer = NewPreviewer(DefaultHighlightClass)

// RenderPreview 使用默认高亮 class 渲染预览
func RenderPreview(content string, placeholders []string, values map[string]string) string {
	return defaultPreviewer.Render(content, placeholders, values)
}

// HighlightTokens 使用默认高亮 class 渲染编辑器预览
func HighlightTokens(content string, placeholders []string) string {
	return defaultPreviewer.Highlight(content, placeholders)
}

// Render 替换规则与 Personalize 相同，但每个替换值包在高亮 span 中，值里的换行转换为 <br>
// 普通文本和填写值都会做 HTML 转义
func (p *Previewer) Render(content string, placeholders []string, values map[string]string) string {
	var b strings.Builder
	b.Grow(len(content) * 2)
	substitute(content, placeholders,
		func(text string) { b.WriteString(escapeText(text)) },
		func(name string) {
			p.writeSpan(&b, lineBreakValue.Replace(html.EscapeString(ValueOrFallback(name, values))))
		},
	)
	return sanitizePreview(b.String())
}

// Highlight 编辑表单中的预览：已声明的占位符保持 {{name}} 原文，只加高亮
func (p *Previewer) Highlight(content string, placeholders []string) string {
	var b strings.Builder
	b.Grow(len(content) * 2)
	substitute(content, placeholders,
		func(text string) { b.WriteString(escapeText(text)) },
		func(name string) { p.writeSpan(&b, html.EscapeString(Token(name))) },
	)
	return sanitizePreview(b.String())
}

func (p *Previewer) writeSpan(b *strings.Builder, inner string) {
	b.WriteString(`<span class="`)
	b.WriteString(p.highlightClass)
	b.WriteString(`">`)
	b.WriteString(inner)
	b.WriteString(`</span>`)
}

// escapeText 普通文本只做转义，换行交给展示容器（pre-wrap）处理
func escapeText(text string) string {
	if text == "" {
		return ""
	}
	return html.EscapeString(text)
}

func sanitizePreview(markup string) string {
	if markup == "" {
		return ""
	}
	return previewSanitizer().Sanitize(markup)
}

func previewSanitizer() *bluemonday.Policy {
	previewPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("br")
		policy.AllowAttrs("class").Matching(classPattern).OnElements("span")
		previewPolicy = policy
	})
	return previewPolicy
}
