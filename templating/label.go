package templating

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldType 填写表单的输入类型提示
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldDate     FieldType = "date"
)

// Icon 占位符图标分类（仅用于展示）
type Icon string

const (
	IconPerson       Icon = "person"
	IconOrganization Icon = "organization"
	IconPackage      Icon = "package"
	IconCalendar     Icon = "calendar"
	IconNote         Icon = "note"
	IconTag          Icon = "tag"
)

// Field 单个占位符的表单描述
type Field struct {
	Name  string    `json:"name"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
	Icon  Icon      `json:"icon"`
}

// DeriveLabel 把占位符名称转换为可读标签
// orderNumber -> Order Number, custom_message -> Custom Message
func DeriveLabel(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		case r == '_':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + word[size:]
	}
	return strings.Join(words, " ")
}

// Fallback 未填写时使用的替换文本：[标签]
func Fallback(name string) string {
	return "[" + DeriveLabel(name) + "]"
}

// InferFieldType 根据名称推断输入类型（不区分大小写）
func InferFieldType(name string) FieldType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "date"):
		return FieldDate
	case strings.Contains(lower, "message"),
		strings.Contains(lower, "note"),
		strings.Contains(lower, "comment"):
		return FieldTextarea
	default:
		return FieldText
	}
}

// InferIcon 根据名称推断图标分类（固定词表，整词匹配）
func InferIcon(name string) Icon {
	switch strings.ToLower(name) {
	case "name", "customer", "customername", "firstname", "lastname":
		return IconPerson
	case "email", "company", "companyname":
		return IconOrganization
	case "order", "ordernumber", "product":
		return IconPackage
	case "date", "time":
		return IconCalendar
	case "message", "note", "comment", "custommessage":
		return IconNote
	default:
		return IconTag
	}
}

// DescribeFields 生成个性化表单的字段列表，顺序与占位符一致
func DescribeFields(placeholders []string) []Field {
	fields := make([]Field, 0, len(placeholders))
	for _, name := range placeholders {
		if name == "" {
			continue
		}
		fields = append(fields, Field{
			Name:  name,
			Label: DeriveLabel(name),
			Type:  InferFieldType(name),
			Icon:  InferIcon(name),
		})
	}
	return fields
}
