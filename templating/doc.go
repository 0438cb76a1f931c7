// Package templating 模板个性化引擎：占位符检测、标签推断、替换与高亮预览
//
// 占位符写作 {{name}}。所有函数都是纯函数，不做 I/O，不修改入参，可以并发调用，
// 也不会返回错误：缺失的值退化为 [标签]，未声明的占位符原样保留。
package templating
