// Package text 提供 scheme 文本的规范化、分词、停用词与关键词抽取。
//
// 所有函数均为纯函数，无副作用，可并发调用。
package text
