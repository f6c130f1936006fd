package model

import (
	"encoding/json"
	"fmt"
)

// DocumentType 文档类型标签
type DocumentType string

const (
	DocTypeWord  DocumentType = "docx"
	DocTypeSlide DocumentType = "pptx"
)

// Valid 是否为已知文档类型
func (t DocumentType) Valid() bool {
	return t == DocTypeWord || t == DocTypeSlide
}

// Section Word 文档的一个章节
type Section struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"content"`
}

// Slide 演示文稿的一页
type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// DocumentContent 结构化文档内容
// 带类型标签的联合结构：docx 只携带 Sections，pptx 只携带 Slides。
// 标签在入口处判定一次，内部逻辑对 Type 做穷举 switch，不再做字符串比较。
type DocumentContent struct {
	Type     DocumentType
	Sections []Section
	Slides   []Slide
}

// NewWordContent 构造 Word 内容
func NewWordContent(sections []Section) *DocumentContent {
	if sections == nil {
		sections = []Section{}
	}
	return &DocumentContent{Type: DocTypeWord, Sections: sections}
}

// NewSlideContent 构造演示文稿内容
func NewSlideContent(slides []Slide) *DocumentContent {
	if slides == nil {
		slides = []Slide{}
	}
	return &DocumentContent{Type: DocTypeSlide, Slides: slides}
}

// IsEmpty 内容是否为空（无章节/无幻灯片）
func (c *DocumentContent) IsEmpty() bool {
	if c == nil {
		return true
	}
	switch c.Type {
	case DocTypeWord:
		return len(c.Sections) == 0
	case DocTypeSlide:
		return len(c.Slides) == 0
	}
	return true
}

// 持久化 JSON 形状:
//   {"type":"docx","sections":[{"title":...,"content":[...]}]}
//   {"type":"pptx","slides":[{"title":...,"bullets":[...]}]}

type wordContentJSON struct {
	Type     DocumentType `json:"type"`
	Sections []Section    `json:"sections"`
}

type slideContentJSON struct {
	Type   DocumentType `json:"type"`
	Slides []Slide      `json:"slides"`
}

// MarshalJSON 按持久化形状序列化；空集合编码为 []，不是 null
func (c DocumentContent) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case DocTypeWord:
		sections := c.Sections
		if sections == nil {
			sections = []Section{}
		}
		return json.Marshal(wordContentJSON{Type: c.Type, Sections: sections})
	case DocTypeSlide:
		slides := c.Slides
		if slides == nil {
			slides = []Slide{}
		}
		return json.Marshal(slideContentJSON{Type: c.Type, Slides: slides})
	}
	return nil, fmt.Errorf("未知文档类型: %q", c.Type)
}

// UnmarshalJSON 从持久化形状反序列化
func (c *DocumentContent) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type     DocumentType `json:"type"`
		Sections []Section    `json:"sections"`
		Slides   []Slide      `json:"slides"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if !probe.Type.Valid() {
		return fmt.Errorf("未知文档类型: %q", probe.Type)
	}

	c.Type = probe.Type
	c.Sections = nil
	c.Slides = nil
	switch probe.Type {
	case DocTypeWord:
		c.Sections = probe.Sections
		if c.Sections == nil {
			c.Sections = []Section{}
		}
	case DocTypeSlide:
		c.Slides = probe.Slides
		if c.Slides == nil {
			c.Slides = []Slide{}
		}
	}
	return nil
}

// ParseContent 解析持久化的内容 JSON
func ParseContent(raw string) (*DocumentContent, error) {
	var content DocumentContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// Encode 序列化为持久化 JSON 文本
func (c *DocumentContent) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
