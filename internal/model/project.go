package model

// Project 文档生成项目
// DocumentType 在创建时确定，之后不可变更；
// 后续的生成/润色必须产出同一类型的内容。
type Project struct {
	BaseModel
	Title string `gorm:"size:255;not null" json:"title"`
	Topic string `gorm:"size:500;not null" json:"topic"`

	// docx | pptx
	DocumentType DocumentType `gorm:"size:10;not null;index" json:"document_type"`

	// 生成内容的 JSON 文本，形如 {"type":"docx","sections":[...]}
	GeneratedContent string `gorm:"type:text" json:"generated_content"`

	OwnerID int64    `gorm:"index;not null" json:"owner_id"`
	Owner   *SysUser `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// HasContent 是否已有生成内容
func (p *Project) HasContent() bool {
	return p.GeneratedContent != ""
}
