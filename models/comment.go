package models

import "time"

// Comment is a reply attached to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName keeps comments in their historical table.
func (Comment) TableName() string { return "post_comments" }

// OwnerID returns the id of the comment author.
func (c *Comment) OwnerID() uint { return c.AuthorID }

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Profile{}, &Post{}, &Comment{}}
}
