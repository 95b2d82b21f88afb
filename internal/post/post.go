package post

import "time"

const MaxContentLen = 500

type Post struct {
	ID        int64     `gorm:"primaryKey" json:"postId"`
	UserID    int64     `gorm:"index;not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Image     *string   `gorm:"size:1024" json:"image"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
