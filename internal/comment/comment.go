package comment

import "time"

const MaxContentLen = 500

type Comment struct {
	ID        int64     `gorm:"primaryKey" json:"commentId"`
	UserID    int64     `gorm:"index;not null" json:"userId"`
	PostID    int64     `gorm:"index;not null" json:"postId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateReq struct {
	PostID  int64  `json:"postId" validate:"gt=0"`
	Content string `json:"content"`
}
