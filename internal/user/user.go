package user

import "time"

type User struct {
	ID          int64     `gorm:"primaryKey" json:"userId"`
	PhoneNumber string    `gorm:"size:12;uniqueIndex;not null" json:"phoneNumber"`
	UserName    string    `gorm:"size:100;not null" json:"userName"`
	Email       *string   `gorm:"size:255" json:"email"`
	Password    string    `gorm:"size:255;not null" json:"-"`
	CoverImage  *string   `gorm:"size:1024" json:"coverImage"`
	Biography   *string   `gorm:"type:text" json:"biography"`
	CreatedAt   time.Time `json:"createdAt"`
}
