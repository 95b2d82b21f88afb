package migrate

import (
	"social-backend/internal/comment"
	"social-backend/internal/post"
	"social-backend/internal/shared/db"
	"social-backend/internal/user"
)

func AutoMigrateAll(store *db.Store) error {
	return store.Base.AutoMigrate(
		&user.User{},
		&post.Post{},
		&comment.Comment{},
	)
}
