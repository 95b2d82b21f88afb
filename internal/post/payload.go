package post

type CreateReq struct {
	Content string  `json:"content"`
	Image   *string `json:"image" validate:"omitnil,max=1024"`
}

type UpdateReq = CreateReq

type CreateWithCommentReq struct {
	PostContent    string  `json:"postContent"`
	PostImage      *string `json:"postImage" validate:"omitnil,max=1024"`
	CommentContent string  `json:"commentContent"`
}

type CreateWithCommentResult struct {
	PostID    int64 `json:"postId"`
	CommentID int64 `json:"commentId"`
}
