package user

// RegisterReq accepts "phone" as an alias of "phoneNumber".
type RegisterReq struct {
	PhoneNumber string  `json:"phoneNumber"`
	Phone       string  `json:"phone"`
	UserName    string  `json:"userName" validate:"max=100"`
	Email       *string `json:"email" validate:"omitnil,max=255"`
	Password    string  `json:"password"`
	CoverImage  *string `json:"coverImage" validate:"omitnil,max=1024"`
	Biography   *string `json:"biography"`
}

func (r RegisterReq) PhoneValue() string {
	if r.PhoneNumber != "" {
		return r.PhoneNumber
	}
	return r.Phone
}

type LoginReq struct {
	PhoneNumber string `json:"phoneNumber"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
}

func (r LoginReq) PhoneValue() string {
	if r.PhoneNumber != "" {
		return r.PhoneNumber
	}
	return r.Phone
}

type LoginResp struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}
