package entity

// User represents a user in the system
type User struct {
	Id        string `json:"id" gorm:"column:id;primaryKey"`
	Username  string `json:"username" gorm:"column:username"`
	Email     string `json:"email" gorm:"column:email;uniqueIndex"`
	Bio       string `json:"bio" gorm:"column:bio"`
	Picture   string `json:"picture" gorm:"column:picture"`
	Password  string `json:"-" gorm:"column:password"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// UserInfo represents public user info (without password)
type UserInfo struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Picture  string `json:"picture,omitempty"`
}

// ToUserInfo converts User to UserInfo
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		Id:       u.Id,
		Username: u.Username,
		Picture:  u.Picture,
	}
}

// Profile represents the full profile view of a user
type Profile struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Bio      string `json:"bio,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// ToProfile converts User to Profile
func (u *User) ToProfile() *Profile {
	return &Profile{
		Id:       u.Id,
		Username: u.Username,
		Email:    u.Email,
		Bio:      u.Bio,
		Picture:  u.Picture,
	}
}
