package model

import "time"

// Role 由上游認證服務發出，核心照單全收
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleParticipant, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Actor 認證服務提供的操作主體
type Actor struct {
	ID   int  `json:"id"`
	Role Role `json:"role"`
}

// IsStaff organizer 與 admin 擁有活動管理權限
func (a Actor) IsStaff() bool {
	return a.Role == RoleOrganizer || a.Role == RoleAdmin
}

// User 參加者參考資料，只用於報表 join；帳號可能已被刪除
type User struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
