package model

type UserRole string

const (
	Pegawai UserRole = "pegawai"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Nama     string   `gorm:"size:100;not null" json:"nama"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"type:enum('pegawai','admin');default:'pegawai'" json:"role"`
}

func (User) TableName() string {
	return "users"
}
