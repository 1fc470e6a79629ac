package models

// Profile extends a User with optional data. A user may have no profile row;
// readers fall back to the base User fields.
type Profile struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Email  string `gorm:"size:255;default:''" json:"email"`
	Level  *int   `gorm:"default:0" json:"level"`
}
