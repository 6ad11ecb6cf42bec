package model

// Shop 每個 user 最多一間, 未核准不能上架商品
type Shop struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID    string `gorm:"not null;type:varchar(36);uniqueIndex" json:"ownerId"`
	Name       string `gorm:"not null;type:varchar(255)" json:"name"`
	IsApproved bool   `gorm:"not null;default:false" json:"isApproved"`
	BaseModel
}
