// internal/models/user.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string   `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string   `json:"email" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string   `json:"-" gorm:"size:255;not null"`
	Name         string   `json:"name" gorm:"size:100;not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null"`
	Address      string   `json:"address" gorm:"size:255"`
	Phone        string   `json:"phone" gorm:"size:20"`

	// Relationships
	Products  []Product  `json:"products,omitempty" gorm:"foreignKey:SellerID"`
	Purchases []Order    `json:"purchases,omitempty" gorm:"foreignKey:BuyerID"`
	Sales     []Order    `json:"sales,omitempty" gorm:"foreignKey:SellerID"`
	CartItems []CartItem `json:"cart_items,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// IsSeller reports whether the user lists produce for sale.
func (u *User) IsSeller() bool {
	return u.Role == RoleFarmer || u.Role == RoleFisherman
}
