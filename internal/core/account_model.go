package core

import "time"

// Account is the shop owner that scopes every product and bill.
type Account struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ShopName     string    `json:"shop_name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterInput is the sign-up request for a new shop owner.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	ShopName string `json:"shop_name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Address  string `json:"address" validate:"required,max=300"`
}

// ProfileInput edits the owner's profile. Empty fields keep the stored value; a new
// Password needs the current one in OldPassword.
type ProfileInput struct {
	Name        string `json:"name" validate:"max=100"`
	ShopName    string `json:"shop_name" validate:"max=100"`
	Phone       string `json:"phone" validate:"max=20"`
	Address     string `json:"address" validate:"max=300"`
	Password    string `json:"password" validate:"omitempty,min=6,max=72"`
	OldPassword string `json:"old_password"`
}
