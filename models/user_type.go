package models

// UserType classifies an authenticated caller.
type UserType string

const (
	UserTypeAdmin        UserType = "admin"
	UserTypeManufacturer UserType = "manufacturer"
)

var userTypeHumanName = map[UserType]string{
	UserTypeAdmin:        "Embedded Full",
	UserTypeManufacturer: "Embedded Mfr",
}

// ToHuman returns the first name given to guest users of this type.
func (t UserType) ToHuman() string {
	if human, exist := userTypeHumanName[t]; exist {
		return human
	}
	return string(t)
}

func (t UserType) IsAdmin() bool {
	return t == UserTypeAdmin
}
