package models

type AddressType string

const (
	AddressHome  AddressType = "Home"
	AddressWork  AddressType = "Work"
	AddressOther AddressType = "Other"
)

// Address is a delivery address in the signed-in user's address book
type Address struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      AddressType `json:"type"`
	Address   string      `json:"address"`
	City      string      `json:"city"`
	State     string      `json:"state"`
	Pincode   string      `json:"pincode"`
	Mobile    string      `json:"mobile"`
	IsDefault bool        `json:"isDefault"`
}

// AddressInput is the create/edit form. It is validated before any request is made.
type AddressInput struct {
	Name      string      `json:"name" validate:"required,min=2,max=100"`
	Type      AddressType `json:"type" validate:"required,oneof=Home Work Other"`
	Address   string      `json:"address" validate:"required,min=5,max=500"`
	City      string      `json:"city" validate:"required,max=100"`
	State     string      `json:"state" validate:"required,max=100"`
	Pincode   string      `json:"pincode" validate:"required,pincode"`
	Mobile    string      `json:"mobile" validate:"required,mobile"`
	IsDefault bool        `json:"isDefault"`
}

// DefaultIndex returns the index of the address flagged default, or -1.
func DefaultIndex(addresses []Address) int {
	for i := range addresses {
		if addresses[i].IsDefault {
			return i
		}
	}
	return -1
}

// WithDefault returns a copy of addresses where exactly the address with id is default.
func WithDefault(addresses []Address, id string) []Address {
	out := make([]Address, len(addresses))
	for i, a := range addresses {
		a.IsDefault = a.ID == id
		out[i] = a
	}
	return out
}
