package models

const (
	// DemoUserName is used when Google credentials are not configured.
	DemoUserName = "Demo User"
	// DemoUserEmail identifies the mock account.
	DemoUserEmail = "demo@ytfree.app"
)

// User models a signed-in account as exposed to the frontend.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	Demo    bool   `json:"demo"` // true when this is the mock fallback account
}

// DemoUser returns the mock account used when OAuth is not configured.
func DemoUser() User {
	return User{
		ID:    "demo",
		Name:  DemoUserName,
		Email: DemoUserEmail,
		Demo:  true,
	}
}
