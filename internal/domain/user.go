package domain

type Role string

const (
	RoleClient  Role = "client"
	RoleHost    Role = "host"
	RoleCourier Role = "courier"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleClient, RoleHost, RoleCourier:
		return Role(s), true
	default:
		return "", false
	}
}

// Identity — аутентифицированный актор; создаётся только через проверку токена
type Identity struct {
	ID    string
	Role  Role
	Name  string
	Email string
}

type UserSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}
