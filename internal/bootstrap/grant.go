package bootstrap

import "fmt"

// RoleReadWrite is the only role the bootstrap ever grants.
const RoleReadWrite = "readWrite"

// Settings is the resolved application account. It is built once at startup
// and passed by value; nothing in this package reads the environment.
type Settings struct {
	Database string
	Username string
	Password string
}

// String omits the password so Settings can be logged safely.
func (s Settings) String() string {
	return fmt.Sprintf("database=%s user=%s", s.Database, s.Username)
}

// Role is a privilege restricted to a single database.
type Role struct {
	Role string `bson:"role" json:"role"`
	DB   string `bson:"db" json:"db"`
}

// UserGrant is the create-user request sent to the admin interface.
type UserGrant struct {
	User     string `json:"user"`
	Password string `json:"-"`
	Roles    []Role `json:"roles"`
}

// NewGrant builds the grant for s: one readWrite role scoped to s.Database.
func NewGrant(s Settings) UserGrant {
	return UserGrant{
		User:     s.Username,
		Password: s.Password,
		Roles:    []Role{{Role: RoleReadWrite, DB: s.Database}},
	}
}
