package storage

import "time"

type Employee struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Position  string     `json:"position"` // "employee" or "admin"
	HireDate  *time.Time `json:"hire_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// bcrypt hash, loaded only by GetEmployeeByEmail for login
	PasswordHash string `json:"-"`
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Session is one refresh-token episode. Only the sha256 of the token is
// stored; rotation revokes the old row and inserts a new one.
type Session struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employee_id"`
	TokenHash  string     `json:"-"`
	UserAgent  string     `json:"user_agent,omitempty"`
	IP         string     `json:"ip,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
