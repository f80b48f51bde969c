package session

// Identity is the authenticated user resolved from a bearer token by the
// session store. A nil Identity means the request is anonymous.
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}
