package domain

// Identity is the signed-in user and the bearer credential for the backend.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Token  string `json:"token,omitempty"`
}

// Anonymous reports whether no user is signed in.
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}

// Same reports whether two identities refer to the same user and credential.
func (i Identity) Same(o Identity) bool {
	return i.UserID == o.UserID && i.Token == o.Token
}
