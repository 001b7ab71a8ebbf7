package tradesim

// Provider tags how an identity was authenticated.
type Provider string

const (
	LocalProvider  Provider = "local"
	GoogleProvider Provider = "google"
)

// Identity is the authenticated user of a sandbox session.
type Identity struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Picture  string   `json:"picture,omitempty"`
	Provider Provider `json:"provider"`
}
