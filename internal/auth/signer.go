package auth

import "golang.org/x/crypto/bcrypt"

// Signer hashes and verifies passwords.
type Signer interface {
	Sign(pass string) (string, error)
	Verify(token, pass string) error
}

// DefaultCost matches the cost used for accounts created so far.
const DefaultCost = 10

// Bcrypt signs passwords with bcrypt. A zero Cost uses DefaultCost.
type Bcrypt struct {
	Cost int
}

func (v *Bcrypt) Sign(pass string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	token, err := bcrypt.GenerateFromPassword([]byte(pass), cost)
	if err != nil {
		return "", err
	}
	return string(token), nil
}

func (v *Bcrypt) Verify(token, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(token), []byte(pass))
}
