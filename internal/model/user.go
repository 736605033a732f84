package model

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginResult is the auth collaborator's successful login response.
type LoginResult struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}
