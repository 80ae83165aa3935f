package authapimodels

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message        string `json:"message"`
	UserType       string `json:"user_type"`
	UserIdentifier string `json:"user_identifier"`
	AccessToken    string `json:"access_token,omitempty"` // only when session tokens are enabled
}
