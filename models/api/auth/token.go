package authapimodels

type GuestTokenResponse struct {
	Token string `json:"token"`
}
