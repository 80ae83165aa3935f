package supersetapimodels

type SupersetLoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Provider string `json:"provider"`
}

type SupersetLoginResp struct {
	AccessToken string `json:"access_token"`
}

type SupersetGuestTokenReq struct {
	User      User       `json:"user"`
	Resources []Resource `json:"resources"`
	RLS       []RLS      `json:"rls"`
}

type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type RLS struct {
	Clause    string `json:"clause"`
	DatasetID *int   `json:"dataset_id,omitempty"`
}

type User struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type SupersetGuestTokenResp struct {
	Token string `json:"token"`
}

// SupersetErrorResp is the error envelope of the Superset REST API. Message is
// either a plain string or a mapping of field name to a list of messages.
type SupersetErrorResp struct {
	Message interface{} `json:"message"`
}
