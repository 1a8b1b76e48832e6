package clientdto

type RegisterClientInput struct {
	ClientUserID  string
	IBID          string
	PlanLinkToken string
}
