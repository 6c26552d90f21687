package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TokenMetaResponse struct {
	Status string `json:"status"`
	Data   struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
		Owner  string `json:"owner"`
	} `json:"data"`
}

type SupplyResponse struct {
	Status string `json:"status"`
	Data   struct {
		TotalSupply string `json:"total_supply"`
	} `json:"data"`
}

type AccountDTO struct {
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	Locked   string `json:"locked"`
	Unlocked string `json:"unlocked"`
}

type AccountResponse struct {
	Status string     `json:"status"`
	Data   AccountDTO `json:"data"`
}

type MintRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type BurnRequest struct {
	Amount string `json:"amount"`
}

type BurnFromRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type TransferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type ApproveRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type AllowanceResponse struct {
	Status string `json:"status"`
	Data   struct {
		Owner     string `json:"owner"`
		Spender   string `json:"spender"`
		Allowance string `json:"allowance"`
	} `json:"data"`
}

type LockRequest struct {
	Amount string `json:"amount"`
}

type UnlockRequest struct {
	Amount string `json:"amount"`
}

type ListMembershipRequest struct {
	Account string `json:"account"`
}

type ListMembershipResponse struct {
	Status string `json:"status"`
	Data   struct {
		Account string `json:"account"`
		List    string `json:"list"`
		Member  bool   `json:"member"`
	} `json:"data"`
}

type AirdropRequest struct {
	Recipients []string `json:"recipients"`
	Amounts    []string `json:"amounts"`
}

type AirdropResponse struct {
	Status string `json:"status"`
	Data   struct {
		TotalAmount    string `json:"total_amount"`
		RecipientCount int    `json:"recipient_count"`
	} `json:"data"`
}

type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

type OwnerResponse struct {
	Status string `json:"status"`
	Data   struct {
		Owner string `json:"owner"`
	} `json:"data"`
}

type AckResponse struct {
	Status string `json:"status"`
}
