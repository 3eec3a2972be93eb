package bankid

// Requirement narrows which users may complete an order.
type Requirement struct {
	PersonalNumber      string   `json:"personalNumber,omitempty"`
	PinCode             bool     `json:"pinCode,omitempty"`
	Mrtd                bool     `json:"mrtd,omitempty"`
	CertificatePolicies []string `json:"certificatePolicies,omitempty"`
}

// AuthRequest starts an authentication order. UserVisibleData is plain
// text, the client encodes it.
type AuthRequest struct {
	EndUserIP             string       `json:"endUserIp"`
	UserVisibleData       string       `json:"userVisibleData,omitempty"`
	UserVisibleDataFormat string       `json:"userVisibleDataFormat,omitempty"`
	Requirement           *Requirement `json:"requirement,omitempty"`
}

// SignRequest starts a signature order. UserVisibleData is required.
type SignRequest struct {
	EndUserIP             string       `json:"endUserIp"`
	UserVisibleData       string       `json:"userVisibleData"`
	UserNonVisibleData    string       `json:"userNonVisibleData,omitempty"`
	UserVisibleDataFormat string       `json:"userVisibleDataFormat,omitempty"`
	Requirement           *Requirement `json:"requirement,omitempty"`
}

type OrderResponse struct {
	OrderRef       string `json:"orderRef"`
	AutoStartToken string `json:"autoStartToken"`
	QRStartToken   string `json:"qrStartToken"`
	QRStartSecret  string `json:"qrStartSecret"`
}

type CollectResponse struct {
	OrderRef       string          `json:"orderRef"`
	Status         string          `json:"status"`
	HintCode       string          `json:"hintCode,omitempty"`
	CompletionData *CompletionData `json:"completionData,omitempty"`
}

type CompletionData struct {
	User            User   `json:"user"`
	Device          Device `json:"device"`
	BankIDIssueDate string `json:"bankIdIssueDate"`
	StepUp          *struct {
		Mrtd bool `json:"mrtd"`
	} `json:"stepUp,omitempty"`
	Signature    string `json:"signature"`
	OCSPResponse string `json:"ocspResponse"`
}

type User struct {
	PersonalNumber string `json:"personalNumber"`
	Name           string `json:"name"`
	GivenName      string `json:"givenName"`
	Surname        string `json:"surname"`
}

type Device struct {
	IPAddress string `json:"ipAddress"`
	UHI       string `json:"uhi,omitempty"`
}

type orderRefRequest struct {
	OrderRef string `json:"orderRef"`
}
