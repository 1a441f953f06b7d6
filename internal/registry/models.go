package registry

// OrganisationPart is a registry organisation part (an OPN) belonging to a
// parent NZBN. Only fields the registry documents are mapped.
type OrganisationPart struct {
	OPN                    string         `json:"opn,omitempty"`
	ParentNZBN             string         `json:"parentNzbn,omitempty"`
	ParentNZBNName         string         `json:"parentNzbnName,omitempty"`
	ParentGLN              string         `json:"parentGln,omitempty"`
	Name                   string         `json:"name,omitempty"`
	Purposes               []Purpose      `json:"purposes,omitempty"`
	Function               string         `json:"function,omitempty"`
	OrganisationPartStatus string         `json:"organisationPartStatus,omitempty"`
	Addresses              []Address      `json:"addresses,omitempty"`
	PhoneNumbers           []PhoneNumber  `json:"phoneNumbers,omitempty"`
	EmailAddresses         []EmailAddress `json:"emailAddresses,omitempty"`
	GSTNumber              string         `json:"gstNumber,omitempty"`
	PaymentBankAccount     string         `json:"paymentBankAccountNumber,omitempty"`
	CustomData             []Metadata     `json:"custom-data,omitempty"`
	Privacy                string         `json:"privacy,omitempty"`
	NZBNList               []NZBNRef      `json:"nzbn-list,omitempty"`
	StartDate              string         `json:"startDate,omitempty"`
	StatusDate             string         `json:"statusDate,omitempty"`
}

// Function values.
const (
	FunctionFunction         = "FUNCTION"
	FunctionPhysicalLocation = "PHYSICAL_LOCATION"
	FunctionDigitalLocation  = "DIGITAL_LOCATION"
)

type Purpose struct {
	UniqueIdentifier   string `json:"uniqueIdentifier,omitempty"`
	Purpose            string `json:"purpose"`
	PurposeDescription string `json:"purposeDescription,omitempty"`
}

type Address struct {
	UniqueIdentifier string `json:"uniqueIdentifier,omitempty"`
	StartDate        string `json:"startDate,omitempty"`
	CareOf           string `json:"careOf,omitempty"`
	Address1         string `json:"address1,omitempty"`
	Address2         string `json:"address2,omitempty"`
	Address3         string `json:"address3,omitempty"`
	Address4         string `json:"address4,omitempty"`
	PostCode         string `json:"postCode,omitempty"`
	CountryCode      string `json:"countryCode,omitempty"`
	AddressType      string `json:"addressType,omitempty"`
	PafID            string `json:"pafId,omitempty"`
}

type PhoneNumber struct {
	UniqueIdentifier        string `json:"uniqueIdentifier,omitempty"`
	PhonePurpose            string `json:"phonePurpose,omitempty"`
	PhonePurposeDescription string `json:"phonePurposeDescription,omitempty"`
	PhoneCountryCode        string `json:"phoneCountryCode,omitempty"`
	PhoneAreaCode           string `json:"phoneAreaCode,omitempty"`
	PhoneNumber             string `json:"phoneNumber,omitempty"`
	StartDate               string `json:"startDate,omitempty"`
}

type EmailAddress struct {
	UniqueIdentifier        string `json:"uniqueIdentifier,omitempty"`
	EmailAddress            string `json:"emailAddress,omitempty"`
	EmailPurpose            string `json:"emailPurpose,omitempty"`
	EmailPurposeDescription string `json:"emailPurposeDescription,omitempty"`
	StartDate               string `json:"startDate,omitempty"`
}

type Metadata struct {
	UniqueIdentifier string `json:"uniqueIdentifier,omitempty"`
	Key              string `json:"key,omitempty"`
	Value            string `json:"value,omitempty"`
	StartDate        string `json:"startDate,omitempty"`
}

type NZBNRef struct {
	NZBN string `json:"nzbn"`
}

// Purchase is the optional purchaser block on create requests.
type Purchase struct {
	PurchaseID            string  `json:"purchaseId,omitempty"`
	PurchaserName         string  `json:"purchaserName,omitempty"`
	PurchaserEmailAddress string  `json:"purchaserEmailAddress,omitempty"`
	PurchaserPhoneNumber  string  `json:"purchaserPhoneNumber,omitempty"`
	PurchaseRedirectURL   string  `json:"purchaseRedirectUrl,omitempty"`
	PurchaseAmount        float64 `json:"purchaseAmount,omitempty"`
}

// OrganisationPartRequest is the body of a create call.
type OrganisationPartRequest struct {
	TermsAndConditionsAccepted bool             `json:"termsAndConditionsAccepted"`
	OrganisationPart           OrganisationPart `json:"organisationPart"`
	PurchaserDetails           *Purchase        `json:"purchaserDetails,omitempty"`
}

type searchResponse struct {
	PageSize   int                `json:"pageSize"`
	Page       int                `json:"page"`
	TotalItems int                `json:"totalItems"`
	Items      []OrganisationPart `json:"items"`
}
