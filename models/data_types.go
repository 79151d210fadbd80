package models

// DataType identifies one of the synchronized data categories.
// Every snapshot, queue item, and conflict is scoped to exactly one DataType.
type DataType string

const (
	// DataTypeAccounts covers mail account configuration (servers, ports,
	// display names). Credentials inside the payload are part of the
	// encrypted envelope like everything else.
	DataTypeAccounts DataType = "accounts"

	// DataTypeContacts covers the user's address book.
	DataTypeContacts DataType = "contacts"

	// DataTypePreferences covers application preferences.
	DataTypePreferences DataType = "preferences"

	// DataTypeSignatures covers mail signatures.
	DataTypeSignatures DataType = "signatures"
)

// AllDataTypes lists every synchronized data type in the order a full sync
// cycle processes them.
var AllDataTypes = []DataType{
	DataTypeAccounts,
	DataTypeContacts,
	DataTypePreferences,
	DataTypeSignatures,
}

// Valid reports whether dt is one of the known data types.
func (dt DataType) Valid() bool {
	switch dt {
	case DataTypeAccounts, DataTypeContacts, DataTypePreferences, DataTypeSignatures:
		return true
	}
	return false
}

// AccountConfig is the decrypted payload for DataTypeAccounts.
type AccountConfig struct {
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	IMAPHost     string `json:"imap_host"`
	IMAPPort     int    `json:"imap_port"`
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	UseTLS       bool   `json:"use_tls"`
	AuthLogin    string `json:"auth_login"`
	AuthPassword string `json:"auth_password"`
}

// Contact is a single address-book entry inside the contacts payload.
type Contact struct {
	ID        string   `json:"id"`
	FullName  string   `json:"full_name"`
	Emails    []string `json:"emails"`
	Phone     string   `json:"phone,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Favourite bool     `json:"favourite,omitempty"`
}

// Preferences is the decrypted payload for DataTypePreferences.
type Preferences struct {
	Theme            string `json:"theme"`
	Language         string `json:"language"`
	MessagesPerPage  int    `json:"messages_per_page"`
	NotifyOnNewMail  bool   `json:"notify_on_new_mail"`
	AutoMarkRead     bool   `json:"auto_mark_read"`
	DefaultAccountID string `json:"default_account_id,omitempty"`
}

// Signature is a single mail signature inside the signatures payload.
type Signature struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SignatureHTML string `json:"signature_html"`
	SignatureText string `json:"signature_text"`
	IsDefault     bool   `json:"is_default"`
}
