package models

// Two-factor gate states. Transitions: disabled → setup_pending → enabled,
// and enabled → disabled (which revokes every active session).
const (
	TwoFactorDisabled     = "disabled"
	TwoFactorSetupPending = "setup_pending"
	TwoFactorEnabled      = "enabled"
)

// TwoFactorStatus is the user-visible state of the two-factor gate.
type TwoFactorStatus struct {
	State           string `json:"state"`
	BackupCodesLeft int    `json:"backup_codes_left"`
}

// TwoFactorSetup carries the one-time provisioning material returned by
// setup. The secret is shown to the user exactly once for enrolment in an
// authenticator app.
type TwoFactorSetup struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

// TwoFactorEnableResult carries the 10 single-use backup codes generated when
// two-factor is enabled. The codes are returned exactly once; only their
// hashes are retained server-side.
type TwoFactorEnableResult struct {
	BackupCodes []string `json:"backup_codes"`
}
