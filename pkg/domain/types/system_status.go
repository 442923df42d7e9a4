package types

// SystemStatus is the provisioning state written by the side-effect
// dispatcher. The empty value means the case has not been provisioned yet.
//
//	""           -> provisioning      (claimed by a dispatcher delivery)
//	provisioning -> provisioned | provision_failed
//	provision_failed -> provisioning  (manual retry only)
type SystemStatus string

const (
	SystemStatusUnprovisioned   SystemStatus = ""
	SystemStatusProvisioning    SystemStatus = "provisioning"
	SystemStatusProvisioned     SystemStatus = "provisioned"
	SystemStatusProvisionFailed SystemStatus = "provision_failed"
)

// IsTerminal reports whether automatic delivery must leave the case alone
func (s SystemStatus) IsTerminal() bool {
	return s == SystemStatusProvisioned || s == SystemStatusProvisionFailed
}

func (s SystemStatus) String() string {
	return string(s)
}
