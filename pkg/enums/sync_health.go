package enums

// SyncHealth classifies how fresh a platform's last successful sync is.
type SyncHealth string

const (
	SyncHealthHealthy SyncHealth = "healthy"
	SyncHealthStale   SyncHealth = "stale"
	SyncHealthNoData  SyncHealth = "no_data"
)

// String implements fmt.Stringer.
func (s SyncHealth) String() string {
	return string(s)
}
