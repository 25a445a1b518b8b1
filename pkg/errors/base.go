package errors

var newCoreCode = WithPrefix("CORE")

// Error kinds shared by every queue backend. Package level errors declare
// one of them with Of so callers can branch on the kind alone.
var (
	ErrConfiguration  = newCoreCode().New("configuration error")
	ErrResourceState  = newCoreCode().New("queue resource is not available")
	ErrTransient      = newCoreCode().New("transient backend failure")
	ErrTimeout        = newCoreCode().New("operation timeout")
	ErrProtocolMisuse = newCoreCode().New("protocol misuse")
)

// IsFatal reports whether err must stop a polling caller instead of being
// retried on the next iteration.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !Is(err, ErrTransient)
}
