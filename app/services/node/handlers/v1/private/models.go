package private

// registerPeer is the wire model for a peer registration. The address
// must carry an explicit scheme.
type registerPeer struct {
	Address string `json:"address" validate:"required,uri"`
}
